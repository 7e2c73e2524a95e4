package naming

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"rtshell/internal/domain"
)

// Client is a Service backed by an rtnamed HTTP API
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for requests
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithLogger sets the logger for request tracing
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client for the name server at baseURL
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EndpointURL returns the base URL for a server name. Explicit endpoints win;
// otherwise the server is assumed to listen on DefaultPort.
func EndpointURL(server string, endpoints map[string]string) string {
	if u, ok := endpoints[server]; ok && u != "" {
		return u
	}
	host := server
	if !strings.Contains(host, ":") {
		host = host + ":" + strconv.Itoa(DefaultPort)
	}
	return "http://" + host
}

// HTTPDialer returns a Dialer creating one Client per server
func HTTPDialer(endpoints map[string]string, opts ...ClientOption) Dialer {
	return func(ctx context.Context, server string) (Service, error) {
		return NewClient(EndpointURL(server, endpoints), opts...), nil
	}
}

// errorBody mirrors the error document written by the rtnamed API
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (c *Client) List(ctx context.Context, dir string) ([]domain.Binding, error) {
	var out []domain.Binding
	if err := c.get(ctx, "/api/list", url.Values{"dir": {dir}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Probe(ctx context.Context, ref string) (domain.ObjectKind, error) {
	var out ProbeResponse
	if err := c.get(ctx, "/api/probe", url.Values{"ref": {ref}}, &out); err != nil {
		return "", err
	}
	return out.Kind, nil
}

func (c *Client) Component(ctx context.Context, ref string) (*domain.Component, error) {
	var out domain.Component
	if err := c.get(ctx, "/api/component", url.Values{"ref": {ref}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Manager(ctx context.Context, ref string) (*domain.Manager, error) {
	var out domain.Manager
	if err := c.get(ctx, "/api/manager", url.Values{"ref": {ref}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Connect(ctx context.Context, req ConnectRequest) (*domain.Connector, error) {
	var out domain.Connector
	if err := c.post(ctx, "/api/connect", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Disconnect(ctx context.Context, port domain.PortRef, id string) error {
	return c.post(ctx, "/api/disconnect", DisconnectRequest{Port: port, ID: id}, nil)
}

func (c *Client) SetParameter(ctx context.Context, ref, set, param, value string) error {
	return c.post(ctx, "/api/config/param", ParameterRequest{Ref: ref, Set: set, Param: param, Value: value}, nil)
}

func (c *Client) ActivateConfigSet(ctx context.Context, ref, set string) error {
	return c.post(ctx, "/api/config/activate", ConfigSetRequest{Ref: ref, Set: set}, nil)
}

func (c *Client) ChangeState(ctx context.Context, ref string, ec int, t domain.Transition) error {
	return c.post(ctx, "/api/state", StateRequest{Ref: ref, EC: ec, Transition: t}, nil)
}

func (c *Client) Exit(ctx context.Context, ref string) error {
	return c.post(ctx, "/api/exit", RefRequest{Ref: ref}, nil)
}

func (c *Client) Unbind(ctx context.Context, ref string) error {
	return c.post(ctx, "/api/unbind", RefRequest{Ref: ref}, nil)
}

func (c *Client) LoadModule(ctx context.Context, manager, path, initFunc string) error {
	return c.post(ctx, "/api/manager/load", ModuleRequest{Manager: manager, Path: path, InitFunc: initFunc}, nil)
}

func (c *Client) UnloadModule(ctx context.Context, manager, path string) error {
	return c.post(ctx, "/api/manager/unload", ModuleRequest{Manager: manager, Path: path}, nil)
}

func (c *Client) CreateComponent(ctx context.Context, manager, typeName string) (string, error) {
	var out CreateResponse
	if err := c.post(ctx, "/api/manager/create", CreateRequest{Manager: manager, Type: typeName}, &out); err != nil {
		return "", err
	}
	return out.Ref, nil
}

func (c *Client) DeleteComponent(ctx context.Context, manager, instanceName string) error {
	return c.post(ctx, "/api/manager/delete", DeleteRequest{Manager: manager, Instance: instanceName}, nil)
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", zap.String("url", req.URL.String()), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError turns an error document back into the matching remote sentinel
func decodeError(resp *http.Response) error {
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("name server returned HTTP %d", resp.StatusCode)
	}
	if domain.SentinelForCode(body.Code) != nil {
		return &domain.RemoteError{Code: body.Code, Message: body.Error}
	}
	return fmt.Errorf("name server returned HTTP %d: %s", resp.StatusCode, body.Error)
}
