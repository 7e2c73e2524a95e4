package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"rtshell/internal/domain"
	"rtshell/internal/loader"
	"rtshell/internal/naming"
	"rtshell/internal/repository"
)

// Registry is the naming service served over HTTP
type Registry interface {
	naming.Service
	Snapshot() *domain.Snapshot
	Heartbeat(ctx context.Context, ref string) error
}

// Journal gives read access to the registry event journal
type Journal interface {
	ListEvents(ctx context.Context, limit int) ([]repository.EventRecord, error)
}

// RegistryHandler handles naming service API requests
type RegistryHandler struct {
	reg     Registry
	journal Journal
	logger  *zap.Logger
}

// NewRegistryHandler creates a new registry handler
func NewRegistryHandler(reg Registry, logger *zap.Logger) *RegistryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistryHandler{reg: reg, logger: logger}
}

// SetJournal enables the journal endpoint
func (h *RegistryHandler) SetJournal(j Journal) {
	h.journal = j
}

// ErrorResponse is the error document returned by every endpoint
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Routes registers the API on mux
func (h *RegistryHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/list", h.List)
	mux.HandleFunc("GET /api/probe", h.Probe)
	mux.HandleFunc("GET /api/component", h.GetComponent)
	mux.HandleFunc("GET /api/manager", h.GetManager)

	mux.HandleFunc("POST /api/connect", h.Connect)
	mux.HandleFunc("POST /api/disconnect", h.Disconnect)
	mux.HandleFunc("POST /api/config/param", h.SetParameter)
	mux.HandleFunc("POST /api/config/activate", h.ActivateConfigSet)
	mux.HandleFunc("POST /api/state", h.ChangeState)
	mux.HandleFunc("POST /api/exit", h.Exit)
	mux.HandleFunc("POST /api/unbind", h.Unbind)

	mux.HandleFunc("POST /api/manager/load", h.LoadModule)
	mux.HandleFunc("POST /api/manager/unload", h.UnloadModule)
	mux.HandleFunc("POST /api/manager/create", h.CreateComponent)
	mux.HandleFunc("POST /api/manager/delete", h.DeleteComponent)

	mux.HandleFunc("POST /api/heartbeat", h.Heartbeat)
	mux.HandleFunc("GET /api/snapshot", h.GetSnapshot)
	mux.HandleFunc("GET /api/journal", h.GetJournal)
	mux.HandleFunc("GET /health", h.Health)
}

// List returns the bindings of a naming context
func (h *RegistryHandler) List(w http.ResponseWriter, r *http.Request) {
	bindings, err := h.reg.List(r.Context(), queryOr(r, "dir", "/"))
	if err != nil {
		h.writeRemoteError(w, err)
		return
	}
	h.writeJSON(w, bindings, http.StatusOK)
}

// Probe reports what kind of live object a reference points at
func (h *RegistryHandler) Probe(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.requireQuery(w, r, "ref")
	if !ok {
		return
	}
	kind, err := h.reg.Probe(r.Context(), ref)
	if err != nil {
		h.writeRemoteError(w, err)
		return
	}
	h.writeJSON(w, naming.ProbeResponse{Kind: kind}, http.StatusOK)
}

// GetComponent returns a component profile
func (h *RegistryHandler) GetComponent(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.requireQuery(w, r, "ref")
	if !ok {
		return
	}
	comp, err := h.reg.Component(r.Context(), ref)
	if err != nil {
		h.writeRemoteError(w, err)
		return
	}
	h.writeJSON(w, comp, http.StatusOK)
}

// GetManager returns a manager profile
func (h *RegistryHandler) GetManager(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.requireQuery(w, r, "ref")
	if !ok {
		return
	}
	mgr, err := h.reg.Manager(r.Context(), ref)
	if err != nil {
		h.writeRemoteError(w, err)
		return
	}
	h.writeJSON(w, mgr, http.StatusOK)
}

// Connect creates a connector
func (h *RegistryHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req naming.ConnectRequest
	if !h.decode(w, r, &req) {
		return
	}
	conn, err := h.reg.Connect(r.Context(), req)
	if err != nil {
		h.writeRemoteError(w, err)
		return
	}
	h.writeJSON(w, conn, http.StatusCreated)
}

// Disconnect removes a connector
func (h *RegistryHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	var req naming.DisconnectRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeResult(w, h.reg.Disconnect(r.Context(), req.Port, req.ID))
}

// SetParameter changes a configuration parameter
func (h *RegistryHandler) SetParameter(w http.ResponseWriter, r *http.Request) {
	var req naming.ParameterRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeResult(w, h.reg.SetParameter(r.Context(), req.Ref, req.Set, req.Param, req.Value))
}

// ActivateConfigSet changes the active configuration set
func (h *RegistryHandler) ActivateConfigSet(w http.ResponseWriter, r *http.Request) {
	var req naming.ConfigSetRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeResult(w, h.reg.ActivateConfigSet(r.Context(), req.Ref, req.Set))
}

// ChangeState applies a lifecycle transition
func (h *RegistryHandler) ChangeState(w http.ResponseWriter, r *http.Request) {
	var req naming.StateRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeResult(w, h.reg.ChangeState(r.Context(), req.Ref, req.EC, req.Transition))
}

// Exit terminates an object
func (h *RegistryHandler) Exit(w http.ResponseWriter, r *http.Request) {
	var req naming.RefRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeResult(w, h.reg.Exit(r.Context(), req.Ref))
}

// Unbind removes a binding
func (h *RegistryHandler) Unbind(w http.ResponseWriter, r *http.Request) {
	var req naming.RefRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeResult(w, h.reg.Unbind(r.Context(), req.Ref))
}

// LoadModule loads a module into a manager
func (h *RegistryHandler) LoadModule(w http.ResponseWriter, r *http.Request) {
	var req naming.ModuleRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeResult(w, h.reg.LoadModule(r.Context(), req.Manager, req.Path, req.InitFunc))
}

// UnloadModule unloads a module from a manager
func (h *RegistryHandler) UnloadModule(w http.ResponseWriter, r *http.Request) {
	var req naming.ModuleRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeResult(w, h.reg.UnloadModule(r.Context(), req.Manager, req.Path))
}

// CreateComponent instantiates a component in a manager
func (h *RegistryHandler) CreateComponent(w http.ResponseWriter, r *http.Request) {
	var req naming.CreateRequest
	if !h.decode(w, r, &req) {
		return
	}
	ref, err := h.reg.CreateComponent(r.Context(), req.Manager, req.Type)
	if err != nil {
		h.writeRemoteError(w, err)
		return
	}
	h.writeJSON(w, naming.CreateResponse{Ref: ref}, http.StatusCreated)
}

// DeleteComponent removes a component from a manager
func (h *RegistryHandler) DeleteComponent(w http.ResponseWriter, r *http.Request) {
	var req naming.DeleteRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeResult(w, h.reg.DeleteComponent(r.Context(), req.Manager, req.Instance))
}

// Heartbeat marks an object alive
func (h *RegistryHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var req naming.RefRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeResult(w, h.reg.Heartbeat(r.Context(), req.Ref))
}

// GetSnapshot returns the whole registry, as JSON or as a seed document with format=yaml
func (h *RegistryHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.reg.Snapshot()
	if r.URL.Query().Get("format") != "yaml" {
		h.writeJSON(w, snap, http.StatusOK)
		return
	}

	data, err := loader.ExportYAML(snap)
	if err != nil {
		h.logger.Error("failed to export snapshot", zap.Error(err))
		h.writeError(w, "failed to export snapshot", "", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Content-Disposition", "attachment; filename=seed.yaml")
	if _, err := w.Write(data); err != nil {
		h.logger.Debug("failed to write snapshot", zap.Error(err))
	}
}

// GetJournal returns recent registry events
func (h *RegistryHandler) GetJournal(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		h.writeError(w, "journal not enabled", "", http.StatusNotFound)
		return
	}
	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			h.writeError(w, "invalid limit", domain.ErrBadRequest.Code, http.StatusBadRequest)
			return
		}
		limit = n
	}
	events, err := h.journal.ListEvents(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list events", zap.Error(err))
		h.writeError(w, "failed to list events", "", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []repository.EventRecord{}
	}
	h.writeJSON(w, events, http.StatusOK)
}

// Health reports liveness and registry size
func (h *RegistryHandler) Health(w http.ResponseWriter, r *http.Request) {
	contexts, components, zombies := h.reg.Snapshot().Stats()
	h.writeJSON(w, map[string]any{
		"status":     "ok",
		"contexts":   contexts,
		"components": components,
		"zombies":    zombies,
	}, http.StatusOK)
}

// Helper methods

func queryOr(r *http.Request, key, def string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return def
}

func (h *RegistryHandler) requireQuery(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		h.writeError(w, key+" is required", domain.ErrBadRequest.Code, http.StatusBadRequest)
		return "", false
	}
	return v, true
}

func (h *RegistryHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, "invalid request body: "+err.Error(), domain.ErrBadRequest.Code, http.StatusBadRequest)
		return false
	}
	return true
}

func (h *RegistryHandler) writeResult(w http.ResponseWriter, err error) {
	if err != nil {
		h.writeRemoteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusForCode maps remote error codes to HTTP statuses
func statusForCode(code string) int {
	switch code {
	case domain.ErrNotFound.Code, domain.ErrPortNotFound.Code, domain.ErrNoSuchSet.Code,
		domain.ErrNoSuchParameter.Code, domain.ErrNoSuchContext.Code, domain.ErrNotConnected.Code:
		return http.StatusNotFound
	case domain.ErrDefunct.Code:
		return http.StatusGone
	case domain.ErrNotComponent.Code, domain.ErrNotManager.Code, domain.ErrNotContext.Code,
		domain.ErrWrongPolarity.Code, domain.ErrPrecondition.Code:
		return http.StatusConflict
	case domain.ErrBadModule.Code, domain.ErrBadRequest.Code:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *RegistryHandler) writeRemoteError(w http.ResponseWriter, err error) {
	code := domain.ErrorCode(err)
	status := statusForCode(code)
	if code == "" && errors.Is(err, context.Canceled) {
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError && code == "" {
		h.logger.Error("request failed", zap.Error(err))
	}
	h.writeError(w, err.Error(), code, status)
}

func (h *RegistryHandler) writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("failed to encode JSON", zap.Error(err))
	}
}

func (h *RegistryHandler) writeError(w http.ResponseWriter, msg, code string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg, Code: code}); err != nil {
		h.logger.Warn("failed to encode error response", zap.Error(err))
	}
}
