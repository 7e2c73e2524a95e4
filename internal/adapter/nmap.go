package adapter

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
	"go.uber.org/zap"
)

// DefaultNamingPort is the port name servers listen on
const DefaultNamingPort = 2809

// NameServerScanner uses nmap to find hosts with the naming port open
type NameServerScanner struct {
	targets           []string
	timeout           time.Duration
	portRange         string
	skipHostDiscovery bool
	publisher         EventPublisher
	logger            *zap.Logger
	mu                sync.Mutex
	running           bool
}

// NewNameServerScanner creates a new nmap-based scanner.
// targets: list of CIDR ranges or individual hosts to scan
func NewNameServerScanner(targets []string, opts ...NmapOption) *NameServerScanner {
	s := &NameServerScanner{
		targets:   targets,
		timeout:   5 * time.Minute,
		portRange: strconv.Itoa(DefaultNamingPort),
		logger:    zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SetEventPublisher sets the event publisher for progress updates
func (n *NameServerScanner) SetEventPublisher(pub EventPublisher) {
	n.publisher = pub
}

func (n *NameServerScanner) publishProgress(eventType string, payload map[string]string) {
	if n.publisher != nil {
		n.publisher.PublishDiscoveryEvent(eventType, payload)
	}
}

// Name returns the adapter identifier
func (n *NameServerScanner) Name() string {
	return "nmap"
}

// Type returns the adapter type
func (n *NameServerScanner) Type() AdapterType {
	return AdapterTypePolling
}

// Start checks that nmap is usable
func (n *NameServerScanner) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.isNmapAvailable(ctx) {
		return fmt.Errorf("nmap binary not found in PATH")
	}

	n.running = true
	n.logger.Info("nmap scanner started",
		zap.Strings("targets", n.targets),
		zap.String("ports", n.portRange))
	return nil
}

// Stop shuts down the adapter
func (n *NameServerScanner) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.running = false
	return nil
}

// Sync runs a scan and returns the name servers found
func (n *NameServerScanner) Sync(ctx context.Context) (*Fragment, error) {
	n.mu.Lock()
	running := n.running
	n.mu.Unlock()
	if !running {
		return nil, fmt.Errorf("adapter not running")
	}

	servers, err := n.Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &Fragment{Servers: servers}, nil
}

// Scan scans every target once. Targets that fail are logged and skipped.
func (n *NameServerScanner) Scan(ctx context.Context) ([]Server, error) {
	if len(n.targets) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	n.publishProgress("discovery-started", map[string]string{
		"total":   strconv.Itoa(len(n.targets)),
		"message": fmt.Sprintf("Starting nmap scan of %d targets", len(n.targets)),
	})

	var servers []Server
	var lastErr error
	for _, target := range n.targets {
		found, err := n.scanTarget(ctx, target)
		if err != nil {
			n.logger.Warn("nmap scan failed", zap.String("target", target), zap.Error(err))
			lastErr = err
			continue
		}
		servers = append(servers, found...)
	}

	n.publishProgress("discovery-complete", map[string]string{
		"total":      strconv.Itoa(len(n.targets)),
		"discovered": strconv.Itoa(len(servers)),
	})

	if len(servers) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return servers, nil
}

// isNmapAvailable checks if nmap binary exists
func (n *NameServerScanner) isNmapAvailable(ctx context.Context) bool {
	scanner, err := nmap.NewScanner(
		ctx,
		nmap.WithTargets("localhost"),
		nmap.WithListScan(),
	)
	if err != nil {
		return false
	}
	_, _, err = scanner.Run()
	return err == nil
}

func (n *NameServerScanner) scanTarget(ctx context.Context, target string) ([]Server, error) {
	opts := []nmap.Option{
		nmap.WithTargets(target),
		nmap.WithPorts(n.portRange),
	}
	if n.skipHostDiscovery {
		opts = append(opts, nmap.WithSkipHostDiscovery())
	}

	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	n.logger.Debug("nmap scanning", zap.String("target", target))
	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	if warnings != nil && len(*warnings) > 0 {
		n.logger.Debug("nmap warnings", zap.String("target", target), zap.Strings("warnings", *warnings))
	}

	return processResults(result)
}

// processResults picks the hosts that are up with an open naming port
func processResults(result *nmap.Run) ([]Server, error) {
	if result == nil {
		return nil, fmt.Errorf("nil scan result")
	}

	var servers []Server
	for _, host := range result.Hosts {
		if len(host.Addresses) == 0 || host.Status.State != "up" {
			continue
		}

		var ip string
		for _, addr := range host.Addresses {
			if addr.AddrType == "ipv4" {
				ip = addr.Addr
				break
			}
		}
		if ip == "" {
			ip = host.Addresses[0].Addr
		}

		var hostname string
		if len(host.Hostnames) > 0 {
			hostname = host.Hostnames[0].Name
		}

		for _, port := range host.Ports {
			if port.State.State != "open" {
				continue
			}
			servers = append(servers, Server{Host: ip, Port: int(port.ID), Hostname: hostname})
		}
	}
	return servers, nil
}

// Address renders the server in the form accepted by RTCTREE_NAMESERVERS.
// The default port is omitted.
func (s Server) Address() string {
	if s.Port == 0 || s.Port == DefaultNamingPort {
		return s.Host
	}
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ParseTargets validates CIDR targets, leaving hosts as they are
func ParseTargets(targets []string) ([]string, error) {
	var expanded []string
	for _, target := range targets {
		if strings.Contains(target, "/") {
			_, ipNet, err := net.ParseCIDR(target)
			if err != nil {
				return nil, fmt.Errorf("invalid CIDR %s: %w", target, err)
			}
			expanded = append(expanded, ipNet.String())
		} else {
			expanded = append(expanded, target)
		}
	}
	return expanded, nil
}

// parsePorts validates a port range string.
// Supported: "80,443,8080" or "1-1000" or "22,80-443,8080"
func parsePorts(portRange string) (string, error) {
	parts := strings.Split(portRange, ",")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if strings.Contains(part, "-") {
			rangeParts := strings.Split(part, "-")
			if len(rangeParts) != 2 {
				return "", fmt.Errorf("invalid port range: %s", part)
			}
			start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
			if err != nil || start < 1 || start > 65535 {
				return "", fmt.Errorf("invalid port number: %s", rangeParts[0])
			}
			end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
			if err != nil || end < 1 || end > 65535 || end < start {
				return "", fmt.Errorf("invalid port number: %s", rangeParts[1])
			}
		} else {
			port, err := strconv.Atoi(part)
			if err != nil || port < 1 || port > 65535 {
				return "", fmt.Errorf("invalid port number: %s", part)
			}
		}
	}
	return portRange, nil
}
