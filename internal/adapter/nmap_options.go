package adapter

import (
	"time"

	"go.uber.org/zap"
)

// NmapOption is a functional option for configuring NameServerScanner
type NmapOption func(*NameServerScanner)

// WithTimeout sets the timeout for one whole scan
func WithTimeout(d time.Duration) NmapOption {
	return func(n *NameServerScanner) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithPortRange sets the ports to scan. Invalid ranges are ignored.
// Format: "2809" or "2809-2811" or "2809,15005"
func WithPortRange(ports string) NmapOption {
	return func(n *NameServerScanner) {
		if validated, err := parsePorts(ports); err == nil {
			n.portRange = validated
		}
	}
}

// WithSkipHostDiscovery sets whether to skip ping and treat all hosts as online (-Pn)
func WithSkipHostDiscovery(skip bool) NmapOption {
	return func(n *NameServerScanner) {
		n.skipHostDiscovery = skip
	}
}

// WithTargets sets or replaces the target list
func WithTargets(targets []string) NmapOption {
	return func(n *NameServerScanner) {
		n.targets = targets
	}
}

// WithLogger sets the scanner's logger
func WithLogger(l *zap.Logger) NmapOption {
	return func(n *NameServerScanner) {
		if l != nil {
			n.logger = l
		}
	}
}
