package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Observation is one liveness result reported by a discovery adapter
type Observation struct {
	Ref   string
	Alive bool
}

// LivenessRegistry is the registry surface needed for reconciliation
type LivenessRegistry interface {
	Endpoints() []EndpointStatus
	Heartbeat(ctx context.Context, ref string) error
	MarkDefunct(ctx context.Context, ref string) error
}

// ReconcileService applies adapter observations to the registry
type ReconcileService struct {
	reg    LivenessRegistry
	logger *zap.Logger
}

// NewReconcileService creates a new reconcile service
func NewReconcileService(reg LivenessRegistry, logger *zap.Logger) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileService{reg: reg, logger: logger}
}

// Reconcile updates liveness for every observation that disagrees with the
// registry and returns the number of objects that changed. Observations for
// refs without a registered endpoint are ignored.
func (r *ReconcileService) Reconcile(ctx context.Context, source string, obs []Observation) (int, error) {
	known := make(map[string]bool)
	for _, ep := range r.reg.Endpoints() {
		known[ep.Ref] = ep.Alive
	}

	changed := 0
	var firstErr error
	for _, o := range obs {
		alive, ok := known[o.Ref]
		if !ok {
			r.logger.Debug("observation for unknown endpoint", zap.String("source", source), zap.String("ref", o.Ref))
			continue
		}
		if alive == o.Alive {
			continue
		}

		var err error
		if o.Alive {
			err = r.reg.Heartbeat(ctx, o.Ref)
		} else {
			err = r.reg.MarkDefunct(ctx, o.Ref)
		}
		if err != nil {
			r.logger.Warn("failed to reconcile liveness", zap.String("ref", o.Ref), zap.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("reconcile %s: %w", o.Ref, err)
			}
			continue
		}
		changed++
	}

	if changed > 0 {
		r.logger.Info("reconciled liveness", zap.String("source", source), zap.Int("changed", changed))
	}
	return changed, firstErr
}
