package shell

import (
	"context"

	"go.uber.org/zap"

	"rtshell/internal/resolver"
	"rtshell/internal/rterror"
	"rtshell/internal/tree"
)

// ManagerOptions are the operations Manager performs, in the order load,
// create, delete, unload
type ManagerOptions struct {
	// Load is the path of a module to load with Init as its entry point
	Load string
	Init string
	// Create is a component type to instantiate
	Create string
	// Delete is the instance name of a component to remove
	Delete string
	// Unload is the path of a module to unload
	Unload string
}

// Manager runs module and component operations on the manager at raw
func (s *Shell) Manager(ctx context.Context, raw string, opts ManagerOptions) error {
	addr, mgr, err := s.resolve(ctx, raw, resolver.Options{})
	if err != nil {
		return remap(err, addr, rterror.NotAComponent, rterror.NotAManager)
	}
	if mgr.Kind != tree.KindManager {
		return rterror.New(rterror.NotAManager, addr.Raw)
	}

	if opts.Load != "" {
		if err := s.exec.LoadModule(ctx, mgr, opts.Load, opts.Init); err != nil {
			return err
		}
	}
	if opts.Create != "" {
		ref, err := s.exec.CreateComponent(ctx, mgr, opts.Create)
		if err != nil {
			return err
		}
		s.logger.Debug("created component", zap.String("manager", mgr.FullPath), zap.String("ref", ref))
	}
	if opts.Delete != "" {
		if err := s.exec.DeleteComponent(ctx, mgr, opts.Delete); err != nil {
			return err
		}
	}
	if opts.Unload != "" {
		if err := s.exec.UnloadModule(ctx, mgr, opts.Unload); err != nil {
			return err
		}
	}
	return nil
}
