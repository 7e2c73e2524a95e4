package action

import (
	"context"
	"errors"

	"rtshell/internal/domain"
	"rtshell/internal/resolver"
	"rtshell/internal/rterror"
	"rtshell/internal/tree"
)

// LoadModule loads a shared module into a manager using initFunc
func (x *Executor) LoadModule(ctx context.Context, mgr *resolver.Resolved, path, initFunc string) error {
	if err := requireKind(mgr, tree.KindManager); err != nil {
		return err
	}
	if initFunc == "" {
		return rterror.New(rterror.NoInitFunction)
	}
	svc, err := x.service(ctx, mgr.Node)
	if err != nil {
		return err
	}
	return managerError(svc.LoadModule(ctx, mgr.Node.Ref, path, initFunc), mgr.FullPath)
}

// UnloadModule unloads a module from a manager
func (x *Executor) UnloadModule(ctx context.Context, mgr *resolver.Resolved, path string) error {
	if err := requireKind(mgr, tree.KindManager); err != nil {
		return err
	}
	svc, err := x.service(ctx, mgr.Node)
	if err != nil {
		return err
	}
	return managerError(svc.UnloadModule(ctx, mgr.Node.Ref, path), mgr.FullPath)
}

// CreateComponent instantiates a component type on a manager and returns
// the new object's reference
func (x *Executor) CreateComponent(ctx context.Context, mgr *resolver.Resolved, typeName string) (string, error) {
	if err := requireKind(mgr, tree.KindManager); err != nil {
		return "", err
	}
	svc, err := x.service(ctx, mgr.Node)
	if err != nil {
		return "", err
	}
	ref, err := svc.CreateComponent(ctx, mgr.Node.Ref, typeName)
	if err != nil {
		return "", managerError(err, mgr.FullPath)
	}
	x.tree.Invalidate(mgr.Node)
	return ref, nil
}

// DeleteComponent removes a component owned by a manager
func (x *Executor) DeleteComponent(ctx context.Context, mgr *resolver.Resolved, instanceName string) error {
	if err := requireKind(mgr, tree.KindManager); err != nil {
		return err
	}
	svc, err := x.service(ctx, mgr.Node)
	if err != nil {
		return err
	}
	if err := svc.DeleteComponent(ctx, mgr.Node.Ref, instanceName); err != nil {
		return managerError(err, mgr.FullPath)
	}
	x.tree.Invalidate(mgr.Node)
	return nil
}

func managerError(err error, p string) error {
	if errors.Is(err, domain.ErrNotManager) {
		return rterror.Wrap(rterror.NotAManager, err, p)
	}
	return remote(err, p)
}
