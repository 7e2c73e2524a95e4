package action

import (
	"context"

	"go.uber.org/zap"

	"rtshell/internal/domain"
	"rtshell/internal/resolver"
	"rtshell/internal/rterror"
	"rtshell/internal/tree"
)

// ChangeState sends a lifecycle transition to a component in execution context ec
func (x *Executor) ChangeState(ctx context.Context, comp *resolver.Resolved, ec int, t domain.Transition) error {
	if err := requireKind(comp, tree.KindComponent); err != nil {
		return err
	}
	svc, err := x.service(ctx, comp.Node)
	if err != nil {
		return err
	}
	x.logger.Debug("changing state",
		zap.String("path", comp.FullPath),
		zap.Int("ec", ec),
		zap.String("transition", string(t)))
	return remote(svc.ChangeState(ctx, comp.Node.Ref, ec, t), comp.FullPath)
}

// State returns the component's state in execution context ec
func (x *Executor) State(ctx context.Context, comp *resolver.Resolved, ec int) (domain.ExecState, error) {
	if err := requireKind(comp, tree.KindComponent); err != nil {
		return "", err
	}
	profile, err := x.tree.Component(ctx, comp.Node)
	if err != nil {
		return "", err
	}
	return profile.State(ec), nil
}

// Exit terminates a component, leaving a zombie binding behind
func (x *Executor) Exit(ctx context.Context, comp *resolver.Resolved) error {
	if err := requireKind(comp, tree.KindComponent); err != nil {
		return err
	}
	svc, err := x.service(ctx, comp.Node)
	if err != nil {
		return err
	}
	return remote(svc.Exit(ctx, comp.Node.Ref), comp.FullPath)
}

// Delete unbinds an object or naming context. Name servers, the root and
// ports cannot be deleted, nor can components reached through a manager.
func (x *Executor) Delete(ctx context.Context, obj *resolver.Resolved) error {
	n := obj.Node
	switch {
	case obj.Kind == tree.KindPort, n.IsRoot(), n.NameServer:
		return rterror.New(rterror.UndeletableObject, obj.FullPath)
	case n.Parent() != nil && n.Parent().Kind == tree.KindManager:
		return rterror.New(rterror.ParentNotADirectory, obj.FullPath)
	}
	svc, err := x.service(ctx, n)
	if err != nil {
		return err
	}
	if err := remote(svc.Unbind(ctx, n.Ref), obj.FullPath); err != nil {
		return err
	}
	if p := n.Parent(); p != nil {
		x.tree.Invalidate(p)
	}
	return nil
}
