// Package action executes operations on resolved tree nodes.
//
// Executors never take raw paths: callers resolve first and pass the
// resolver's result. Failures from the component framework are surfaced as
// rterror.Remote with the framework's message and are never retried.
package action

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"rtshell/internal/domain"
	"rtshell/internal/naming"
	"rtshell/internal/resolver"
	"rtshell/internal/rterror"
	"rtshell/internal/tree"
)

// Executor performs remote operations through a tree's name servers
type Executor struct {
	tree   *tree.Tree
	logger *zap.Logger
}

// NewExecutor creates an executor bound to t
func NewExecutor(t *tree.Tree, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{tree: t, logger: logger}
}

func (x *Executor) service(ctx context.Context, n *tree.Node) (naming.Service, error) {
	return x.tree.Service(ctx, n.Server)
}

func requireKind(r *resolver.Resolved, kind tree.Kind) error {
	if r.Kind == kind {
		return nil
	}
	switch kind {
	case tree.KindComponent:
		return rterror.New(rterror.NotAComponent, r.FullPath)
	case tree.KindManager:
		return rterror.New(rterror.NotAManager, r.FullPath)
	case tree.KindPort:
		return rterror.New(rterror.PortNotFound, r.FullPath)
	case tree.KindZombie:
		return rterror.New(rterror.NotAZombie, r.FullPath)
	}
	return fmt.Errorf("%s is a %s, not a %s", r.FullPath, r.Kind, kind)
}

// remote classifies an error returned by a mutation on the object at p
func remote(err error, p string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return rterror.Wrap(rterror.NoSuchObject, err, p)
	case errors.Is(err, domain.ErrDefunct):
		return rterror.Wrap(rterror.ZombieObject, err, p)
	case errors.Is(err, domain.ErrWrongPolarity):
		return rterror.Wrap(rterror.WrongPortPolarity, err)
	case domain.ErrorCode(err) != "":
		return rterror.Wrap(rterror.Remote, err, err.Error())
	case errors.Is(err, naming.ErrUnreachable):
		return rterror.Wrap(rterror.Unreachable, err, p)
	}
	return err
}
