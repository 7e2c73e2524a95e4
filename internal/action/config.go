package action

import (
	"context"
	"errors"

	"rtshell/internal/domain"
	"rtshell/internal/resolver"
	"rtshell/internal/rterror"
	"rtshell/internal/tree"
)

// ConfigSets returns the configuration sets of a component visible under
// allowHidden, and the id of the active set
func (x *Executor) ConfigSets(ctx context.Context, comp *resolver.Resolved, allowHidden bool) ([]domain.ConfigSet, string, error) {
	profile, err := x.profile(ctx, comp)
	if err != nil {
		return nil, "", err
	}
	return profile.VisibleConfigSets(allowHidden), profile.ActiveConfigSet, nil
}

// ConfigSet returns one configuration set. An empty id selects the active set.
func (x *Executor) ConfigSet(ctx context.Context, comp *resolver.Resolved, id string, allowHidden bool) (*domain.ConfigSet, error) {
	profile, err := x.profile(ctx, comp)
	if err != nil {
		return nil, err
	}
	return lookupSet(profile, id, allowHidden)
}

// GetParameter reads a parameter from a configuration set
func (x *Executor) GetParameter(ctx context.Context, comp *resolver.Resolved, set, param string, allowHidden bool) (string, error) {
	s, err := x.ConfigSet(ctx, comp, set, allowHidden)
	if err != nil {
		return "", err
	}
	v, ok := s.Get(param)
	if !ok {
		return "", rterror.New(rterror.NoSuchConfigurationParameter, param)
	}
	return v, nil
}

// SetParameter changes a parameter in a configuration set
func (x *Executor) SetParameter(ctx context.Context, comp *resolver.Resolved, set, param, value string, allowHidden bool) error {
	s, err := x.ConfigSet(ctx, comp, set, allowHidden)
	if err != nil {
		return err
	}
	if _, ok := s.Get(param); !ok {
		return rterror.New(rterror.NoSuchConfigurationParameter, param)
	}
	svc, err := x.service(ctx, comp.Node)
	if err != nil {
		return err
	}
	return configError(svc.SetParameter(ctx, comp.Node.Ref, s.ID, param, value), s.ID, param, comp.FullPath)
}

// ActivateConfigSet makes a configuration set active
func (x *Executor) ActivateConfigSet(ctx context.Context, comp *resolver.Resolved, set string, allowHidden bool) error {
	profile, err := x.profile(ctx, comp)
	if err != nil {
		return err
	}
	if _, err := lookupSet(profile, set, allowHidden); err != nil {
		return err
	}
	svc, err := x.service(ctx, comp.Node)
	if err != nil {
		return err
	}
	return configError(svc.ActivateConfigSet(ctx, comp.Node.Ref, set), set, "", comp.FullPath)
}

func (x *Executor) profile(ctx context.Context, comp *resolver.Resolved) (*domain.Component, error) {
	if err := requireKind(comp, tree.KindComponent); err != nil {
		return nil, err
	}
	return x.tree.Component(ctx, comp.Node)
}

func lookupSet(profile *domain.Component, id string, allowHidden bool) (*domain.ConfigSet, error) {
	if id == "" {
		id = profile.ActiveConfigSet
	}
	s := profile.ConfigSet(id)
	if s == nil || (s.Hidden() && !allowHidden) {
		return nil, rterror.New(rterror.NoSuchConfigurationSet, id)
	}
	return s, nil
}

func configError(err error, set, param, p string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNoSuchSet):
		return rterror.Wrap(rterror.NoSuchConfigurationSet, err, set)
	case errors.Is(err, domain.ErrNoSuchParameter):
		return rterror.Wrap(rterror.NoSuchConfigurationParameter, err, param)
	}
	return remote(err, p)
}
