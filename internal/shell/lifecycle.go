package shell

import (
	"context"

	"rtshell/internal/domain"
	"rtshell/internal/rterror"
)

// Activate activates each component in execution context ec
func (s *Shell) Activate(ctx context.Context, paths []string, ec int) error {
	return s.transition(ctx, paths, ec, domain.TransitionActivate)
}

// Deactivate deactivates each component in execution context ec
func (s *Shell) Deactivate(ctx context.Context, paths []string, ec int) error {
	return s.transition(ctx, paths, ec, domain.TransitionDeactivate)
}

// Reset resets each component out of the error state in execution context ec
func (s *Shell) Reset(ctx context.Context, paths []string, ec int) error {
	return s.transition(ctx, paths, ec, domain.TransitionReset)
}

func (s *Shell) transition(ctx context.Context, paths []string, ec int, t domain.Transition) error {
	if len(paths) == 0 {
		return rterror.New(rterror.NoComponentSpecified)
	}
	for _, p := range paths {
		comp, err := s.component(ctx, p)
		if err != nil {
			return err
		}
		if err := s.exec.ChangeState(ctx, comp, ec, t); err != nil {
			return err
		}
	}
	return nil
}

// Exit terminates each component. The bindings stay behind as zombies.
func (s *Shell) Exit(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return rterror.New(rterror.NoComponentSpecified)
	}
	for _, p := range paths {
		comp, err := s.component(ctx, p)
		if err != nil {
			return err
		}
		if err := s.exec.Exit(ctx, comp); err != nil {
			return err
		}
	}
	return nil
}
