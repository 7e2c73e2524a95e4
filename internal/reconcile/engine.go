// Package reconcile compares a system profile with the live tree and brings
// the two together.
//
// A run has three steps. Plan turns the profile into a flat list of actions
// for one command, ordered by phase: disconnects, checks, wiring,
// configuration and finally lifecycle changes. In a dry run the plan is
// rendered one line per action and nothing else happens. Otherwise each
// action resolves its paths against the tree and executes in order.
//
// What a failure does depends on the command's Policy. Provisioning commands
// stop at the first failing required action, verification reports every
// discrepancy, and stop and teardown treat every action as optional.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"rtshell/internal/action"
	"rtshell/internal/domain"
	"rtshell/internal/profile"
	"rtshell/internal/resolver"
	"rtshell/internal/rterror"
	"rtshell/internal/tree"
)

// Engine executes plans against a live tree
type Engine struct {
	tree   *tree.Tree
	exec   *action.Executor
	logger *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine's logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine over t
func New(t *tree.Tree, opts ...Option) *Engine {
	e := &Engine{tree: t, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	e.exec = action.NewExecutor(t, e.logger)
	return e
}

// RunOptions selects the mode of a run and where its text goes
type RunOptions struct {
	DryRun bool
	// Out receives the rendered plan in a dry run
	Out io.Writer
	// Err receives announcements and failure reports
	Err io.Writer
}

// Failure is an action that could not be carried out
type Failure struct {
	Action *Action
	Reason string
	Err    error
	// missing is set when the action's own component could not be found
	missing bool
}

func (f *Failure) Error() string {
	return f.Reason
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func fail(a *Action, err error, format string, args ...any) *Failure {
	return &Failure{Action: a, Reason: fmt.Sprintf(format, args...), Err: err}
}

// Run plans cmd for p and renders or executes the plan. It returns a
// RequiredActionFailed error when a required action aborted the run, and a
// Reported error when a verification run found discrepancies it has already
// written out.
func (e *Engine) Run(ctx context.Context, p *profile.Profile, cmd Command, opts RunOptions) error {
	pol, err := PolicyFor(cmd)
	if err != nil {
		return err
	}
	actions, err := Plan(p, cmd)
	if err != nil {
		return err
	}
	if opts.DryRun {
		for _, line := range Render(actions) {
			fmt.Fprintln(opts.Out, line)
		}
		return nil
	}
	if pol.Kinds[Connect] {
		actions = e.PruneConnected(ctx, actions)
	}
	return e.Execute(ctx, actions, pol, opts.Err)
}

// Execute runs actions in order under pol, writing announcements and
// failure reports to errw
func (e *Engine) Execute(ctx context.Context, actions []Action, pol Policy, errw io.Writer) error {
	failed := 0
	// verification reports a missing component once, not once per check on it
	missing := make(map[string]bool)
	for i := range actions {
		a := &actions[i]
		if pol.Verify && missing[a.Path] && a.Connector == nil {
			e.logger.Debug("skipping check of missing component", zap.Stringer("kind", a.Kind), zap.String("path", a.Path))
			continue
		}
		if pol.Announce && (a.Kind == Activate || a.Kind == Deactivate) {
			fmt.Fprintln(errw, a.Description())
		}
		e.logger.Debug("executing action", zap.Stringer("kind", a.Kind), zap.String("path", a.Path), zap.Bool("required", a.Required))

		err := e.execute(ctx, a)
		if err == nil {
			continue
		}
		var f *Failure
		if !errors.As(err, &f) {
			f = &Failure{Action: a, Reason: err.Error(), Err: err}
		}
		failed++
		e.logger.Debug("action failed", zap.Stringer("kind", a.Kind), zap.String("reason", f.Reason), zap.Error(f.Err))

		switch {
		case pol.Verify:
			if f.missing {
				missing[a.Path] = true
			}
			fmt.Fprintln(errw, f.Reason)
		case a.Required && pol.AbortOnRequired:
			return rterror.Wrap(rterror.RequiredActionFailed, f, f.Reason)
		default:
			fmt.Fprintln(errw, rterror.New(rterror.OptionalActionFailed, f.Reason).Error())
		}
	}
	if pol.Verify && failed > 0 {
		return rterror.New(rterror.Reported, fmt.Sprintf("%d checks failed", failed))
	}
	return nil
}

// PruneConnected drops Connect actions whose connector already joins the
// two ports under the same id. Actions whose ports cannot be resolved are
// kept so that execution reports them.
func (e *Engine) PruneConnected(ctx context.Context, actions []Action) []Action {
	out := actions[:0]
	for _, a := range actions {
		if a.Kind == Connect && e.connected(ctx, a.Connector) {
			e.logger.Debug("connector already present", zap.String("id", a.Connector.ID))
			continue
		}
		out = append(out, a)
	}
	return out
}

func (e *Engine) connected(ctx context.Context, c *profile.Connector) bool {
	src, err := e.resolve(ctx, c.Source.PortPath())
	if err != nil {
		return false
	}
	dst, err := e.resolve(ctx, c.Target.PortPath())
	if err != nil {
		return false
	}
	return len(e.exec.FindConnection(src, dst, c.ID)) > 0
}

type executor func(e *Engine, ctx context.Context, a *Action) error

var executors = map[Kind]executor{
	CheckComponent:    (*Engine).checkComponent,
	CheckPort:         (*Engine).checkPort,
	CheckConnection:   (*Engine).checkConnection,
	CheckState:        (*Engine).checkState,
	Connect:           (*Engine).connect,
	Disconnect:        (*Engine).disconnect,
	SetParameter:      (*Engine).setParameter,
	ActivateConfigSet: (*Engine).activateConfigSet,
	Activate:          (*Engine).changeState,
	Deactivate:        (*Engine).changeState,
}

func (e *Engine) execute(ctx context.Context, a *Action) error {
	fn, ok := executors[a.Kind]
	if !ok {
		return fmt.Errorf("no executor for %s", a.Kind)
	}
	return fn(e, ctx, a)
}

func (e *Engine) resolve(ctx context.Context, path string) (*resolver.Resolved, error) {
	return resolver.ResolvePath(ctx, e.tree, path, "/", resolver.Options{})
}

// component resolves an action's component, reporting a missing one
func (e *Engine) component(ctx context.Context, a *Action) (*resolver.Resolved, error) {
	res, err := e.resolve(ctx, a.Path)
	if err == nil && res.Kind == tree.KindComponent {
		return res, nil
	}
	format := "Component missing: %s"
	if a.Required {
		format = "Required component missing: %s"
	}
	f := fail(a, err, format, a.Path)
	f.missing = true
	return nil, f
}

func (e *Engine) checkComponent(ctx context.Context, a *Action) error {
	_, err := e.component(ctx, a)
	return err
}

func (e *Engine) checkPort(ctx context.Context, a *Action) error {
	comp, err := e.component(ctx, a)
	if err != nil {
		return err
	}
	live, err := e.tree.Component(ctx, comp.Node)
	if err != nil {
		return fail(a, err, "Component missing: %s", a.Path)
	}
	if live.Port(a.Port) != nil {
		return nil
	}
	if a.Required {
		return fail(a, nil, "Required port not found: %s", a.Port)
	}
	return fail(a, nil, "Port not found: %s", a.Port)
}

// endpoints resolves both ports of an action's connector
func (e *Engine) endpoints(ctx context.Context, a *Action) (src, dst *resolver.Resolved, err error) {
	c := a.Connector
	end := func(ep profile.Endpoint, role string) (*resolver.Resolved, error) {
		comp, err := e.resolve(ctx, ep.Path())
		if err != nil || comp.Kind != tree.KindComponent {
			return nil, fail(a, err, "%s component missing: %s", role, ep.Path())
		}
		port, err := e.resolve(ctx, ep.PortPath())
		if err != nil {
			return nil, fail(a, err, "%s port missing: %s", role, ep.PortPath())
		}
		return port, nil
	}
	if src, err = end(c.Source, "Source"); err != nil {
		return nil, nil, err
	}
	if dst, err = end(c.Target, "Destination"); err != nil {
		return nil, nil, err
	}
	return src, dst, nil
}

func (e *Engine) checkConnection(ctx context.Context, a *Action) error {
	src, dst, err := e.endpoints(ctx, a)
	if err != nil {
		return err
	}
	if len(e.exec.FindConnection(src, dst, a.Connector.ID)) == 0 {
		return fail(a, nil, "No connection between %s and %s", src.FullPath, dst.FullPath)
	}
	return nil
}

func (e *Engine) connect(ctx context.Context, a *Action) error {
	src, dst, err := e.endpoints(ctx, a)
	if err != nil {
		return err
	}
	_, _, err = e.exec.Connect(ctx, src, dst, action.ConnectOptions{
		ID:         a.Connector.ID,
		Name:       a.Connector.Name,
		Properties: a.Connector.Properties,
	})
	return err
}

func (e *Engine) disconnect(ctx context.Context, a *Action) error {
	src, dst, err := e.endpoints(ctx, a)
	if err != nil {
		return err
	}
	return e.exec.Disconnect(ctx, src, dst, a.Connector.ID)
}

func (e *Engine) setParameter(ctx context.Context, a *Action) error {
	comp, err := e.component(ctx, a)
	if err != nil {
		return err
	}
	return e.exec.SetParameter(ctx, comp, a.Set, a.Param, a.Value, true)
}

func (e *Engine) activateConfigSet(ctx context.Context, a *Action) error {
	comp, err := e.component(ctx, a)
	if err != nil {
		return err
	}
	return e.exec.ActivateConfigSet(ctx, comp, a.Set, true)
}

func (e *Engine) changeState(ctx context.Context, a *Action) error {
	comp, err := e.component(ctx, a)
	if err != nil {
		return err
	}
	t := domain.TransitionDeactivate
	if a.Kind == Activate {
		t = domain.TransitionActivate
	}
	return e.exec.ChangeState(ctx, comp, a.EC, t)
}

func (e *Engine) checkState(ctx context.Context, a *Action) error {
	comp, err := e.component(ctx, a)
	if err != nil {
		return err
	}
	state, err := e.exec.State(ctx, comp, a.EC)
	if err != nil {
		return err
	}
	if state != a.State {
		return fail(a, nil, "Component %s is in incorrect state %s", a.Path, state)
	}
	return nil
}
