// Package shell implements the rtsh commands.
//
// Each command is a method on Shell that resolves its paths through the
// resolver, acts through the action executor or the reconcile engine, and
// writes its result to the shell's output stream. Errors are returned, not
// printed; the caller prefixes them with the command name.
//
// Resolution failures about the addressed object itself are reported
// against the path as typed (made absolute against the working context).
// Failures on an intermediate naming context keep the walked prefix.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"go.uber.org/zap"

	"rtshell/internal/action"
	"rtshell/internal/address"
	"rtshell/internal/reconcile"
	"rtshell/internal/resolver"
	"rtshell/internal/rterror"
	"rtshell/internal/tree"
)

// Shell runs commands against one tree
type Shell struct {
	tree   *tree.Tree
	exec   *action.Executor
	engine *reconcile.Engine
	cwd    string
	out    io.Writer
	err    io.Writer
	logger *zap.Logger
}

// Option configures a Shell
type Option func(*Shell)

// WithCwd sets the working context relative paths resolve against
func WithCwd(cwd string) Option {
	return func(s *Shell) {
		if cwd != "" {
			s.cwd = cwd
		}
	}
}

// WithOutput sets the output and error streams
func WithOutput(out, errw io.Writer) Option {
	return func(s *Shell) {
		if out != nil {
			s.out = out
		}
		if errw != nil {
			s.err = errw
		}
	}
}

// WithLogger sets the shell's logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Shell) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a shell over t
func New(t *tree.Tree, opts ...Option) *Shell {
	s := &Shell{
		tree:   t,
		cwd:    "/",
		out:    os.Stdout,
		err:    os.Stderr,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.exec = action.NewExecutor(t, s.logger)
	s.engine = reconcile.New(t, reconcile.WithLogger(s.logger))
	return s
}

// Cwd returns the working context
func (s *Shell) Cwd() string {
	return s.cwd
}

// pathKinds are the error kinds whose single argument is an object path
var pathKinds = map[rterror.Kind]bool{
	rterror.NoSuchObject:        true,
	rterror.NotADirectory:       true,
	rterror.NotAComponent:       true,
	rterror.NotAManager:         true,
	rterror.ZombieObject:        true,
	rterror.PortNotFound:        true,
	rterror.ParentNotADirectory: true,
	rterror.UndeletableObject:   true,
	rterror.NotAZombie:          true,
}

// resolve parses raw against the working context and resolves it
func (s *Shell) resolve(ctx context.Context, raw string, opts resolver.Options) (address.Address, *resolver.Resolved, error) {
	addr := address.Parse(raw, s.cwd)
	res, err := resolver.Resolve(ctx, s.tree, addr, opts)
	if err != nil {
		return addr, nil, typed(err, addr)
	}
	return addr, res, nil
}

// typed rewrites a path error about the addressed object so that it names
// the path as typed
func typed(err error, addr address.Address) error {
	var e *rterror.Error
	if !errors.As(err, &e) || !pathKinds[e.Kind] {
		return err
	}
	switch e.Path() {
	case addr.Raw:
		return err
	case addr.Path(), addr.FullPath():
		return rterror.Wrap(e.Kind, e.Err, addr.Raw)
	}
	return err
}

// remap reclassifies a typed path error of kind from as kind to
func remap(err error, addr address.Address, from, to rterror.Kind) error {
	return rterror.Remap(err, from, to, addr.Raw)
}

// component resolves raw and requires a live component. Anything that is
// not one, including a component addressed with a trailing slash, fails
// NotAComponent.
func (s *Shell) component(ctx context.Context, raw string) (*resolver.Resolved, error) {
	addr, res, err := s.resolve(ctx, raw, resolver.Options{})
	if err != nil {
		return nil, remap(err, addr, rterror.NotADirectory, rterror.NotAComponent)
	}
	if res.Kind != tree.KindComponent {
		return nil, rterror.New(rterror.NotAComponent, addr.Raw)
	}
	return res, nil
}

// hasPort fails with missing when raw has no port part
func (s *Shell) hasPort(raw string, missing rterror.Kind) error {
	if !address.Parse(raw, s.cwd).HasPort {
		return rterror.New(missing)
	}
	return nil
}

// table writes rows as aligned columns separated by at least two spaces.
// The last column of each row is not padded.
func table(w io.Writer, indent string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprint(tw, indent)
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
