package shell

import (
	"context"
	"fmt"
	"io"
	"os"

	"rtshell/internal/adapter"
	"rtshell/internal/codec"
	"rtshell/internal/profile"
	"rtshell/internal/reconcile"
)

// LoadProfile reads a profile document from path, or from stdin when path
// is empty or "-". The format follows the file extension unless format is
// set.
func LoadProfile(path, format string, stdin io.Reader) (*profile.Profile, error) {
	imp, err := codec.ImporterFor(format, path)
	if err != nil {
		return nil, err
	}
	if path == "" || path == "-" {
		return imp.Parse(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile: %w", err)
	}
	defer f.Close()
	return imp.Parse(f)
}

// Reconcile runs a profile-driven command. A dry run prints the plan to the
// output stream; a live run reports failures on the error stream.
func (s *Shell) Reconcile(ctx context.Context, cmd reconcile.Command, p *profile.Profile, dryRun bool) error {
	return s.engine.Run(ctx, p, cmd, reconcile.RunOptions{
		DryRun: dryRun,
		Out:    s.out,
		Err:    s.err,
	})
}

// CryoOptions control how Freeze names and writes the captured profile
type CryoOptions struct {
	reconcile.FreezeOptions
	// Format is yaml (default) or json
	Format string
	// Output is the file to write; empty writes to the output stream
	Output string
}

// Freeze captures the running system as a profile document
func (s *Shell) Freeze(ctx context.Context, opts CryoOptions) error {
	exp, err := codec.ExporterFor(opts.Format)
	if err != nil {
		return err
	}
	p, err := s.engine.Freeze(ctx, opts.FreezeOptions)
	if err != nil {
		return err
	}
	if opts.Output == "" {
		return exp.Export(p, s.out)
	}
	f, err := os.Create(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", opts.Output, err)
	}
	if err := exp.Export(p, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Dot renders a profile as a Graphviz graph on the output stream
func (s *Shell) Dot(p *profile.Profile) error {
	exp, err := codec.ExporterFor("dot")
	if err != nil {
		return err
	}
	return exp.Export(p, s.out)
}

// ServerScanner discovers name servers on the network
type ServerScanner interface {
	Scan(ctx context.Context) ([]adapter.Server, error)
}

// Scan prints the address of every name server sc finds
func (s *Shell) Scan(ctx context.Context, sc ServerScanner) error {
	servers, err := sc.Scan(ctx)
	if err != nil {
		return err
	}
	for _, srv := range servers {
		fmt.Fprintln(s.out, srv.Address())
	}
	return nil
}
