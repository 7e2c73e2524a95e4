package shell

import (
	"context"
	"fmt"

	"rtshell/internal/resolver"
	"rtshell/internal/rterror"
)

// ChangeDirectory validates raw as a directory or manager and prints the
// shell command that makes it the working context. An empty path returns
// to the root.
func (s *Shell) ChangeDirectory(ctx context.Context, raw string) error {
	if raw == "" {
		fmt.Fprintln(s.out, `export RTCSH_CWD="/"`)
		return nil
	}
	addr, res, err := s.resolve(ctx, raw, resolver.Options{})
	if err != nil {
		if rterror.KindOf(err) == rterror.Unreachable {
			return err
		}
		return rterror.Wrap(rterror.NotADirectory, err, addr.Raw)
	}
	if !res.Node.IsDirectory() || res.Port != nil {
		return rterror.New(rterror.NotADirectory, addr.Raw)
	}
	fmt.Fprintf(s.out, "export RTCSH_CWD=\"%s\"\n", addr.Raw)
	s.cwd = addr.Raw
	return nil
}

// Find prints the path of every node below raw that matches opts
func (s *Shell) Find(ctx context.Context, raw string, opts resolver.FindOptions) error {
	if raw == "" {
		raw = "."
	}
	if err := opts.Validate(); err != nil {
		return rterror.New(rterror.Usage, "rtfind [path] [-n name] [-i iname] [-t cdmnz] [-m depth]")
	}
	addr, res, err := s.resolve(ctx, raw, resolver.Options{})
	if err != nil {
		return err
	}
	if !res.Node.IsDirectory() || res.Port != nil {
		return rterror.New(rterror.NotADirectory, addr.Raw)
	}
	found, err := resolver.Find(ctx, s.tree, res.Node, opts)
	if err != nil {
		return err
	}
	for _, p := range found {
		fmt.Fprintln(s.out, p)
	}
	return nil
}
