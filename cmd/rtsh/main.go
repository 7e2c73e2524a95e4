// Command rtsh is the rtshell command suite.
//
// Each tool is a subcommand (rtsh ls, rtsh cat ...). When the binary is
// invoked through a link named after a classic tool (rtls, rtcat, rtcon,
// ...) the matching subcommand runs directly.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"rtshell/internal/rterror"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args, newApp(os.Stdin, os.Stdout, os.Stderr))
	stop()
	os.Exit(code)
}

// run executes argv and returns the process exit status. Failures are
// printed as "<tool>: <message>" unless they were already reported.
func run(ctx context.Context, argv []string, a *app) int {
	root := newRootCmd(a)
	root.SetArgs(toolArgs(root.Name(), filepath.Base(argv[0]), argv[1:], subcommands(root)))
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	cmd, err := root.ExecuteContextC(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	if err == nil {
		return 0
	}
	if !rterror.Silent(err) {
		fmt.Fprintf(a.stderr, "%s: %s\n", toolName(cmd.Name(), root.Name()), err)
	}
	return rterror.ExitCode(err)
}

// toolArgs prepends the subcommand named by a tool link, so that "rtls -l"
// runs as "rtsh ls -l"
func toolArgs(rootName, base string, args []string, known map[string]bool) []string {
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == rootName || !strings.HasPrefix(base, "rt") {
		return args
	}
	if sub := strings.TrimPrefix(base, "rt"); known[sub] {
		return append([]string{sub}, args...)
	}
	return args
}

func toolName(cmd, root string) string {
	if cmd == root {
		return root
	}
	return "rt" + cmd
}
