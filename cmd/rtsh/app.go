package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"rtshell/internal/config"
	"rtshell/internal/logging"
	"rtshell/internal/naming"
	"rtshell/internal/rterror"
	"rtshell/internal/shell"
	"rtshell/internal/tree"
)

// app holds the state shared by every subcommand of one invocation
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
	tunnel *naming.Tunnel
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{stdin: stdin, stdout: stdout, stderr: stderr, logger: zap.NewNop()}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "rtsh",
		Short: "Inspect and manage RT components through their name servers",
		Long: `rtsh browses the naming tree of one or more name servers like a file
system and manages the components, ports and managers bound in it.

Paths are absolute (/localhost/cxt/Comp0.rtc) or relative to the working
context in RTCSH_CWD. A port is addressed as Comp0.rtc:port.`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: search the standard locations)")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "log debug output to stderr")
	root.SetFlagErrorFunc(flagError)

	root.AddCommand(
		newLifecycleCmd(a, "act", "Activate components", (*shell.Shell).Activate),
		newLifecycleCmd(a, "deact", "Deactivate components", (*shell.Shell).Deactivate),
		newLifecycleCmd(a, "reset", "Reset components out of the error state", (*shell.Shell).Reset),
		newExitCmd(a),
		newCatCmd(a),
		newLsCmd(a),
		newCwdCmd(a),
		newFindCmd(a),
		newConCmd(a),
		newDisCmd(a),
		newConfCmd(a),
		newDelCmd(a),
		newMgrCmd(a),
	)
	for _, c := range systemCommands {
		root.AddCommand(newSystemCmd(a, c))
	}
	root.AddCommand(newCryoCmd(a), newDotCmd(a), newScanCmd(a))
	return root
}

// flagError classifies an option whose value does not parse, keeping the
// flag package's message
func flagError(_ *cobra.Command, err error) error {
	var invalid *pflag.InvalidValueError
	if errors.As(err, &invalid) {
		return rterror.Wrap(rterror.BadOptionValue, err, err.Error())
	}
	return err
}

// subcommands returns the names of the root's direct subcommands
func subcommands(root *cobra.Command) map[string]bool {
	known := make(map[string]bool)
	for _, c := range root.Commands() {
		known[c.Name()] = true
	}
	return known
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var err error
	if a.configPath != "" {
		a.cfg, _, err = config.LoadFromPath(a.configPath)
	} else {
		a.cfg, _, err = config.Load()
	}
	if err != nil {
		return err
	}
	if a.verbose {
		a.cfg.Log.Level = "debug"
	}
	logger, err := logging.New(a.cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	a.logger = logger
	return nil
}

// close releases the tunnel and flushes the logger
func (a *app) close() error {
	var err error
	if a.tunnel != nil {
		err = multierr.Append(err, a.tunnel.Close())
		a.tunnel = nil
	}
	// Sync on a terminal fails with ENOTTY
	if a.cfg != nil && a.cfg.Log.Output != "stderr" && a.cfg.Log.Output != "stdout" {
		err = multierr.Append(err, a.logger.Sync())
	}
	return err
}

// shell builds a shell over a fresh tree of the configured name servers
func (a *app) shell(cmd *cobra.Command) (*shell.Shell, error) {
	opts := []naming.ClientOption{
		naming.WithTimeout(a.cfg.Naming.Timeout.Duration()),
		naming.WithLogger(a.logger),
	}
	if tc, ok := a.cfg.Naming.TunnelSettings(); ok {
		t, err := naming.DialTunnel(cmd.Context(), tc)
		if err != nil {
			return nil, err
		}
		a.tunnel = t
		opts = append(opts, naming.WithHTTPClient(t.HTTPClient(a.cfg.Naming.Timeout.Duration())))
	}
	t := tree.New(a.cfg.Servers, naming.HTTPDialer(a.cfg.Endpoints(), opts...), tree.WithLogger(a.logger))
	return shell.New(t,
		shell.WithCwd(a.cfg.Cwd),
		shell.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()),
		shell.WithLogger(a.logger),
	), nil
}

// withShell adapts a shell operation to a cobra RunE
func (a *app) withShell(fn func(cmd *cobra.Command, s *shell.Shell, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := a.shell(cmd)
		if err != nil {
			return err
		}
		return fn(cmd, s, args)
	}
}
