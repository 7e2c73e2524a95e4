package main

import (
	"github.com/spf13/cobra"

	"rtshell/internal/adapter"
	"rtshell/internal/reconcile"
	"rtshell/internal/shell"
)

type systemCommand struct {
	cmd   reconcile.Command
	short string
}

var systemCommands = []systemCommand{
	{reconcile.Resurrect, "Recreate the connections and configuration of a system"},
	{reconcile.Start, "Activate the components of a system"},
	{reconcile.Stop, "Deactivate the components of a system"},
	{reconcile.Teardown, "Remove the connections of a system"},
	{reconcile.Check, "Verify a running system against its profile"},
}

func newSystemCmd(a *app, sc systemCommand) *cobra.Command {
	var (
		dryRun bool
		format string
	)
	cmd := &cobra.Command{
		Use:   string(sc.cmd) + " [profile]",
		Short: sc.short,
		Long: sc.short + `.

The profile is read from the named file, or from standard input when no
file or "-" is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.withShell(func(cmd *cobra.Command, s *shell.Shell, args []string) error {
			p, err := shell.LoadProfile(profileArg(args), format, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return s.Reconcile(cmd.Context(), sc.cmd, p, dryRun)
		}),
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "print the actions instead of performing them")
	cmd.Flags().StringVarP(&format, "format", "f", "", "profile format: yaml or json (default: from the file name)")
	return cmd
}

func newCryoCmd(a *app) *cobra.Command {
	var opts shell.CryoOptions
	cmd := &cobra.Command{
		Use:   "cryo",
		Short: "Record the running system as a profile",
		Args:  cobra.NoArgs,
		RunE: a.withShell(func(cmd *cobra.Command, s *shell.Shell, _ []string) error {
			return s.Freeze(cmd.Context(), opts)
		}),
	}
	f := cmd.Flags()
	f.StringVarP(&opts.Output, "output", "o", "", "file to write (default: standard output)")
	f.StringVarP(&opts.Format, "format", "f", "yaml", "output format: yaml or json")
	f.StringVarP(&opts.Abstract, "abstract", "a", "", "system description")
	f.StringVarP(&opts.Name, "system-name", "n", "", "system name")
	f.StringVarP(&opts.Version, "system-version", "v", "", "system version")
	f.StringVarP(&opts.Vendor, "vendor", "e", "", "system vendor")
	return cmd
}

func newDotCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "dot [profile]",
		Short: "Render a profile as a Graphviz graph",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.withShell(func(cmd *cobra.Command, s *shell.Shell, args []string) error {
			p, err := shell.LoadProfile(profileArg(args), format, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return s.Dot(p)
		}),
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "profile format: yaml or json (default: from the file name)")
	return cmd
}

func newScanCmd(a *app) *cobra.Command {
	var ports string
	cmd := &cobra.Command{
		Use:   "scan <target>...",
		Short: "Find name servers on the network with nmap",
		Long: `scan probes each target (a host, CIDR range or address range) for
listening name servers and prints the address of each one found, ready for
RTCTREE_NAMESERVERS.`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.withShell(func(cmd *cobra.Command, s *shell.Shell, args []string) error {
			targets, err := adapter.ParseTargets(args)
			if err != nil {
				return err
			}
			if ports == "" {
				ports = a.cfg.Scan.Ports
			}
			sc := adapter.NewNameServerScanner(targets,
				adapter.WithPortRange(ports),
				adapter.WithTimeout(a.cfg.Scan.Timeout.Duration()),
				adapter.WithLogger(a.logger),
			)
			return s.Scan(cmd.Context(), sc)
		}),
	}
	cmd.Flags().StringVarP(&ports, "ports", "p", "", "ports to probe (default: from the config)")
	return cmd
}

func profileArg(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}
