package main

import (
	"context"

	"github.com/spf13/cobra"

	"rtshell/internal/resolver"
	"rtshell/internal/shell"
)

type transitionFunc func(s *shell.Shell, ctx context.Context, paths []string, ec int) error

func newLifecycleCmd(a *app, name, short string, fn transitionFunc) *cobra.Command {
	var ec int
	cmd := &cobra.Command{
		Use:   name + " <path>...",
		Short: short,
		RunE: a.withShell(func(cmd *cobra.Command, s *shell.Shell, args []string) error {
			return fn(s, cmd.Context(), args, ec)
		}),
	}
	cmd.Flags().IntVarP(&ec, "exec-context", "e", 0, "execution context to change the state in")
	return cmd
}

func newExitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "exit <path>...",
		Short: "Terminate components, leaving zombies behind",
		RunE: a.withShell(func(cmd *cobra.Command, s *shell.Shell, args []string) error {
			return s.Exit(cmd.Context(), args)
		}),
	}
}

func newCatCmd(a *app) *cobra.Command {
	var opts shell.CatOptions
	cmd := &cobra.Command{
		Use:   "cat <path>...",
		Short: "Print the profile of components, managers and ports",
		RunE: a.withShell(func(cmd *cobra.Command, s *shell.Shell, args []string) error {
			return s.Cat(cmd.Context(), args, opts)
		}),
	}
	cmd.Flags().CountVarP(&opts.Long, "long", "l", "show more detail; repeat for connectors")
	return cmd
}

func newLsCmd(a *app) *cobra.Command {
	var opts shell.ListOptions
	cmd := &cobra.Command{
		Use:   "ls [path]...",
		Short: "List naming contexts, managers and components",
		RunE: a.withShell(func(cmd *cobra.Command, s *shell.Shell, args []string) error {
			return s.List(cmd.Context(), args, opts)
		}),
	}
	cmd.Flags().BoolVarP(&opts.Long, "long", "l", false, "show state and port counts")
	cmd.Flags().BoolVarP(&opts.Recurse, "recurse", "R", false, "list every directory below the given ones")
	return cmd
}

func newCwdCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cwd [path]",
		Short: "Print the command that changes the working context",
		Long: `cwd checks that path is a directory or manager and prints a shell
command setting RTCSH_CWD to it. Use it as: eval "$(rtsh cwd path)".`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.withShell(func(cmd *cobra.Command, s *shell.Shell, args []string) error {
			raw := ""
			if len(args) > 0 {
				raw = args[0]
			}
			return s.ChangeDirectory(cmd.Context(), raw)
		}),
	}
}

func newFindCmd(a *app) *cobra.Command {
	var opts resolver.FindOptions
	cmd := &cobra.Command{
		Use:   "find [path]",
		Short: "Search the naming tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.withShell(func(cmd *cobra.Command, s *shell.Shell, args []string) error {
			raw := ""
			if len(args) > 0 {
				raw = args[0]
			}
			return s.Find(cmd.Context(), raw, opts)
		}),
	}
	cmd.Flags().StringVarP(&opts.Name, "name", "n", "", "glob the name must match")
	cmd.Flags().StringVarP(&opts.IName, "iname", "i", "", "case-insensitive glob the name must match")
	cmd.Flags().StringVarP(&opts.Types, "type", "t", "", "types to report: c(omponent) d(irectory) m(anager) n(ame server) z(ombie)")
	cmd.Flags().IntVarP(&opts.MaxDepth, "maxdepth", "m", 0, "levels to descend; 0 is unlimited")
	return cmd
}

func newConCmd(a *app) *cobra.Command {
	var opts shell.ConnectOptions
	cmd := &cobra.Command{
		Use:   "con <path1> <path2>",
		Short: "Connect two ports",
		RunE: a.withShell(func(cmd *cobra.Command, s *shell.Shell, args []string) error {
			return s.Connect(cmd.Context(), args, opts)
		}),
	}
	cmd.Flags().StringArrayVarP(&opts.Properties, "property", "p", nil, "connector property as key=value; repeatable")
	cmd.Flags().StringVarP(&opts.Name, "name", "n", "", "connector name")
	cmd.Flags().StringVarP(&opts.ID, "id", "i", "", "connector id")
	return cmd
}

func newDisCmd(a *app) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "dis <path1> [path2]",
		Short: "Remove connections from ports or components",
		RunE: a.withShell(func(cmd *cobra.Command, s *shell.Shell, args []string) error {
			return s.Disconnect(cmd.Context(), args, id)
		}),
	}
	cmd.Flags().StringVarP(&id, "id", "i", "", "only remove the connector with this id")
	return cmd
}

func newConfCmd(a *app) *cobra.Command {
	var opts shell.ConfOptions
	cmd := &cobra.Command{
		Use:   "conf <path> [list|set <param> <value>|get <param>|act <set>]",
		Short: "Show and change component configuration",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.withShell(func(cmd *cobra.Command, s *shell.Shell, args []string) error {
			return s.Conf(cmd.Context(), args[0], args[1:], opts)
		}),
	}
	cmd.Flags().StringVarP(&opts.Set, "set", "s", "", "configuration set to use")
	cmd.Flags().BoolVarP(&opts.AllSets, "all", "a", false, "include hidden sets")
	cmd.Flags().BoolVarP(&opts.Long, "long", "l", false, "list parameters under each set")
	return cmd
}

func newDelCmd(a *app) *cobra.Command {
	var zombies bool
	cmd := &cobra.Command{
		Use:   "del [path]",
		Short: "Unbind an object from its naming context",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.withShell(func(cmd *cobra.Command, s *shell.Shell, args []string) error {
			raw := ""
			if len(args) > 0 {
				raw = args[0]
			}
			return s.Delete(cmd.Context(), raw, zombies)
		}),
	}
	cmd.Flags().BoolVarP(&zombies, "zombies", "z", false, "only delete zombies; with no path, every zombie below the working context")
	return cmd
}

func newMgrCmd(a *app) *cobra.Command {
	var opts shell.ManagerOptions
	cmd := &cobra.Command{
		Use:   "mgr <path>",
		Short: "Load modules and create components on a manager",
		Args:  cobra.ExactArgs(1),
		RunE: a.withShell(func(cmd *cobra.Command, s *shell.Shell, args []string) error {
			return s.Manager(cmd.Context(), args[0], opts)
		}),
	}
	cmd.Flags().StringVarP(&opts.Load, "load", "l", "", "module to load")
	cmd.Flags().StringVarP(&opts.Init, "init-func", "i", "", "initialisation function of the loaded module")
	cmd.Flags().StringVarP(&opts.Create, "create", "c", "", "component type to create")
	cmd.Flags().StringVarP(&opts.Delete, "delete", "d", "", "instance name of a component to delete")
	cmd.Flags().StringVarP(&opts.Unload, "unload", "u", "", "module to unload")
	return cmd
}
