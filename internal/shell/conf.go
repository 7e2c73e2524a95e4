package shell

import (
	"context"
	"fmt"

	"rtshell/internal/domain"
	"rtshell/internal/resolver"
	"rtshell/internal/rterror"
	"rtshell/internal/tree"
)

const confUsage = "rtconf [options] <path> [list [-l]|set <param> <value>|get <param>|act <set>]"

// ConfOptions select the configuration set conf operates on
type ConfOptions struct {
	// Set names the set; empty means the active set, or every set for list
	Set string
	// AllSets makes hidden sets visible
	AllSets bool
	// Long lists parameters under each set
	Long bool
}

// Conf lists, reads or changes the configuration of a component. args is
// the action followed by its arguments; no action lists the sets.
func (s *Shell) Conf(ctx context.Context, raw string, args []string, opts ConfOptions) error {
	action := "list"
	if len(args) > 0 {
		action, args = args[0], args[1:]
	}
	want := map[string]int{"list": 0, "set": 2, "get": 1, "act": 1}
	n, ok := want[action]
	if !ok || len(args) != n {
		return rterror.New(rterror.Usage, confUsage)
	}

	comp, err := s.confComponent(ctx, raw)
	if err != nil {
		return err
	}
	switch action {
	case "set":
		return s.exec.SetParameter(ctx, comp, opts.Set, args[0], args[1], opts.AllSets)
	case "get":
		v, err := s.exec.GetParameter(ctx, comp, opts.Set, args[0], opts.AllSets)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, v)
		return nil
	case "act":
		return s.exec.ActivateConfigSet(ctx, comp, args[0], opts.AllSets)
	}
	return s.listConf(ctx, comp, opts)
}

func (s *Shell) confComponent(ctx context.Context, raw string) (*resolver.Resolved, error) {
	addr, res, err := s.resolve(ctx, raw, resolver.Options{})
	if err != nil {
		return nil, remap(err, addr, rterror.NotADirectory, rterror.NoSuchObject)
	}
	switch res.Kind {
	case tree.KindComponent:
		return res, nil
	case tree.KindPort:
		return nil, rterror.New(rterror.NotAComponent, addr.Raw)
	}
	return nil, rterror.New(rterror.NoSuchObject, addr.Raw)
}

func (s *Shell) listConf(ctx context.Context, comp *resolver.Resolved, opts ConfOptions) error {
	sets, active, err := s.exec.ConfigSets(ctx, comp, opts.AllSets)
	if err != nil {
		return err
	}
	if opts.Set != "" {
		var only []domain.ConfigSet
		for _, set := range sets {
			if set.ID == opts.Set {
				only = append(only, set)
			}
		}
		if len(only) == 0 {
			return rterror.New(rterror.NoSuchConfigurationSet, opts.Set)
		}
		sets = only
	}

	for _, set := range sets {
		mark := ""
		if set.ID == active {
			mark = "*"
		}
		if !opts.Long {
			fmt.Fprintf(s.out, "+%s%s\n", set.ID, mark)
			continue
		}
		fmt.Fprintf(s.out, "-%s%s\n", set.ID, mark)
		rows := make([][]string, len(set.Parameters))
		for i, p := range set.Parameters {
			rows[i] = []string{p.Name, p.Value}
		}
		if err := table(s.out, "  ", rows); err != nil {
			return err
		}
	}
	return nil
}
