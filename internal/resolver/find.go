package resolver

import (
	"context"
	"fmt"
	"strings"

	"rtshell/internal/tree"
)

// Type filter letters accepted by Find
const (
	TypeComponent  = 'c'
	TypeDirectory  = 'd'
	TypeManager    = 'm'
	TypeNameServer = 'n'
	TypeZombie     = 'z'
)

// FindOptions select the nodes Find reports
type FindOptions struct {
	// Name is a case-sensitive glob matched against node names
	Name string
	// IName is a case-insensitive glob matched against node names
	IName string
	// Types is a set of type letters (cdmnz); empty matches every kind
	Types string
	// MaxDepth bounds the search below the start node; <= 0 means no limit
	MaxDepth int
}

// Validate checks the type letters
func (o FindOptions) Validate() error {
	for _, r := range o.Types {
		if !strings.ContainsRune("cdmnz", r) {
			return fmt.Errorf("unknown type %q", r)
		}
	}
	return nil
}

// Find searches below start and returns the paths of matching nodes in
// discovery order. The start node itself is never reported.
func Find(ctx context.Context, t *tree.Tree, start *tree.Node, opts FindOptions) ([]string, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = -1
	}

	var found []string
	err := t.Walk(ctx, start, maxDepth, func(n *tree.Node, depth int) error {
		if depth == 0 {
			return nil
		}
		ok, err := matches(n, opts)
		if err != nil {
			return err
		}
		if ok {
			found = append(found, n.Path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func matches(n *tree.Node, opts FindOptions) (bool, error) {
	if opts.Name != "" {
		ok, err := tree.MatchName(opts.Name, n.Name, true, false)
		if err != nil || !ok {
			return false, err
		}
	}
	if opts.IName != "" {
		ok, err := tree.MatchName(opts.IName, n.Name, true, true)
		if err != nil || !ok {
			return false, err
		}
	}
	if opts.Types == "" {
		return true, nil
	}
	for _, r := range opts.Types {
		if typeMatches(n, r) {
			return true, nil
		}
	}
	return false, nil
}

func typeMatches(n *tree.Node, r rune) bool {
	switch r {
	case TypeComponent:
		return n.Kind == tree.KindComponent
	case TypeDirectory:
		return n.IsDirectory()
	case TypeManager:
		return n.Kind == tree.KindManager
	case TypeNameServer:
		return n.NameServer
	case TypeZombie:
		return n.Kind == tree.KindZombie
	}
	return false
}
