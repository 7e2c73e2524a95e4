package domain

import (
	"path"
	"strings"
)

// BindingKind distinguishes naming contexts from object bindings
type BindingKind string

const (
	BindingContext BindingKind = "context"
	BindingObject  BindingKind = "object"
)

// ObjectKind is what a live object reference turned out to be when probed
type ObjectKind string

const (
	ObjectComponent ObjectKind = "component"
	ObjectManager   ObjectKind = "manager"
)

// Binding is a single entry in a naming context
type Binding struct {
	Name string      `json:"name"`
	Kind BindingKind `json:"kind"`
	Ref  string      `json:"ref"`
}

// IsContext reports whether the binding is a naming context
func (b Binding) IsContext() bool {
	return b.Kind == BindingContext
}

// JoinRef appends a name to a server-relative reference
func JoinRef(dir, name string) string {
	if dir == "" {
		dir = "/"
	}
	return path.Join(dir, name)
}

// SplitRef returns the parent reference and the final name of ref
func SplitRef(ref string) (string, string) {
	ref = strings.TrimSuffix(ref, "/")
	i := strings.LastIndex(ref, "/")
	if i < 0 {
		return "/", ref
	}
	parent := ref[:i]
	if parent == "" {
		parent = "/"
	}
	return parent, ref[i+1:]
}
