// Package address parses rtshell object paths.
//
// A path has the form
//
//	["/"] segment ("/" segment)* [":" port] ["/"]
//
// Relative paths are resolved against a working context supplied by the
// caller. Parsing is purely lexical; nothing here talks to a name server.
package address

import (
	"strings"
)

// Address is a parsed object path
type Address struct {
	// Raw is the absolute form of the path as typed, including any port and
	// trailing slash. Commands report errors against it.
	Raw string
	// Absolute records whether the path was typed starting with "/"
	Absolute bool
	// Context holds the directory segments leading to the object
	Context []string
	// Object is the final name segment; empty for the root and for ":port"
	Object string
	Port   string
	// HasPort is set when a ":" appeared in the final segment
	HasPort bool
	// TrailingSlash asserts the object must be directory-like
	TrailingSlash bool
}

// Parse parses raw relative to cwd. An empty raw path denotes cwd itself.
func Parse(raw, cwd string) Address {
	if cwd == "" {
		cwd = "/"
	}
	typed := raw
	abs := strings.HasPrefix(raw, "/")
	switch {
	case raw == "":
		typed = cwd
	case !abs:
		typed = Join(cwd, raw)
	}

	a := Address{Raw: typed, Absolute: abs}
	body := typed
	if len(body) > 1 && strings.HasSuffix(body, "/") {
		a.TrailingSlash = true
		body = strings.TrimRight(body, "/")
	}

	segs := normalise(strings.Split(body, "/"))
	if len(segs) == 0 {
		return a
	}

	last := segs[len(segs)-1]
	if name, port, ok := strings.Cut(last, ":"); ok {
		a.HasPort = true
		a.Port = port
		last = name
	}
	a.Context = segs[:len(segs)-1]
	a.Object = last
	return a
}

// normalise drops empty and "." segments and applies "..", never rising above the root
func normalise(parts []string) []string {
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		switch p {
		case "", ".":
		case "..":
			if len(segs) > 0 {
				segs = segs[:len(segs)-1]
			}
		default:
			segs = append(segs, p)
		}
	}
	return segs
}

// Join appends a relative path to a directory path with exactly one separator
func Join(dir, rel string) string {
	if dir == "" {
		dir = "/"
	}
	if strings.HasSuffix(dir, "/") {
		return dir + rel
	}
	return dir + "/" + rel
}

// Segments returns the context segments followed by the object name, if any
func (a Address) Segments() []string {
	segs := make([]string, 0, len(a.Context)+1)
	segs = append(segs, a.Context...)
	if a.Object != "" {
		segs = append(segs, a.Object)
	}
	return segs
}

// Path returns the canonical absolute path of the object, without port
func (a Address) Path() string {
	return "/" + strings.Join(a.Segments(), "/")
}

// ContextPath returns the canonical absolute path of the containing directory
func (a Address) ContextPath() string {
	return "/" + strings.Join(a.Context, "/")
}

// FullPath returns the canonical path including the port, if any
func (a Address) FullPath() string {
	if a.HasPort {
		return a.Path() + ":" + a.Port
	}
	return a.Path()
}

// IsRoot reports whether the address names the naming root
func (a Address) IsRoot() bool {
	return len(a.Context) == 0 && a.Object == "" && !a.HasPort
}

// HasGlob reports whether any name segment contains glob metacharacters
func (a Address) HasGlob() bool {
	for _, s := range a.Segments() {
		if IsGlob(s) {
			return true
		}
	}
	return false
}

// IsGlob reports whether a name contains "*", "?" or a bracket expression
func IsGlob(name string) bool {
	return strings.ContainsAny(name, "*?[")
}
