// Package rterror defines the user-facing error taxonomy of rtshell.
//
// Every kind maps to exactly one message template. Paths passed as arguments
// are reported verbatim, so callers decide whether the walked or the typed
// path is shown.
package rterror

import (
	"errors"
	"fmt"
)

// Kind classifies a user-facing failure
type Kind int

const (
	NoSuchObject Kind = iota + 1
	NotADirectory
	NotAComponent
	NotAManager
	ZombieObject
	PortNotFound
	NoSourcePort
	NoDestinationPort
	NoSuchConfigurationSet
	NoSuchConfigurationParameter
	BadPropertyFormat
	// BadOptionValue is a command line option whose value does not parse
	BadOptionValue
	WrongPortPolarity
	NoConnectionByEndpoints
	NoConnectionByID
	RequiredActionFailed
	OptionalActionFailed
	Usage
	ParentNotADirectory
	UndeletableObject
	NotAZombie
	Unreachable
	NoComponentSpecified
	CannotCatDirectory
	CannotListPorts
	NoInitFunction
	Remote
	// Reported marks a failure whose details were already written out
	Reported
)

var templates = map[Kind]string{
	NoSuchObject:                 "No such object: %s",
	NotADirectory:                "Not a directory: %s",
	NotAComponent:                "Not a component: %s",
	NotAManager:                  "Not a manager: %s",
	ZombieObject:                 "Zombie object: %s",
	PortNotFound:                 "Port not found: %s",
	NoSourcePort:                 "No source port specified.",
	NoDestinationPort:            "No destination port specified.",
	NoSuchConfigurationSet:       "No such configuration set: %s",
	NoSuchConfigurationParameter: "No such configuration parameter: %s",
	BadPropertyFormat:            "Bad property format: %s",
	BadOptionValue:               "%s",
	WrongPortPolarity:            "Wrong port type.",
	NoConnectionByEndpoints:      "No connection from %s to %s",
	NoConnectionByID:             "No connection from %s with ID %s",
	RequiredActionFailed:         "Required action failed: %s",
	OptionalActionFailed:         "Action failed: %s",
	Usage:                        "Usage: %s",
	ParentNotADirectory:          "Parent not a directory: %s",
	UndeletableObject:            "Undeletable object: %s",
	NotAZombie:                   "Not a zombie object: %s",
	Unreachable:                  "Object unreachable: %s",
	NoComponentSpecified:         "No component specified.",
	CannotCatDirectory:           "Cannot cat a directory.",
	CannotListPorts:              "Cannot list ports.",
	NoInitFunction:               "No initialisation function specified.",
	Remote:                       "%s",
	Reported:                     "%s",
}

var names = map[Kind]string{
	NoSuchObject:                 "NoSuchObject",
	NotADirectory:                "NotADirectory",
	NotAComponent:                "NotAComponent",
	NotAManager:                  "NotAManager",
	ZombieObject:                 "ZombieObject",
	PortNotFound:                 "PortNotFound",
	NoSourcePort:                 "NoSourcePort",
	NoDestinationPort:            "NoDestinationPort",
	NoSuchConfigurationSet:       "NoSuchConfigurationSet",
	NoSuchConfigurationParameter: "NoSuchConfigurationParameter",
	BadPropertyFormat:            "BadPropertyFormat",
	BadOptionValue:               "BadOptionValue",
	WrongPortPolarity:            "WrongPortPolarity",
	NoConnectionByEndpoints:      "NoConnection",
	NoConnectionByID:             "NoConnectionByID",
	RequiredActionFailed:         "RequiredActionFailed",
	OptionalActionFailed:         "OptionalActionFailed",
	Usage:                        "Usage",
	ParentNotADirectory:          "ParentNotADirectory",
	UndeletableObject:            "UndeletableObject",
	NotAZombie:                   "NotAZombie",
	Unreachable:                  "Unreachable",
	NoComponentSpecified:         "NoComponentSpecified",
	CannotCatDirectory:           "CannotCatDirectory",
	CannotListPorts:              "CannotListPorts",
	NoInitFunction:               "NoInitFunction",
	Remote:                       "Remote",
	Reported:                     "Reported",
}

func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a classified failure carrying the arguments of its template
type Error struct {
	Kind Kind
	Args []string
	// Err is the underlying cause, if any
	Err error
}

// New creates an error of the given kind
func New(kind Kind, args ...string) *Error {
	return &Error{Kind: kind, Args: args}
}

// Wrap creates an error of the given kind that keeps err as its cause
func Wrap(kind Kind, err error, args ...string) *Error {
	return &Error{Kind: kind, Args: args, Err: err}
}

func (e *Error) Error() string {
	tmpl, ok := templates[e.Kind]
	if !ok {
		return e.Kind.String()
	}
	args := make([]any, len(e.Args))
	for i, a := range e.Args {
		args[i] = a
	}
	return fmt.Sprintf(tmpl, args...)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, ignoring arguments
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && len(t.Args) == 0
}

// Path returns the first argument, which for path-qualified kinds is the path
func (e *Error) Path() string {
	if len(e.Args) == 0 {
		return ""
	}
	return e.Args[0]
}

// KindOf returns the kind of the first *Error in err's chain, or 0
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err is classified as kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Remap returns a copy of err reclassified from one kind to another and
// naming path, leaving any other error untouched
func Remap(err error, from, to Kind, path string) error {
	var e *Error
	if !errors.As(err, &e) || e.Kind != from {
		return err
	}
	return &Error{Kind: to, Args: []string{path}, Err: e.Err}
}

// Silent reports whether err should not be printed again
func Silent(err error) bool {
	return IsKind(err, Reported)
}

// ExitCode maps an error to the process exit status: 0 for nil, 2 for a
// malformed option value, 1 for everything else
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case BadPropertyFormat, BadOptionValue:
		return 2
	}
	return 1
}
