package domain

import (
	"errors"
	"fmt"
)

// Remote failure sentinels. Each carries a stable code used on the wire.
var (
	ErrNotFound        = &RemoteError{Code: "not_found", Message: "no such binding"}
	ErrDefunct         = &RemoteError{Code: "defunct", Message: "object is not alive"}
	ErrNotComponent    = &RemoteError{Code: "not_component", Message: "object is not a component"}
	ErrNotManager      = &RemoteError{Code: "not_manager", Message: "object is not a manager"}
	ErrNotContext      = &RemoteError{Code: "not_context", Message: "binding is not a naming context"}
	ErrPortNotFound    = &RemoteError{Code: "port_not_found", Message: "no such port"}
	ErrWrongPolarity   = &RemoteError{Code: "wrong_polarity", Message: "incompatible port types"}
	ErrNotConnected    = &RemoteError{Code: "not_connected", Message: "no such connector"}
	ErrNoSuchSet       = &RemoteError{Code: "no_such_set", Message: "no such configuration set"}
	ErrNoSuchParameter = &RemoteError{Code: "no_such_parameter", Message: "no such configuration parameter"}
	ErrNoSuchContext   = &RemoteError{Code: "no_such_ec", Message: "no such execution context"}
	ErrBadModule       = &RemoteError{Code: "bad_module", Message: "module cannot be loaded"}
	ErrInternal        = &RemoteError{Code: "internal", Message: "SDOPackage.InternalError"}
	ErrPrecondition    = &RemoteError{Code: "precondition", Message: "PRECONDITION_NOT_MET"}
	ErrBadRequest      = &RemoteError{Code: "bad_request", Message: "bad request"}
)

var sentinels = []*RemoteError{
	ErrNotFound, ErrDefunct, ErrNotComponent, ErrNotManager, ErrNotContext,
	ErrPortNotFound, ErrWrongPolarity, ErrNotConnected, ErrNoSuchSet,
	ErrNoSuchParameter, ErrNoSuchContext, ErrBadModule, ErrInternal, ErrPrecondition,
	ErrBadRequest,
}

// RemoteError is a failure reported by the naming service or component framework
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// Is matches remote errors by code so decoded copies compare equal to sentinels
func (e *RemoteError) Is(target error) bool {
	var t *RemoteError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Remotef wraps a sentinel with detail while keeping it matchable
func Remotef(sentinel *RemoteError, format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)
}

// ErrorCode returns the wire code of a remote error, or "" if err is not one
func ErrorCode(err error) string {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// SentinelForCode returns the sentinel registered under code, or nil
func SentinelForCode(code string) *RemoteError {
	for _, s := range sentinels {
		if s.Code == code {
			return s
		}
	}
	return nil
}
