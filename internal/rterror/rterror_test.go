package rterror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"no such object", New(NoSuchObject, "/localhost/x.rtc"), "No such object: /localhost/x.rtc"},
		{"not a directory", New(NotADirectory, "/a/b.rtc/"), "Not a directory: /a/b.rtc/"},
		{"no source port", New(NoSourcePort), "No source port specified."},
		{"connection by endpoints", New(NoConnectionByEndpoints, "/a.rtc:out", "/b.rtc:in"), "No connection from /a.rtc:out to /b.rtc:in"},
		{"connection by id", New(NoConnectionByID, "/a.rtc:out", "no_id"), "No connection from /a.rtc:out with ID no_id"},
		{"required action", New(RequiredActionFailed, "Required component missing: /x"), "Required action failed: Required component missing: /x"},
		{"wrong polarity", New(WrongPortPolarity), "Wrong port type."},
		{"remote passthrough", New(Remote, "SDOPackage.InternalError"), "SDOPackage.InternalError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindMatching(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("listing: %w", Wrap(Unreachable, cause, "/localhost"))

	assert.True(t, errors.Is(err, New(Unreachable)))
	assert.False(t, errors.Is(err, New(NoSuchObject)))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, Unreachable, KindOf(err))
	assert.True(t, IsKind(err, Unreachable))
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
}

func TestRemap(t *testing.T) {
	err := New(NotADirectory, "/localhost/cxt/Std0.rtc")

	remapped := Remap(err, NotADirectory, NoSuchObject, "/localhost/cxt/Std0.rtc/")
	assert.Equal(t, "No such object: /localhost/cxt/Std0.rtc/", remapped.Error())

	untouched := Remap(err, ZombieObject, NoSuchObject, "/x")
	assert.Same(t, err, untouched)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(New(NoSuchObject, "/x")))
	assert.Equal(t, 2, ExitCode(New(BadPropertyFormat, "key")))
	assert.Equal(t, 2, ExitCode(Wrap(BadOptionValue, errors.New("bad"), `invalid argument "x" for "-e" flag`)))
	assert.Equal(t, 1, ExitCode(errors.New("opaque")))
}

func TestSilent(t *testing.T) {
	err := fmt.Errorf("check: %w", New(Reported, "2 problems"))
	assert.True(t, Silent(err))
	assert.Equal(t, 1, ExitCode(err))
	assert.False(t, Silent(New(NoSuchObject, "/x")))
}
