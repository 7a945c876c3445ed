package domain

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
)

func TestErrorfWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Errorf(KindProtocol, "rcon: connect %s: %w", "127.0.0.1:27015", cause)

	if got := err.Error(); got != "rcon: connect 127.0.0.1:27015: connection refused" {
		t.Errorf("Error() = %q", got)
	}
	if strings.Contains(err.Error(), "%!w") {
		t.Error("message contains an unexpanded %w verb")
	}
	if !errors.Is(err, cause) {
		t.Error("cause lost through Errorf")
	}
	if KindOf(err) != KindProtocol {
		t.Errorf("kind = %v", KindOf(err))
	}
}

func TestErrorfWithoutCause(t *testing.T) {
	err := Errorf(KindValidation, "invalid port %d", 70000)
	if err.Error() != "invalid port 70000" {
		t.Errorf("Error() = %q", err.Error())
	}
	if errors.Unwrap(err) != nil {
		t.Error("unexpected unwrap target")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(KindIO, nil, "open") != nil {
		t.Error("Wrap(nil) should be nil")
	}

	err := Wrap(KindIO, fs.ErrNotExist, "open config")
	if err.Error() != "open config: file does not exist" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("cause lost through Wrap")
	}
	if KindOf(err) != KindIO {
		t.Errorf("kind = %v", KindOf(err))
	}
}

func TestKindOfPlainError(t *testing.T) {
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("plain error should be KindUnknown")
	}
	if KindOf(nil) != KindUnknown {
		t.Error("nil should be KindUnknown")
	}
}
