package services_test

import (
	"errors"
	"strings"
	"testing"

	"minutes/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("connection refused")
	err := services.Wrap(services.ErrTransport, "minutesapi", "upload", "send request", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"minutesapi", "upload", "send request"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestFailureKindMapping(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrValidation, "intake", "validate", "bad extension", nil), "validation"},
		{services.Wrap(services.ErrServer, "minutesapi", "process", "500", nil), "server"},
		{services.Wrap(services.ErrTransport, "minutesapi", "upload", "", errors.New("eof")), "transport"},
		{services.Wrap(services.ErrDecode, "minutesapi", "export", "", nil), "decode"},
		{errors.New("plain"), "unknown"},
	}
	for _, tc := range cases {
		if got := services.FailureKind(tc.err); got != tc.want {
			t.Fatalf("FailureKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
