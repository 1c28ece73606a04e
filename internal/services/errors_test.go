package services_test

import (
	"errors"
	"strings"
	"testing"

	"bahaibot/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrRemote, "writer", "wbeditentity", "create failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrRemote) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"writer", "wbeditentity", "create failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrRemote) {
		t.Fatalf("expected remote marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestKindAndExitCode(t *testing.T) {
	cases := []struct {
		err  error
		kind string
		code int
	}{
		{nil, "", 0},
		{services.Wrap(services.ErrValidation, "validator", "", "missing TITLE", nil), "validation", 1},
		{services.Wrap(services.ErrTransient, "store", "search", "429", nil), "transient", 1},
		{services.Wrap(services.ErrNotFound, "resolver", "lookup", "no match", nil), "not_found", 1},
		{errors.New("boom"), "unexpected", 1},
	}
	for _, tc := range cases {
		if got := services.Kind(tc.err); got != tc.kind {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.kind)
		}
		if got := services.ExitCode(tc.err); got != tc.code {
			t.Fatalf("ExitCode(%v) = %d, want %d", tc.err, got, tc.code)
		}
	}
	if !services.IsTransient(services.Wrap(services.ErrTransient, "", "", "x", nil)) {
		t.Fatal("expected transient classification")
	}
}
