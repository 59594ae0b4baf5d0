package services

import (
	"errors"
	"net/http"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("connection refused")
	err := Wrap(ErrExternal, "pinning", "pin file", "upload rejected", base)
	if !errors.Is(err, ErrExternal) {
		t.Fatalf("expected ErrExternal marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
}

func TestWrapDefaultsToExternal(t *testing.T) {
	err := Wrap(nil, "chain", "send transaction", "", nil)
	if !errors.Is(err, ErrExternal) {
		t.Fatalf("nil marker should default to ErrExternal, got %v", err)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{Wrap(ErrValidation, "api", "create video", "missing title", nil), http.StatusBadRequest},
		{Wrap(ErrPrecondition, "api", "verify", "missing proof fields", nil), http.StatusBadRequest},
		{Wrap(ErrUnauthorized, "catalog", "update video", "owner mismatch", nil), http.StatusForbidden},
		{Wrap(ErrNotFound, "catalog", "get video", "", nil), http.StatusNotFound},
		{Wrap(ErrConfiguration, "pinning", "pin file", "jwt missing", nil), http.StatusInternalServerError},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestMessageStripsSentinel(t *testing.T) {
	err := Wrap(ErrUnauthorized, "catalog", "delete video", "owner mismatch", nil)
	got := Message(err)
	if got != "catalog: delete video: owner mismatch" {
		t.Fatalf("unexpected message: %q", got)
	}
}
