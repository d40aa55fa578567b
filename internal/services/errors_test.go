package services

import (
	"errors"
	"net/http"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ErrNotFound, "analysis", "load project", "unknown id", cause)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound classification, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive, got %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "enrich", "synthesize", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient fallback, got %v", err)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err      error
		expected int
	}{
		{nil, http.StatusOK},
		{Wrap(ErrNotFound, "store", "get", "", nil), http.StatusNotFound},
		{Wrap(ErrValidation, "analysis", "export", "no scenes", nil), http.StatusBadRequest},
		{Wrap(ErrConflict, "analysis", "analyze", "in flight", nil), http.StatusConflict},
		{Wrap(ErrExternalTool, "frames", "decode", "", nil), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.expected {
			t.Fatalf("HTTPStatus(%v) = %d, expected %d", tc.err, got, tc.expected)
		}
	}
}
