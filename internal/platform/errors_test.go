package platform

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapPreservesCategoryThroughLayers(t *testing.T) {
	inner := errors.New("socket closed")
	err := Wrap(ErrUnavailable, "fetch members", inner)
	wrapped := fmt.Errorf("roster: %w", err)

	if !errors.Is(wrapped, ErrUnavailable) {
		t.Fatal("category lost through wrapping")
	}
	if !errors.Is(wrapped, inner) {
		t.Fatal("cause lost through wrapping")
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", Wrap(ErrRateLimited, "send", nil), true},
		{"unavailable", Wrap(ErrUnavailable, "send", nil), true},
		{"not found", Wrap(ErrNotFound, "send", nil), false},
		{"permission", Wrap(ErrPermission, "send", nil), false},
		{"interaction expired", Wrap(ErrInteractionExpired, "prompt", nil), false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTransient(tc.err); got != tc.want {
				t.Fatalf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsGone(t *testing.T) {
	if !IsGone(Wrap(ErrNotFound, "delete message", nil)) {
		t.Fatal("expected deleted object to count as gone")
	}
	if IsGone(Wrap(ErrPermission, "delete message", nil)) {
		t.Fatal("permission failure is not gone")
	}
}

func TestWrapNilMarkerDefaultsToUnavailable(t *testing.T) {
	if !errors.Is(Wrap(nil, "op", errors.New("x")), ErrUnavailable) {
		t.Fatal("nil marker should default to ErrUnavailable")
	}
}
