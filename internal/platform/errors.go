package platform

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel categories gateways must wrap their SDK failures into. Callers
// branch with errors.Is and never see transport-specific codes.
var (
	// ErrNotFound covers objects that no longer exist: deleted messages,
	// members who left, channels the bot lost.
	ErrNotFound = errors.New("platform object not found")
	// ErrPermission covers authorization failures.
	ErrPermission = errors.New("platform permission denied")
	// ErrInteractionExpired marks a public interaction whose token aged out.
	// Sessions survive this; only their prompt handle dies.
	ErrInteractionExpired = errors.New("interaction expired")
	// ErrRateLimited marks throttling. Safe to retry after a delay.
	ErrRateLimited = errors.New("platform rate limited")
	// ErrUnavailable marks transport failures. Safe to retry.
	ErrUnavailable = errors.New("platform unavailable")
)

// Wrap tags err with a sentinel category and operation context.
func Wrap(marker error, op string, err error) error {
	op = strings.TrimSpace(op)
	if marker == nil {
		marker = ErrUnavailable
	}
	if err != nil {
		if op != "" {
			return fmt.Errorf("%w: %s: %w", marker, op, err)
		}
		return fmt.Errorf("%w: %w", marker, err)
	}
	if op != "" {
		return fmt.Errorf("%w: %s", marker, op)
	}
	return marker
}

// IsTransient reports whether the failure is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable)
}

// IsGone reports whether the target object already disappeared. Cleanup paths
// treat this as success.
func IsGone(err error) bool {
	return errors.Is(err, ErrNotFound)
}
