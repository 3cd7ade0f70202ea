// Package services wraps each backend resource behind a typed service. Every
// response shape inconsistency of the backend is absorbed here, by the
// per-resource normalize functions.
package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotConfirmed rejects a destructive action issued without explicit confirmation.
	ErrNotConfirmed = errors.New("action requires confirmation")
	// ErrValidation marks client-side required-field failures; no request is sent.
	ErrValidation = errors.New("validation failed")
)

// RequireConfirmation returns ErrNotConfirmed unless confirmed is set.
func RequireConfirmation(confirmed bool, action string) error {
	if confirmed {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNotConfirmed, action)
}

// required reports the first empty field as an ErrValidation.
func required(fields ...[2]string) error {
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			return fmt.Errorf("%w: %s is required", ErrValidation, f[0])
		}
	}
	return nil
}
