package impl

import (
	"errors"
	"fmt"

	"tacacs-admin/internal/domain"
	"tacacs-admin/internal/store"
)

var (
	ErrEmptyPassword = errors.New("empty password")
	ErrEmptyName     = errors.New("empty name")
)

// notFoundAs replaces a store miss with the domain error for the entity.
func notFoundAs(err, target error) error {
	if errors.Is(err, store.ErrRecordNotFound) {
		return target
	}
	return err
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, fmt.Sprintf(format, args...))
}
