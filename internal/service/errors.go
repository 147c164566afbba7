package service

import (
	"context"
	"errors"

	"github.com/jwalitptl/slotbook-api/internal/repository"
	apperrors "github.com/jwalitptl/slotbook-api/pkg/errors"
)

// FromRepository translates repository sentinels into application errors.
// AppErrors already in the chain pass through unchanged.
func FromRepository(resource string, err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound(resource, err)
	case errors.Is(err, repository.ErrStaleState):
		return apperrors.InvalidState(resource + " was modified concurrently, retry with fresh state")
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.Conflict(resource+" already exists", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout(err)
	default:
		return apperrors.Internal(err)
	}
}
