package api

import (
	"errors"

	"feedback-hub/backend/internal/queue"
	"feedback-hub/backend/internal/service"
	apperrors "feedback-hub/backend/pkg/errors"
)

// toAppError maps service errors onto the API error envelope.
func toAppError(err error) *apperrors.AppError {
	var (
		validationErr *service.ValidationError
		invalidErr    *service.InvalidInputError
	)

	switch {
	case errors.As(err, &validationErr):
		return apperrors.NewBadRequestError(apperrors.CodeValidation, validationErr.Reason)
	case errors.As(err, &invalidErr):
		return apperrors.NewBadRequestError(apperrors.CodeInvalidInput, invalidErr.Reason)
	case errors.Is(err, service.ErrRunNotFound):
		return apperrors.NewNotFoundError(apperrors.CodeRunNotFound, "run not found")
	case errors.Is(err, service.ErrRunNotRetryable):
		return apperrors.NewConflictError(apperrors.CodeRunNotRetryable, "only failed runs can be retried")
	case errors.Is(err, queue.ErrQueueFull), errors.Is(err, queue.ErrClosed):
		return apperrors.NewServiceUnavailableError(apperrors.CodeQueueFull, "pipeline is busy, try again later").WithCause(err)
	}

	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}
	return apperrors.NewInternalServerError(apperrors.CodeInternal, "An unexpected error occurred").WithCause(err)
}
