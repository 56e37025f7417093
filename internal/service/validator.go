package service

import (
	"strings"

	"feedback-hub/backend/internal/models"
)

// ReasonMessageRequired is the validation reason for a blank message.
const ReasonMessageRequired = "message required"

// Validate checks a submission and fills in defaults. A message made only of
// whitespace is rejected; a missing source or product becomes "unknown".
// The message itself is passed through untouched.
func Validate(sub models.FeedbackSubmission) (models.ValidatedSubmission, error) {
	if strings.TrimSpace(sub.Message) == "" {
		return models.ValidatedSubmission{}, &ValidationError{Reason: ReasonMessageRequired}
	}

	return models.ValidatedSubmission{
		Message: sub.Message,
		Source:  orUnknown(sub.Source),
		Product: orUnknown(sub.Product),
	}, nil
}

func orUnknown(s string) string {
	if s == "" {
		return models.UnknownValue
	}
	return s
}
