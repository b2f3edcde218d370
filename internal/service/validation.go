package service

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"bloglist/internal/domain"
)

// fieldError converts ozzo validation errors into a domain.ValidationError naming
// the first offending field in order.
func fieldError(err error, order ...string) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	for _, field := range order {
		fe, ok := errs[field]
		if !ok {
			continue
		}
		reason := fe.Error()
		if len(errs) > 1 {
			reason = strings.TrimSuffix(errs.Error(), ".")
		}
		return &domain.ValidationError{Field: field, Reason: reason}
	}
	return &domain.ValidationError{Reason: errs.Error()}
}

// parseID normalizes an entity id, rejecting anything that is not a uuid.
func parseID(id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", &domain.ValidationError{Field: "id", Reason: "malformatted id"}
	}
	return parsed.String(), nil
}
