package domain

import "fmt"

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is invalid", e.Field)
	}
	return e.Reason
}

// NotFoundError reports that an entity does not exist, or no longer exists.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ForbiddenError reports an authenticated actor attempting an action it is not allowed to perform.
type ForbiddenError struct {
	ActorID string
	Action  Action
	Reason  string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

// AuthenticationError reports a missing or unverifiable identity.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return e.Reason
}

// ConflictError reports a uniqueness violation on Field.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("expected `%s` to be unique", e.Field)
}
