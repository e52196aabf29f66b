package services

import (
	"errors"
	"fmt"
)

// ValidationError marks malformed input or a broken business rule.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError marks a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// AuthorizationError means the actor is not a participant of the match.
type AuthorizationError struct {
	UserID string
	Action string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %s is not allowed to %s", e.UserID, e.Action)
}

// InsufficientPointsError is returned when a ranking update would go below zero.
type InsufficientPointsError struct {
	UserID  string
	Current int
	Delta   int
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("user %s has insufficient rank points (%d, delta %d)", e.UserID, e.Current, e.Delta)
}

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsAuthorization(err error) bool {
	var target *AuthorizationError
	return errors.As(err, &target)
}

func IsInsufficientPoints(err error) bool {
	var target *InsufficientPointsError
	return errors.As(err, &target)
}
