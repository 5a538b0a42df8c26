package errs

import (
	"errors"
	"fmt"
)

// ValidationError indicates bad input, rejected before any state change.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func NewValidation(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// NotFoundError indicates a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func NewNotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// PermissionDeniedError indicates the actor is not authorized for the requested action.
type PermissionDeniedError struct {
	Actor  string
	Action string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("actor %s is not allowed to %s", e.Actor, e.Action)
}

func NewPermissionDenied(actor, action string) error {
	return &PermissionDeniedError{Actor: actor, Action: action}
}

// InvalidStateError indicates the requested transition is not legal from the current state.
type InvalidStateError struct {
	Entity  string
	Current string
	Action  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s in status %q", e.Action, e.Entity, e.Current)
}

func NewInvalidState(entity, current, action string) error {
	return &InvalidStateError{Entity: entity, Current: current, Action: action}
}

// ConfigurationError indicates a party is missing required configuration,
// e.g. a provider with no payout destination.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

func NewConfiguration(msg string) error {
	return &ConfigurationError{Message: msg}
}

// GatewayError indicates the external transfer call failed or timed out.
type GatewayError struct {
	Gateway string
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s gateway error: %s", e.Gateway, e.Message)
}

func NewGateway(gateway, msg string) error {
	return &GatewayError{Gateway: gateway, Message: msg}
}

// ConcurrencyConflictError indicates an optimistic-concurrency failure on a racing update.
type ConcurrencyConflictError struct {
	Entity string
	ID     string
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("concurrent update detected on %s %s", e.Entity, e.ID)
}

func NewConcurrencyConflict(entity, id string) error {
	return &ConcurrencyConflictError{Entity: entity, ID: id}
}

// IsConcurrencyConflict reports whether err is (or wraps) a ConcurrencyConflictError.
func IsConcurrencyConflict(err error) bool {
	var cc *ConcurrencyConflictError
	return errors.As(err, &cc)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsInvalidState reports whether err is (or wraps) an InvalidStateError.
func IsInvalidState(err error) bool {
	var is *InvalidStateError
	return errors.As(err, &is)
}

// IsConfiguration reports whether err is (or wraps) a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
