package apperrors

import (
	"fmt"

	"route_registry/internal/models"
)

// ValidationError reports a malformed or out-of-range field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidation builds a ValidationError for a field.
func NewValidation(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// DuplicateNameError reports a route name collision and carries the
// conflicting route so callers can render it.
type DuplicateNameError struct {
	Name        string
	Conflicting *models.Route
}

func (e *DuplicateNameError) Error() string {
	if e.Conflicting != nil {
		return fmt.Sprintf("route name %q already exists (route id %d)", e.Name, e.Conflicting.ID)
	}
	return fmt.Sprintf("route name %q already exists", e.Name)
}

// ZeroDistanceRouteError reports a route whose endpoints coincide while a
// positive distance was requested. Carries the offending coordinate pair.
type ZeroDistanceRouteError struct {
	FromX, FromY float64
	ToX, ToY     float64
}

func (e *ZeroDistanceRouteError) Error() string {
	return fmt.Sprintf("route has identical start and end points: from=(%g, %g) to=(%g, %g)",
		e.FromX, e.FromY, e.ToX, e.ToY)
}

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with id %d", e.Entity, e.ID)
}

// InvalidArgumentError reports a bad sort column, cursor or page size.
type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string { return e.Message }

// NewInvalidArgument builds an InvalidArgumentError.
func NewInvalidArgument(format string, args ...interface{}) *InvalidArgumentError {
	return &InvalidArgumentError{Message: fmt.Sprintf(format, args...)}
}

// InvalidRebindTargetError reports a rebind candidate that does not reference
// the shared object it is supposed to take over.
type InvalidRebindTargetError struct {
	Relation      string
	TargetRouteID uint
}

func (e *InvalidRebindTargetError) Error() string {
	return fmt.Sprintf("route %d does not reference the %s object and cannot take ownership",
		e.TargetRouteID, e.Relation)
}

// MissingRebindTargetError reports a relation that needs a rebind target none
// was supplied for. The whole delete fails before any mutation.
type MissingRebindTargetError struct {
	Relation string
}

func (e *MissingRebindTargetError) Error() string {
	return fmt.Sprintf("shared %s object is still referenced by other routes; a rebind target is required", e.Relation)
}

// ImportAbortedError reports an aborted bulk import and carries the full
// per-record error list.
type ImportAbortedError struct {
	OperationID uint
	Errors      []string
}

func (e *ImportAbortedError) Error() string {
	return fmt.Sprintf("import aborted with %d error(s)", len(e.Errors))
}
