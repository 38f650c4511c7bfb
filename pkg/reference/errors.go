package reference

import (
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
)

// InvalidReferenceFormatError is returned for an id that is not a valid key.
type InvalidReferenceFormatError struct {
	Field string
	Raw   string
}

func (e *InvalidReferenceFormatError) Error() string {
	return fmt.Sprintf("Invalid %s: %s", e.Field, e.Raw)
}

func (e *InvalidReferenceFormatError) StatusCode() int {
	return http.StatusBadRequest
}

func (e *InvalidReferenceFormatError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(e.StatusCode(), e.Error()).AddMetaValue("field", e.Field)
}

// ReferenceTargetNotFoundError is returned when a well-formed typed link points
// at a record that does not exist.
type ReferenceTargetNotFoundError struct {
	Field      string
	TargetKind string
	Raw        string
}

func (e *ReferenceTargetNotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.TargetKind, e.Raw)
}

func (e *ReferenceTargetNotFoundError) StatusCode() int {
	return http.StatusNotFound
}

func (e *ReferenceTargetNotFoundError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(e.StatusCode(), e.Error()).AddMetaValue("field", e.Field)
}

// UnknownEntityTypeError is returned for a polymorphic type outside EntityTypes.
type UnknownEntityTypeError struct {
	Field      string
	EntityType string
}

func (e *UnknownEntityTypeError) Error() string {
	return fmt.Sprintf("Invalid %s: %s", e.Field, e.EntityType)
}

func (e *UnknownEntityTypeError) StatusCode() int {
	return http.StatusBadRequest
}

func (e *UnknownEntityTypeError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(e.StatusCode(), e.Error()).AddMetaValue("field", e.Field)
}

// IncompletePolymorphicReferenceError is returned when only one half of a
// polymorphic pair is present, or neither half when the pair is required.
type IncompletePolymorphicReferenceError struct {
	TypeField string
	IDField   string
	Required  bool
}

func (e *IncompletePolymorphicReferenceError) Error() string {
	if e.Required {
		return fmt.Sprintf("%s and %s are required", e.TypeField, e.IDField)
	}
	return fmt.Sprintf("%s and %s must be provided together", e.TypeField, e.IDField)
}

func (e *IncompletePolymorphicReferenceError) StatusCode() int {
	return http.StatusBadRequest
}

func (e *IncompletePolymorphicReferenceError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(e.StatusCode(), e.Error()).
		AddMetaValue("type_field", e.TypeField).
		AddMetaValue("id_field", e.IDField)
}

// ParentNotFoundError is returned when the record being read, updated or
// deleted does not exist.
type ParentNotFoundError struct {
	Kind string
	ID   string
}

func (e *ParentNotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Kind)
}

func (e *ParentNotFoundError) StatusCode() int {
	return http.StatusNotFound
}

func (e *ParentNotFoundError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(e.StatusCode(), e.Error()).AddMetaValue("id", e.ID)
}
