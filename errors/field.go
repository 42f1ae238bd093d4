package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Field returns an error instance that wraps the original error with
// additional information. It returns `nil` if provided error is `nil`.
// Use this function to create an error instance describing a field/attribute
// error.
//
// Use Go naming for the field name. For example, Owner or Deadline. When the
// error is for a nested field, use dot notation to construct the path. For
// example, Permit.Nonce. When the path includes an iterable, use the element
// index starting with 0 as the name, for example Permitted.0.Amount.
func Field(fieldName string, err error, description string, args ...interface{}) error {
	if isNilErr(err) {
		return nil
	}

	// If this error does not carry the stacktrace information yet, attach
	// one. This should be done only once per error at the lowest frame
	// possible (most inner wrap).
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}

	if len(args) > 0 {
		description = fmt.Sprintf(description, args...)
	}

	return &fieldError{
		parent: err,
		field:  fieldName,
		desc:   description,
	}
}

// AppendField is a shortcut function to club together error(s) with a given
// field error.
func AppendField(errorsOrNil error, fieldName string, fieldErrOrNil error) error {
	return Append(errorsOrNil, Field(fieldName, fieldErrOrNil, ""))
}

type fieldError struct {
	parent error
	field  string
	desc   string
}

func (e *fieldError) Error() string {
	if e.desc == "" {
		return fmt.Sprintf("field %q: %s", e.field, e.parent)
	}
	return fmt.Sprintf("field %q: %s: %s", e.field, e.desc, e.parent)
}

func (e *fieldError) Cause() error {
	return e.parent
}

// Field returns the name of the field that this error describes.
func (e *fieldError) Field() string {
	return e.field
}

// FieldErrors returns the list of all errors that were created for given
// field name. This function recursively mines the error wrap chain and all
// multi error containers.
func FieldErrors(err error, fieldName string) []error {
	if isNilErr(err) {
		return nil
	}

	if multi, ok := err.(*multiError); ok {
		var res []error
		for _, e := range multi.errs {
			res = append(res, FieldErrors(e, fieldName)...)
		}
		return res
	}

	if f, ok := err.(*fieldError); ok {
		if f.field == fieldName {
			return []error{f}
		}
		// Descend into nested validations, so that a query for
		// "Permit.Nonce" finds the "Nonce" error wrapped under the
		// "Permit" field.
		if rest, ok := strings.CutPrefix(fieldName, f.field+"."); ok {
			return FieldErrors(f.parent, rest)
		}
		return nil
	}

	if c, ok := err.(causer); ok {
		return FieldErrors(c.Cause(), fieldName)
	}
	return nil
}

func isNilErr(err error) bool {
	if err == nil {
		return true
	}
	if e, ok := err.(*Error); ok && e == nil {
		return true
	}
	return false
}
