package errors

import (
	"fmt"
	"strings"
)

// Append combines any number of errors into a single error instance. Nil
// values are ignored. If only a single non nil error is given it is returned
// directly, without a container. Append is most useful for message Validate
// implementations that want to report all broken fields at once.
func Append(errs ...error) error {
	var res []error
	for _, err := range errs {
		switch e := err.(type) {
		case nil:
			continue
		case *multiError:
			res = append(res, e.errs...)
		default:
			if isNilErr(err) {
				continue
			}
			res = append(res, err)
		}
	}

	switch len(res) {
	case 0:
		return nil
	case 1:
		return res[0]
	default:
		return &multiError{errs: res}
	}
}

type multiError struct {
	errs []error
}

func (e *multiError) Error() string {
	if len(e.errs) == 1 {
		return e.errs[0].Error()
	}
	points := make([]string, len(e.errs))
	for i, err := range e.errs {
		points[i] = fmt.Sprintf("* %s", err)
	}
	return fmt.Sprintf("%d errors occurred:\n\t%s",
		len(e.errs), strings.Join(points, "\n\t"))
}

// Code returns the protocol code of the first contained error.
func (e *multiError) Code() uint32 {
	if len(e.errs) == 0 {
		return internalCode
	}
	return Code(e.errs[0])
}

// Contains first returns true if at least one of the contained errors is of
// given kind.
func (e *multiError) Contains(kind *Error) bool {
	for _, err := range e.errs {
		if kind.Is(err) {
			return true
		}
	}
	return false
}
