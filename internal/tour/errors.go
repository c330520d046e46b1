package tour

import "errors"

var (
	// ErrNotFound is returned when the requested id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned for non-positive ids and foreign keys.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError names the first input field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is makes errors.Is(err, ErrValidation) true for any ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// argumentError carries a user-facing message while matching ErrInvalidArgument.
type argumentError struct{ msg string }

func (e *argumentError) Error() string        { return e.msg }
func (e *argumentError) Is(target error) bool { return target == ErrInvalidArgument }

// notFoundError carries a user-facing message while matching ErrNotFound.
type notFoundError struct{ msg string }

func (e *notFoundError) Error() string        { return e.msg }
func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }

func invalidID(entity string) error {
	return &argumentError{msg: "Invalid " + entity + " ID"}
}

func notFound(entity string) error {
	return &notFoundError{msg: capitalize(entity) + " not found"}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
