package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Blog lifecycle errors
var (
	ErrAlreadyPublished  = fmt.Errorf("blog is already published: %w", ErrConflict)
	ErrAlreadyMember     = fmt.Errorf("already a member of this room: %w", ErrConflict)
	ErrJoinCodeExhausted = errors.New("could not allocate a unique join code")
)

// NewPermissionDeniedError is returned when the caller is known but lacks
// rights on the target entity.
func NewPermissionDeniedError(message string) *ApiErr {
	return NewForbiddenError(message)
}

// NewValidationError reports a malformed field in an otherwise parseable body.
func NewValidationError(field, details string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        withKind(ErrInvalidField, "Invalid input"),
		Field:      field,
		Details:    details,
	}
}

func NewAlreadyPublishedError() *ApiErr {
	return &ApiErr{StatusCode: http.StatusConflict, err: ErrAlreadyPublished}
}

func NewAlreadyMemberError() *ApiErr {
	return &ApiErr{StatusCode: http.StatusConflict, err: ErrAlreadyMember}
}

func NewJoinCodeExhaustedError(attempts int) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrJoinCodeExhausted,
		Details:    fmt.Sprintf("no free code after %d attempts, please try again", attempts),
	}
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidField)
}

func IsAlreadyPublished(err error) bool {
	return errors.Is(err, ErrAlreadyPublished)
}

func IsAlreadyMember(err error) bool {
	return errors.Is(err, ErrAlreadyMember)
}
