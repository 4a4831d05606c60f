package engine

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"

	"github.com/xenking/oolio-pos/internal/domain/order"
)

// InvalidInputError reports input rejected before it reached the order.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a user-correctable rejection rather
// than an internal failure.
func IsValidation(err error) bool {
	var (
		invalid  *InvalidInputError
		notFound *order.DraftNotFoundError
	)
	return errors.Is(err, order.ErrEmptyOrder) ||
		errors.As(err, &invalid) ||
		errors.As(err, &notFound)
}

func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &InvalidInputError{Field: fe.Field(), Reason: "failed " + fe.Tag()}
	}
	return &InvalidInputError{Reason: err.Error()}
}
