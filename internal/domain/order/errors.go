package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrEmptyOrder is returned when an operation requires at least one line item.
var ErrEmptyOrder = errors.New("order has no items")

// DraftNotFoundError indicates a draft index outside the draft list.
type DraftNotFoundError struct {
	Index int
}

func (e *DraftNotFoundError) Error() string {
	return fmt.Sprintf("draft %d not found", e.Index)
}
