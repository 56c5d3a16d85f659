package orders

import (
	"errors"
	"fmt"
	"strings"

	"harvestly/internal/models"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrAlreadyTerminal = errors.New("order can no longer be cancelled")
	// ErrConflict means the order changed status between read and write.
	ErrConflict = errors.New("order was modified concurrently")
)

// StockViolationError lists every cart line that asks for more than its
// stock snapshot.
type StockViolationError struct {
	Violations []models.StockViolation
}

func (e *StockViolationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

type InvalidTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}
