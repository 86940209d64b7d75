package orders

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrOrderNotFound = errors.New("order not found")
)

// InsufficientStockError names the first cart line whose quantity exceeds the stock
// read under lock. Available is 0 when the product no longer exists.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// StorageError wraps any failure of the underlying transaction. When it is returned
// nothing was committed, so the whole placement can be retried.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// isOutcome reports whether err is a business outcome rather than a storage failure.
func isOutcome(err error) bool {
	var ise *InsufficientStockError
	return errors.Is(err, ErrEmptyCart) || errors.As(err, &ise)
}
