package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyOrder      = errors.New("order has no items")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrBadCreds        = errors.New("invalid email or password")
	ErrEmailTaken      = errors.New("email already registered")
)

// ProductNotFoundError reports a line referencing a product that does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (need %d, have %d)", e.ProductID, e.Requested, e.Available)
}

type TotalMismatchError struct {
	Client   decimal.Decimal
	Computed decimal.Decimal
}

func (e *TotalMismatchError) Error() string {
	return fmt.Sprintf("order total %s does not match computed total %s", e.Client.StringFixed(2), e.Computed.StringFixed(2))
}

// CreationError wraps an unexpected storage failure while writing the order or stock.
type CreationError struct {
	Err error
}

func (e *CreationError) Error() string { return "create order: " + e.Err.Error() }
func (e *CreationError) Unwrap() error { return e.Err }
