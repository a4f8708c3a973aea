package domain

import "errors"

// Business-rule and validation errors. Callers classify failures with
// errors.Is; each error maps to a distinct user-facing message in the
// presentation layer.
var (
	// ErrDuplicateSymbol is returned when adding a stock whose normalized
	// symbol already exists in the portfolio.
	ErrDuplicateSymbol = errors.New("symbol already exists in portfolio")

	// ErrStockNotFound is returned by lookups and by operations that
	// target a symbol not present in the portfolio.
	ErrStockNotFound = errors.New("stock not found in portfolio")

	// ErrInsufficientShares is returned when a sell exceeds the current
	// holding.
	ErrInsufficientShares = errors.New("insufficient shares")

	// Validation errors for primitive inputs.
	ErrEmptySymbol     = errors.New("symbol must not be empty")
	ErrEmptyName       = errors.New("company name must not be empty")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidPrice    = errors.New("closing price must be positive")
	ErrInvalidVolume   = errors.New("volume must not be negative")
)
