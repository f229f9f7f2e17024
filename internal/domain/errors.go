package domain

import "errors"

// Error taxonomy for the trading core. Handlers map these onto HTTP
// status codes; everything else is treated as an internal error.

// Validation errors: client-caused, recoverable locally.
var (
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrInvalidPrice      = errors.New("price per share must be positive")
	ErrUnknownTicker     = errors.New("ticker is not listed on the exchange")
	ErrPortfolioNotFound = errors.New("portfolio not found")
	ErrPositionNotFound  = errors.New("no position held for this ticker")
	ErrSnapshotNotFound  = errors.New("no snapshot for this portfolio and date")
	ErrPortfolioExists   = errors.New("a portfolio already exists for this user")
)

// Business-rule errors: expected, surfaced to the caller, no retry.
var (
	ErrInsufficientFunds  = errors.New("insufficient funds to cover this purchase")
	ErrInsufficientShares = errors.New("sell quantity exceeds shares held")
	ErrStalePrice         = errors.New("submitted price deviates from the current quote")
)

// Dependency errors are transient; the caller may retry, the engine never does.
var (
	ErrQuoteUnavailable = errors.New("no quote available for this ticker")
	ErrLockTimeout      = errors.New("timed out waiting for the portfolio lock")
)

// Integrity errors indicate a bug, not a user error. Writes to the
// affected portfolio are halted pending manual reconciliation.
var (
	ErrIntegrityViolation = errors.New("ledger integrity violation detected")
	ErrPortfolioHalted    = errors.New("portfolio is halted pending reconciliation")
)
