package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound     = errors.New("player not found")
	ErrRecipientNotFound  = errors.New("recipient player not found")
	ErrConnectionNotFound = errors.New("no player for connection")

	// Action errors
	ErrActionNotFound    = errors.New("action not found")
	ErrUnknownActionKind = errors.New("unknown action kind")
	ErrMalformedDetails  = errors.New("malformed action details")
	ErrInvalidDetails    = errors.New("invalid action details")

	// Transaction errors
	ErrAssetNotFound     = errors.New("asset not found")
	ErrLiabilityNotFound = errors.New("liability not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)
