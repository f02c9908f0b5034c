package domain

import "errors"

var (
	ErrInvalidInputKind   = errors.New("invalid input kind")
	ErrMissingCredential  = errors.New("missing credential")
	ErrNotFound           = errors.New("not found")
	ErrVersionConflict    = errors.New("manifest version conflict")
	ErrLedgerUnavailable  = errors.New("ledger unavailable")
	ErrIndeterminateState = errors.New("ledger transaction state indeterminate")
	ErrSignatureMismatch  = errors.New("signature mismatch")
)
