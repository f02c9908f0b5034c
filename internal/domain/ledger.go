package domain

import "time"

// RegistrationState tracks a fingerprint from the client's point of view.
// There is no transition back to Unknown; the external ledger is append-only.
type RegistrationState string

const (
	RegistrationUnknown    RegistrationState = "unknown"
	RegistrationPending    RegistrationState = "pending"
	RegistrationRegistered RegistrationState = "registered"
)

// LedgerEntry is the ledger-owned metadata for a registered fingerprint.
type LedgerEntry struct {
	Fingerprint string    `json:"fingerprint"`
	Registrant  string    `json:"registrant"`
	Timestamp   time.Time `json:"timestamp"`
}

// RegisterResult is the outcome of a register call. AlreadyRegistered is the
// success path for an idempotent re-registration; in that case TxRef is empty
// because the original transaction reference is not recoverable from the
// exists check alone.
type RegisterResult struct {
	Fingerprint       string            `json:"fingerprint"`
	TxRef             string            `json:"txRef,omitempty"`
	AlreadyRegistered bool              `json:"alreadyRegistered"`
	State             RegistrationState `json:"state"`
}
