package ledger

import (
	"context"
	"errors"
	"sync"

	"veritas/internal/domain"
)

// Service wraps the ledger API with idempotent register semantics and the
// per-fingerprint registration state machine. It never retries a submitted
// transaction; an indeterminate outcome is surfaced to the caller, who must
// confirm non-existence via Exists before retrying.
type Service struct {
	api API

	mu     sync.Mutex
	states map[string]domain.RegistrationState
}

func NewService(api API) (*Service, error) {
	if api == nil {
		return nil, errors.New("ledger api is nil")
	}
	return &Service{
		api:    api,
		states: make(map[string]domain.RegistrationState),
	}, nil
}

// Register registers a fingerprint on the ledger. An already-present
// fingerprint is reported as success with AlreadyRegistered set and no
// transaction reference; the original transaction is not recoverable from the
// presence check, and a duplicate write on an append-only ledger would be
// rejected or wastefully costly.
func (s *Service) Register(ctx context.Context, fingerprint string) (domain.RegisterResult, error) {
	if fingerprint == "" {
		return domain.RegisterResult{}, errors.New("fingerprint is required")
	}

	exists, err := s.api.Exists(ctx, fingerprint)
	if err != nil {
		return domain.RegisterResult{}, err
	}
	if exists {
		s.setState(fingerprint, domain.RegistrationRegistered)
		return domain.RegisterResult{
			Fingerprint:       fingerprint,
			AlreadyRegistered: true,
			State:             domain.RegistrationRegistered,
		}, nil
	}

	s.setState(fingerprint, domain.RegistrationPending)
	txRef, err := s.api.Register(ctx, fingerprint)
	if err != nil {
		// Pending is retained on an indeterminate outcome: the transaction
		// may still confirm.
		if !errors.Is(err, domain.ErrIndeterminateState) {
			s.setState(fingerprint, domain.RegistrationUnknown)
		}
		return domain.RegisterResult{Fingerprint: fingerprint, State: s.State(fingerprint)}, err
	}

	s.setState(fingerprint, domain.RegistrationRegistered)
	return domain.RegisterResult{
		Fingerprint: fingerprint,
		TxRef:       txRef,
		State:       domain.RegistrationRegistered,
	}, nil
}

// Exists never mutates ledger state and is safe to retry indefinitely.
func (s *Service) Exists(ctx context.Context, fingerprint string) (bool, error) {
	exists, err := s.api.Exists(ctx, fingerprint)
	if err != nil {
		return false, err
	}
	if exists {
		s.setState(fingerprint, domain.RegistrationRegistered)
	}
	return exists, nil
}

// Verify is the proof-of-authenticity check; Exists is the presence check
// used during manifest sync.
func (s *Service) Verify(ctx context.Context, fingerprint string) (bool, error) {
	return s.api.Verify(ctx, fingerprint)
}

func (s *Service) Metadata(ctx context.Context, fingerprint string) (domain.LedgerEntry, error) {
	return s.api.Metadata(ctx, fingerprint)
}

// State reports the client-side view; there is no transition back to Unknown
// once a fingerprint is Registered.
func (s *Service) State(fingerprint string) domain.RegistrationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[fingerprint]; ok {
		return st
	}
	return domain.RegistrationUnknown
}

func (s *Service) setState(fingerprint string, next domain.RegistrationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.states[fingerprint] == domain.RegistrationRegistered {
		return
	}
	s.states[fingerprint] = next
}
