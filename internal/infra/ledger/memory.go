package ledger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"veritas/internal/domain"
)

// Memory is an in-process ledger used in tests and in no-ledger dev mode.
// Append-only: entries are never removed, and a duplicate registration is
// rejected the way a real append-only ledger would reject it.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]domain.LedgerEntry
	txRefs     map[string]string
	registrant string
	now        func() time.Time
}

func NewMemory(registrant string) *Memory {
	return &Memory{
		entries:    make(map[string]domain.LedgerEntry),
		txRefs:     make(map[string]string),
		registrant: registrant,
		now:        time.Now,
	}
}

func (m *Memory) Exists(_ context.Context, fingerprint string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[fingerprint]
	return ok, nil
}

func (m *Memory) Register(_ context.Context, fingerprint string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[fingerprint]; ok {
		return "", domain.ErrLedgerUnavailable
	}
	ref := make([]byte, 16)
	if _, err := rand.Read(ref); err != nil {
		return "", err
	}
	txRef := "0x" + hex.EncodeToString(ref)
	m.entries[fingerprint] = domain.LedgerEntry{
		Fingerprint: fingerprint,
		Registrant:  m.registrant,
		Timestamp:   m.now().UTC(),
	}
	m.txRefs[fingerprint] = txRef
	return txRef, nil
}

func (m *Memory) Metadata(_ context.Context, fingerprint string) (domain.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[fingerprint]
	if !ok {
		return domain.LedgerEntry{}, domain.ErrNotFound
	}
	return entry, nil
}

func (m *Memory) Verify(ctx context.Context, fingerprint string) (bool, error) {
	return m.Exists(ctx, fingerprint)
}

var _ API = (*Memory)(nil)
