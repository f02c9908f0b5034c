package ledger

import (
	"context"
	"errors"
	"testing"

	"veritas/internal/domain"
)

type scriptedAPI struct {
	*Memory
	registerCalls int
	registerErr   error
}

func (s *scriptedAPI) Register(ctx context.Context, fingerprint string) (string, error) {
	s.registerCalls++
	if s.registerErr != nil {
		return "", s.registerErr
	}
	return s.Memory.Register(ctx, fingerprint)
}

func TestRegister_Idempotent(t *testing.T) {
	api := &scriptedAPI{Memory: NewMemory("tester")}
	svc, err := NewService(api)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	first, err := svc.Register(ctx, "abc123")
	if err != nil {
		t.Fatalf("first register: %v", err)
	}
	if first.AlreadyRegistered {
		t.Fatal("first register reported already registered")
	}
	if first.TxRef == "" {
		t.Fatal("first register returned no tx ref")
	}
	if first.State != domain.RegistrationRegistered {
		t.Fatalf("got state %s, want registered", first.State)
	}

	second, err := svc.Register(ctx, "abc123")
	if err != nil {
		t.Fatalf("second register: %v", err)
	}
	if !second.AlreadyRegistered {
		t.Fatal("second register did not report already registered")
	}
	if second.TxRef != "" {
		t.Fatalf("already-registered result carried a tx ref: %s", second.TxRef)
	}
	if api.registerCalls != 1 {
		t.Fatalf("ledger write issued %d times, want 1", api.registerCalls)
	}
}

func TestRegister_IndeterminateKeepsPending(t *testing.T) {
	api := &scriptedAPI{Memory: NewMemory("tester"), registerErr: domain.ErrIndeterminateState}
	svc, _ := NewService(api)

	_, err := svc.Register(context.Background(), "abc123")
	if !errors.Is(err, domain.ErrIndeterminateState) {
		t.Fatalf("expected ErrIndeterminateState, got %v", err)
	}
	// The transaction may still confirm; the client must not forget it was
	// submitted.
	if got := svc.State("abc123"); got != domain.RegistrationPending {
		t.Fatalf("got state %s, want pending", got)
	}
}

func TestRegister_UnavailableResetsToUnknown(t *testing.T) {
	api := &scriptedAPI{Memory: NewMemory("tester"), registerErr: domain.ErrLedgerUnavailable}
	svc, _ := NewService(api)

	_, err := svc.Register(context.Background(), "abc123")
	if !errors.Is(err, domain.ErrLedgerUnavailable) {
		t.Fatalf("expected ErrLedgerUnavailable, got %v", err)
	}
	if got := svc.State("abc123"); got != domain.RegistrationUnknown {
		t.Fatalf("got state %s, want unknown", got)
	}
}

func TestExists_TransitionsDirectlyToRegistered(t *testing.T) {
	mem := NewMemory("tester")
	if _, err := mem.Register(context.Background(), "abc123"); err != nil {
		t.Fatalf("seed register: %v", err)
	}
	svc, _ := NewService(mem)

	exists, err := svc.Exists(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Fatal("exists returned false for a registered fingerprint")
	}
	if got := svc.State("abc123"); got != domain.RegistrationRegistered {
		t.Fatalf("got state %s, want registered", got)
	}
}

func TestMemory_MetadataAndVerify(t *testing.T) {
	mem := NewMemory("tester")
	ctx := context.Background()

	if _, err := mem.Metadata(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	ok, err := mem.Verify(ctx, "missing")
	if err != nil || ok {
		t.Fatalf("verify of missing fingerprint: ok=%v err=%v", ok, err)
	}

	if _, err := mem.Register(ctx, "abc123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	entry, err := mem.Metadata(ctx, "abc123")
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if entry.Registrant != "tester" || entry.Timestamp.IsZero() {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}
