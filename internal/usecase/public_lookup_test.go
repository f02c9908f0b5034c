package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"veritas/internal/domain"
	"veritas/internal/infra/crypto"
)

func TestPublicLookup_UnknownCode(t *testing.T) {
	uc := &PublicLookup{Manifests: newMemRepo()}

	if _, err := uc.Execute(context.Background(), "unknown"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := uc.Execute(context.Background(), ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty code, got %v", err)
	}
}

func TestPublicLookup_StripsOwner(t *testing.T) {
	repo := newMemRepo()
	build := &BuildManifest{Manifests: repo, Crypto: crypto.NewService(), RetainCanonicalForms: true}
	ctx := context.Background()

	m, err := build.Execute(ctx, BuildManifestRequest{OwnerID: "owner-1", Records: testRecords("a")})
	if err != nil {
		t.Fatalf("seed build: %v", err)
	}

	uc := &PublicLookup{Manifests: repo}
	view, err := uc.Execute(ctx, m.PublicID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if view.PublicID != m.PublicID || view.Version != m.Version || view.ManifestHash != m.ManifestHash {
		t.Fatalf("projection does not match manifest: %+v", view)
	}
	if view.RecordCount != 1 {
		t.Fatalf("got record count %d, want 1", view.RecordCount)
	}

	payload, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("marshal view: %v", err)
	}
	if strings.Contains(string(payload), "owner") {
		t.Fatalf("public payload leaks an owner field: %s", payload)
	}
}
