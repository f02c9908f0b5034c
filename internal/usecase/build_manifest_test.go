package usecase

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"testing"

	"veritas/internal/domain"
	"veritas/internal/infra/crypto"
)

func testRecords(names ...string) []domain.Record {
	out := make([]domain.Record, len(names))
	for i, name := range names {
		out[i] = domain.Record{
			SourceID: "doc-" + name,
			OwnerID:  "owner-1",
			Title:    "CV " + name,
			Body:     map[string]any{"name": name},
		}
	}
	return out
}

func newBuildUC(repo ManifestRepository) *BuildManifest {
	return &BuildManifest{Manifests: repo, Crypto: crypto.NewService()}
}

func TestBuildManifest_FirstBuild(t *testing.T) {
	repo := newMemRepo()
	uc := newBuildUC(repo)

	m, err := uc.Execute(context.Background(), BuildManifestRequest{
		OwnerID: "owner-1",
		Records: testRecords("a", "b"),
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if m.Version != 1 {
		t.Fatalf("got version %d, want 1", m.Version)
	}
	if m.RegisteredOnChain {
		t.Fatal("fresh manifest reported registered")
	}
	if raw, err := hex.DecodeString(m.PublicID); err != nil || len(raw) != 16 {
		t.Fatalf("public id is not 16 random bytes of hex: %q", m.PublicID)
	}
	if len(m.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(m.Records))
	}
	if m.ManifestHash == "" {
		t.Fatal("manifest hash is empty")
	}
	for _, r := range m.Records {
		if r.Fingerprint == "" {
			t.Fatalf("record %s has no fingerprint", r.SourceID)
		}
	}
}

func TestBuildManifest_RebuildBumpsVersionKeepsPublicID(t *testing.T) {
	repo := newMemRepo()
	uc := newBuildUC(repo)
	ctx := context.Background()

	first, err := uc.Execute(ctx, BuildManifestRequest{OwnerID: "owner-1", Records: testRecords("a", "b")})
	if err != nil {
		t.Fatalf("first build: %v", err)
	}

	second, err := uc.Execute(ctx, BuildManifestRequest{OwnerID: "owner-1", Records: testRecords("a", "b", "c")})
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if second.Version != first.Version+1 {
		t.Fatalf("got version %d, want %d", second.Version, first.Version+1)
	}
	if second.PublicID != first.PublicID {
		t.Fatal("rebuild changed the public id")
	}
	if second.ManifestHash == first.ManifestHash {
		t.Fatal("rebuild with different records kept the same manifest hash")
	}
	if second.RegisteredOnChain {
		t.Fatal("rebuild did not reset the on-chain flag")
	}

	// The original version stays checkable.
	old, err := repo.GetVersion(ctx, first.PublicID, first.Version)
	if err != nil {
		t.Fatalf("historical version: %v", err)
	}
	if old.ManifestHash != first.ManifestHash {
		t.Fatal("historical manifest hash was altered")
	}
}

func TestBuildManifest_SameRecordsSameVersionHash(t *testing.T) {
	repoA := newMemRepo()
	repoB := newMemRepo()
	ctx := context.Background()

	a, err := newBuildUC(repoA).Execute(ctx, BuildManifestRequest{OwnerID: "owner-1", Records: testRecords("a", "b")})
	if err != nil {
		t.Fatalf("build a: %v", err)
	}
	b, err := newBuildUC(repoB).Execute(ctx, BuildManifestRequest{OwnerID: "owner-1", Records: testRecords("a", "b")})
	if err != nil {
		t.Fatalf("build b: %v", err)
	}
	if a.ManifestHash != b.ManifestHash {
		t.Fatal("identical record sets at the same version produced different manifest hashes")
	}
	if a.PublicID == b.PublicID {
		t.Fatal("independent builds minted the same public id")
	}
}

func TestBuildManifest_RetainCanonicalForms(t *testing.T) {
	repo := newMemRepo()
	uc := newBuildUC(repo)
	uc.RetainCanonicalForms = true

	m, err := uc.Execute(context.Background(), BuildManifestRequest{OwnerID: "owner-1", Records: testRecords("a")})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if m.Records[0].CanonicalForm == nil {
		t.Fatal("canonical form not retained")
	}
	if _, leaked := m.Records[0].CanonicalForm["ownerId"]; leaked {
		t.Fatal("owner id leaked into retained canonical form")
	}
}

// barrierRepo holds every builder between its owner read and its save, so all
// of them observe "no manifest yet" before any head row exists.
type barrierRepo struct {
	*memRepo
	readGate *sync.WaitGroup
}

func (r *barrierRepo) GetByOwner(ctx context.Context, ownerID string) (domain.Manifest, error) {
	m, err := r.memRepo.GetByOwner(ctx, ownerID)
	r.readGate.Done()
	r.readGate.Wait()
	return m, err
}

func TestBuildManifest_ConcurrentFirstBuildsSingleHead(t *testing.T) {
	const builders = 4
	repo := newMemRepo()
	gate := &sync.WaitGroup{}
	gate.Add(builders)
	uc := newBuildUC(&barrierRepo{memRepo: repo, readGate: gate})

	errs := make([]error, builders)
	var wg sync.WaitGroup
	for i := 0; i < builders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.Execute(context.Background(), BuildManifestRequest{
				OwnerID: "owner-1",
				Records: testRecords("a"),
			})
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, domain.ErrVersionConflict):
			// The loser re-fetches and rebuilds against the surviving head.
		default:
			t.Fatalf("unexpected build error: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("%d builds won, want exactly 1", won)
	}

	heads := 0
	for _, m := range repo.heads {
		if m.OwnerID == "owner-1" {
			heads++
		}
	}
	if heads != 1 {
		t.Fatalf("%d head manifests for one owner, want 1", heads)
	}
}

func TestBuildManifest_Validation(t *testing.T) {
	uc := newBuildUC(newMemRepo())
	ctx := context.Background()

	if _, err := uc.Execute(ctx, BuildManifestRequest{Records: testRecords("a")}); err == nil {
		t.Fatal("expected error for missing owner")
	}
	if _, err := uc.Execute(ctx, BuildManifestRequest{OwnerID: "owner-1"}); err == nil {
		t.Fatal("expected error for empty record set")
	}
}
