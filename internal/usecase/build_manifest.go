package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"

	"veritas/internal/domain"
)

// BuildManifest assembles the owner's current records into a manifest. A
// first build mints an unguessable public code and starts at version 1; a
// rebuild keeps the code, bumps the version and resets the on-chain flag
// because the new hash is a new claim that must be registered independently.
type BuildManifest struct {
	Manifests ManifestRepository
	Crypto    CryptoService

	// RetainCanonicalForms trades manifest size for the ability to
	// re-verify records without re-fetching the source documents.
	RetainCanonicalForms bool
}

type BuildManifestRequest struct {
	OwnerID string
	Records []domain.Record
}

func (uc *BuildManifest) Execute(ctx context.Context, req BuildManifestRequest) (*domain.Manifest, error) {
	if req.OwnerID == "" {
		return nil, errors.New("owner id is required")
	}
	if len(req.Records) == 0 {
		return nil, errors.New("at least one record is required")
	}

	manifestRecords, err := uc.fingerprintAll(req.Records)
	if err != nil {
		return nil, err
	}

	existing, err := uc.Manifests.GetByOwner(ctx, req.OwnerID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		code, err := newPublicCode()
		if err != nil {
			return nil, err
		}
		existing = domain.Manifest{PublicID: code, OwnerID: req.OwnerID, Version: 0}
	case err != nil:
		return nil, err
	}

	next := domain.Manifest{
		PublicID: existing.PublicID,
		OwnerID:  req.OwnerID,
		Version:  existing.Version + 1,
		Records:  manifestRecords,
		// Reset until the ledger client confirms the new hash.
		RegisteredOnChain: false,
	}
	next.ManifestHash, err = uc.Crypto.ManifestHash(next.Version, fingerprints(manifestRecords))
	if err != nil {
		return nil, err
	}

	if err := uc.Manifests.Save(ctx, next, existing.Version); err != nil {
		return nil, err
	}
	return &next, nil
}

// fingerprintAll canonicalizes and hashes records concurrently; they are
// independent and mutate no shared state.
func (uc *BuildManifest) fingerprintAll(records []domain.Record) ([]domain.ManifestRecord, error) {
	out := make([]domain.ManifestRecord, len(records))
	errs := make([]error, len(records))

	var wg sync.WaitGroup
	for i, rec := range records {
		wg.Add(1)
		go func(i int, rec domain.Record) {
			defer wg.Done()
			fp, form, err := uc.Crypto.FingerprintRecord(rec)
			if err != nil {
				errs[i] = err
				return
			}
			mr := domain.ManifestRecord{SourceID: rec.SourceID, Fingerprint: fp}
			if uc.RetainCanonicalForms {
				mr.CanonicalForm = form
			}
			out[i] = mr
		}(i, rec)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func fingerprints(records []domain.ManifestRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Fingerprint
	}
	return out
}

// newPublicCode draws the public lookup code from a cryptographically random
// source; it must not be derivable from the owner or any counter.
func newPublicCode() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}
