package usecase

import (
	"context"
	"io"

	"veritas/internal/domain"
)

type ManifestRepository interface {
	GetByPublicID(ctx context.Context, publicID string) (domain.Manifest, error)
	GetByOwner(ctx context.Context, ownerID string) (domain.Manifest, error)
	GetVersion(ctx context.Context, publicID string, version int64) (domain.Manifest, error)
	Save(ctx context.Context, m domain.Manifest, expectedVersion int64) error
	MarkRegistered(ctx context.Context, publicID string, version int64, txHash string) error
}

type LedgerService interface {
	Register(ctx context.Context, fingerprint string) (domain.RegisterResult, error)
	Exists(ctx context.Context, fingerprint string) (bool, error)
	Verify(ctx context.Context, fingerprint string) (bool, error)
	Metadata(ctx context.Context, fingerprint string) (domain.LedgerEntry, error)
}

type CryptoService interface {
	FingerprintRecord(rec domain.Record) (fingerprint string, canonicalForm map[string]any, err error)
	ManifestHash(version int64, fingerprints []string) (string, error)
}

// DigestFunc hashes raw file bytes. This digest domain is distinct from
// record fingerprints and the two must never be compared.
type DigestFunc func(r io.Reader) (digest string, size int64, err error)
