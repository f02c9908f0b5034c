package usecase

import (
	"context"
	"errors"

	"veritas/internal/domain"
)

// RegisterManifest registers the current manifest hash on the ledger. The
// caller states which version it believes is current; a stale version is
// rejected before any ledger traffic so that two concurrent
// rebuild-and-register flows for the same publicId are serialized instead of
// registering an outdated hash as if it were current.
type RegisterManifest struct {
	Manifests ManifestRepository
	Ledger    LedgerService
}

type RegisterManifestRequest struct {
	PublicID string
	Version  int64
}

type RegisterManifestResponse struct {
	Manifest domain.Manifest
	Result   domain.RegisterResult
}

func (uc *RegisterManifest) Execute(ctx context.Context, req RegisterManifestRequest) (*RegisterManifestResponse, error) {
	if req.PublicID == "" {
		return nil, errors.New("public id is required")
	}

	manifest, err := uc.Manifests.GetByPublicID(ctx, req.PublicID)
	if err != nil {
		return nil, err
	}
	if req.Version != 0 && req.Version != manifest.Version {
		return nil, domain.ErrVersionConflict
	}

	result, err := uc.Ledger.Register(ctx, manifest.ManifestHash)
	if err != nil {
		// IndeterminateState and LedgerUnavailable pass through with the
		// manifest attached so the caller can decide whether a retry is safe.
		return &RegisterManifestResponse{Manifest: manifest, Result: result}, err
	}

	if err := uc.Manifests.MarkRegistered(ctx, manifest.PublicID, manifest.Version, result.TxRef); err != nil {
		return nil, err
	}
	manifest.RegisteredOnChain = true
	if result.TxRef != "" {
		manifest.TxHash = result.TxRef
	}
	return &RegisterManifestResponse{Manifest: manifest, Result: result}, nil
}
