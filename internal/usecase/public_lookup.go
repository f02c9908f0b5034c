package usecase

import (
	"context"
	"errors"

	"veritas/internal/domain"
)

// PublicLookup serves the unauthenticated read path. It is the boundary that
// enforces safe disclosure: callers get the projection, never the manifest
// itself, and an unknown code is indistinguishable from a forbidden one.
type PublicLookup struct {
	Manifests ManifestRepository
}

func (uc *PublicLookup) Execute(ctx context.Context, code string) (domain.PublicManifestView, error) {
	if code == "" {
		return domain.PublicManifestView{}, domain.ErrNotFound
	}
	manifest, err := uc.Manifests.GetByPublicID(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.PublicManifestView{}, domain.ErrNotFound
		}
		return domain.PublicManifestView{}, err
	}
	return manifest.PublicView(), nil
}
