package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"veritas/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ManifestRepository struct {
	db *gorm.DB
}

func NewManifestRepository(db *gorm.DB) *ManifestRepository {
	return &ManifestRepository{db: db}
}

func (r *ManifestRepository) GetByPublicID(ctx context.Context, publicID string) (domain.Manifest, error) {
	if r.db == nil {
		return domain.Manifest{}, errDBUnavailable
	}
	if publicID == "" {
		return domain.Manifest{}, errors.New("public id is required")
	}
	var model ManifestModel
	if err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Manifest{}, domain.ErrNotFound
		}
		return domain.Manifest{}, err
	}
	return manifestFromModel(model)
}

func (r *ManifestRepository) GetByOwner(ctx context.Context, ownerID string) (domain.Manifest, error) {
	if r.db == nil {
		return domain.Manifest{}, errDBUnavailable
	}
	if ownerID == "" {
		return domain.Manifest{}, errors.New("owner id is required")
	}
	var model ManifestModel
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Manifest{}, domain.ErrNotFound
		}
		return domain.Manifest{}, err
	}
	return manifestFromModel(model)
}

// GetVersion reads one historical row; old versions stay verifiable after any
// number of rebuilds.
func (r *ManifestRepository) GetVersion(ctx context.Context, publicID string, version int64) (domain.Manifest, error) {
	if r.db == nil {
		return domain.Manifest{}, errDBUnavailable
	}
	var model ManifestVersionModel
	if err := r.db.WithContext(ctx).
		Where("public_id = ? AND version = ?", publicID, version).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Manifest{}, domain.ErrNotFound
		}
		return domain.Manifest{}, err
	}
	return manifestFromVersionModel(model)
}

// Save upserts the head row keyed by publicId and appends the version row.
// expectedVersion is the caller's last known head version (0 on first build);
// a concurrent writer that advanced the head first wins and this write fails
// with ErrVersionConflict instead of blindly overwriting.
func (r *ManifestRepository) Save(ctx context.Context, m domain.Manifest, expectedVersion int64) error {
	if r.db == nil {
		return errDBUnavailable
	}
	if m.PublicID == "" {
		return errors.New("public id is required")
	}
	records, err := json.Marshal(m.Records)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if expectedVersion == 0 {
			head := ManifestModel{
				ID:                uuid.NewString(),
				PublicID:          m.PublicID,
				OwnerID:           m.OwnerID,
				Version:           m.Version,
				ManifestHash:      m.ManifestHash,
				RegisteredOnChain: m.RegisteredOnChain,
				TxHash:            m.TxHash,
				RecordsJSON:       records,
				CreatedAt:         now,
				UpdatedAt:         now,
			}
			if err := tx.Create(&head).Error; err != nil {
				// A concurrent first build for the same owner landed first;
				// the owner_id unique index rejects the second head. The
				// caller re-fetches and rebuilds against the surviving head.
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return domain.ErrVersionConflict
				}
				return err
			}
		} else {
			res := tx.Model(&ManifestModel{}).
				Where("public_id = ? AND version = ?", m.PublicID, expectedVersion).
				Updates(map[string]any{
					"version":             m.Version,
					"manifest_hash":       m.ManifestHash,
					"registered_on_chain": m.RegisteredOnChain,
					"tx_hash":             m.TxHash,
					"records_json":        records,
					"updated_at":          now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return domain.ErrVersionConflict
			}
		}

		version := ManifestVersionModel{
			ID:                uuid.NewString(),
			PublicID:          m.PublicID,
			Version:           m.Version,
			OwnerID:           m.OwnerID,
			ManifestHash:      m.ManifestHash,
			RegisteredOnChain: m.RegisteredOnChain,
			TxHash:            m.TxHash,
			RecordsJSON:       records,
			CreatedAt:         now,
		}
		return tx.Create(&version).Error
	})
}

// MarkRegistered records on-chain confirmation for one version. tx_hash is
// written exactly once and never cleared.
func (r *ManifestRepository) MarkRegistered(ctx context.Context, publicID string, version int64, txHash string) error {
	if r.db == nil {
		return errDBUnavailable
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		res := tx.Model(&ManifestModel{}).
			Where("public_id = ? AND version = ? AND (tx_hash = '' OR tx_hash IS NULL)", publicID, version).
			Updates(map[string]any{
				"registered_on_chain": true,
				"tx_hash":             txHash,
				"updated_at":          now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Head moved on, or already confirmed. The version row below is
			// still the durable proof record.
			var head ManifestModel
			if err := tx.Where("public_id = ?", publicID).First(&head).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrNotFound
				}
				return err
			}
		}
		return tx.Model(&ManifestVersionModel{}).
			Where("public_id = ? AND version = ? AND (tx_hash = '' OR tx_hash IS NULL)", publicID, version).
			Updates(map[string]any{
				"registered_on_chain": true,
				"tx_hash":             txHash,
			}).Error
	})
}

func manifestFromModel(model ManifestModel) (domain.Manifest, error) {
	var records []domain.ManifestRecord
	if err := json.Unmarshal(model.RecordsJSON, &records); err != nil {
		return domain.Manifest{}, err
	}
	return domain.Manifest{
		PublicID:          model.PublicID,
		OwnerID:           model.OwnerID,
		Version:           model.Version,
		Records:           records,
		ManifestHash:      model.ManifestHash,
		RegisteredOnChain: model.RegisteredOnChain,
		TxHash:            model.TxHash,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}, nil
}

func manifestFromVersionModel(model ManifestVersionModel) (domain.Manifest, error) {
	var records []domain.ManifestRecord
	if err := json.Unmarshal(model.RecordsJSON, &records); err != nil {
		return domain.Manifest{}, err
	}
	return domain.Manifest{
		PublicID:          model.PublicID,
		OwnerID:           model.OwnerID,
		Version:           model.Version,
		Records:           records,
		ManifestHash:      model.ManifestHash,
		RegisteredOnChain: model.RegisteredOnChain,
		TxHash:            model.TxHash,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.CreatedAt,
	}, nil
}
