package db

import "time"

// ManifestModel is the head row per publicId; updated only through a
// compare-and-swap on version.
type ManifestModel struct {
	ID                string `gorm:"type:uuid;primaryKey"`
	PublicID          string `gorm:"uniqueIndex;not null"`
	// One head per owner; the unique index is what makes two concurrent
	// first builds collide instead of forking the owner's manifest.
	OwnerID           string `gorm:"uniqueIndex;not null"`
	Version           int64  `gorm:"not null"`
	ManifestHash      string `gorm:"index;not null"`
	RegisteredOnChain bool   `gorm:"not null"`
	TxHash            string
	RecordsJSON       []byte    `gorm:"type:jsonb;not null"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

func (ManifestModel) TableName() string {
	return "manifests"
}

// ManifestVersionModel rows are append-only so a previously shared publicId's
// historical proof remains checkable. A row is touched again only to record
// its on-chain confirmation; it is never deleted.
type ManifestVersionModel struct {
	ID                string `gorm:"type:uuid;primaryKey"`
	PublicID          string `gorm:"index:idx_manifest_versions_pub_ver,unique;not null"`
	Version           int64  `gorm:"index:idx_manifest_versions_pub_ver,unique;not null"`
	OwnerID           string `gorm:"index;not null"`
	ManifestHash      string `gorm:"index;not null"`
	RegisteredOnChain bool   `gorm:"not null"`
	TxHash            string
	RecordsJSON       []byte    `gorm:"type:jsonb;not null"`
	CreatedAt         time.Time `gorm:"not null"`
}

func (ManifestVersionModel) TableName() string {
	return "manifest_versions"
}
