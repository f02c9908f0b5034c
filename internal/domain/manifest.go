package domain

import "time"

// ManifestRecord is one fingerprinted record inside a manifest. CanonicalForm
// retention is optional; keeping it allows re-verification without re-fetching
// the source document.
type ManifestRecord struct {
	SourceID      string         `json:"sourceId"`
	Fingerprint   string         `json:"fingerprint"`
	CanonicalForm map[string]any `json:"canonicalForm,omitempty"`
}

type Manifest struct {
	PublicID          string           `json:"publicId"`
	OwnerID           string           `json:"ownerId"`
	Version           int64            `json:"version"`
	Records           []ManifestRecord `json:"records"`
	ManifestHash      string           `json:"manifestHash"`
	RegisteredOnChain bool             `json:"registeredOnChain"`
	TxHash            string           `json:"txHash,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

// PublicManifestView is the unauthenticated projection of a manifest. It must
// never carry OwnerID or any other owner-identifying field.
type PublicManifestView struct {
	PublicID          string           `json:"publicId"`
	Version           int64            `json:"version"`
	Records           []ManifestRecord `json:"records"`
	ManifestHash      string           `json:"manifestHash"`
	RegisteredOnChain bool             `json:"registeredOnChain"`
	TxHash            string           `json:"txHash,omitempty"`
	RecordCount       int              `json:"recordCount"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

func (m Manifest) PublicView() PublicManifestView {
	records := make([]ManifestRecord, len(m.Records))
	copy(records, m.Records)
	return PublicManifestView{
		PublicID:          m.PublicID,
		Version:           m.Version,
		Records:           records,
		ManifestHash:      m.ManifestHash,
		RegisteredOnChain: m.RegisteredOnChain,
		TxHash:            m.TxHash,
		RecordCount:       len(m.Records),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}
