package domain

import "time"

// Record is a point-in-time copy of one document pulled from the document
// store. The declared fields are the closed schema; Body is the escape hatch
// for section content whose shape the store does not constrain.
type Record struct {
	SourceID   string         `json:"sourceId"`
	OwnerID    string         `json:"ownerId"`
	Title      string         `json:"title"`
	Body       map[string]any `json:"body"`
	Attachment *Attachment    `json:"attachment,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// Attachment carries file metadata embedded in a record. StorageURL is a
// re-issuable locator and never participates in fingerprinting; Filename is
// the stable descriptor that does.
type Attachment struct {
	Filename   string `json:"filename"`
	StorageURL string `json:"storageUrl,omitempty"`
}
