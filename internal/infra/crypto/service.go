package crypto

import (
	"veritas/internal/domain"
)

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// CanonicalRecordForm maps a record's closed schema into its canonical form.
// SourceID, OwnerID and the timestamps never enter the form; an attachment
// contributes only its filename. Body content is redacted recursively so that
// storage artifacts carried inside the escape hatch are stripped as well.
func (s *Service) CanonicalRecordForm(rec domain.Record) (map[string]any, error) {
	if rec.Title == "" && rec.Body == nil && rec.Attachment == nil {
		return nil, domain.ErrInvalidInputKind
	}
	form := map[string]any{}
	if rec.Title != "" {
		form["title"] = rec.Title
	}
	if rec.Body != nil {
		body, err := CanonicalForm(rec.Body)
		if err != nil {
			return nil, err
		}
		form["body"] = body
	}
	if rec.Attachment != nil {
		form["attachment"] = map[string]any{"filename": rec.Attachment.Filename}
	}
	return form, nil
}

// FingerprintRecord produces one record's fingerprint and the canonical form
// it was computed over.
func (s *Service) FingerprintRecord(rec domain.Record) (string, map[string]any, error) {
	form, err := s.CanonicalRecordForm(rec)
	if err != nil {
		return "", nil, err
	}
	canonical, err := Canonicalize(form)
	if err != nil {
		return "", nil, err
	}
	return Fingerprint(canonical), form, nil
}

// ManifestHash covers the version and the ordered per-record fingerprints,
// not the raw records: two manifests with the same fingerprints in the same
// order hash identically regardless of when they were built.
func (s *Service) ManifestHash(version int64, fingerprints []string) (string, error) {
	canonical, err := Canonicalize(map[string]any{
		"version": version,
		"records": fingerprints,
	})
	if err != nil {
		return "", err
	}
	return Fingerprint(canonical), nil
}
