package usecase

import (
	"context"
	"errors"
	"io"
)

// VerifyUpload hashes a client-submitted file and optionally checks the
// digest against the ledger. The digest is over raw bytes; it lives in a
// different domain than record fingerprints and the response says nothing
// about canonicalized content.
type VerifyUpload struct {
	Ledger LedgerService
	Digest DigestFunc
}

type VerifyUploadResult struct {
	Hash     string
	Size     int64
	Verified bool
	Checked  bool
}

func (uc *VerifyUpload) Execute(ctx context.Context, r io.Reader, checkLedger bool) (VerifyUploadResult, error) {
	if uc.Digest == nil {
		return VerifyUploadResult{}, errors.New("digest function not configured")
	}
	hash, size, err := uc.Digest(r)
	if err != nil {
		return VerifyUploadResult{}, err
	}
	out := VerifyUploadResult{Hash: hash, Size: size}
	if !checkLedger {
		return out, nil
	}
	if uc.Ledger == nil {
		return out, errors.New("ledger service not configured")
	}
	valid, err := uc.Ledger.Verify(ctx, hash)
	if err != nil {
		return out, err
	}
	out.Checked = true
	out.Verified = valid
	return out, nil
}
