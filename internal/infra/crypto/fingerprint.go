package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// Fingerprint is the SHA-256 digest of canonical bytes, lowercase hex. Pure
// and total for any byte input.
func Fingerprint(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

// FileDigest hashes raw file bytes. This is a distinct digest domain from
// record fingerprints (raw bytes vs. canonicalized structured content); the
// two must not be compared without knowing which domain produced each side.
func FileDigest(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
