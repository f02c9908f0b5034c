package delivery

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"veritas/internal/domain"
)

const (
	DefaultResourceKind = "raw"
	DefaultAccessType   = "upload"
)

// GrantRequest describes one signed-download grant. The resulting grant is
// ephemeral: constructed and consumed within a single request, never stored.
type GrantRequest struct {
	ResourceID   string
	ResourceKind string
	AccessType   string
	Attachment   bool
	Filename     string
}

type Grant struct {
	URL       string
	Signature string
	Timestamp int64
}

// Signer mints HMAC-signed, timestamped download URLs for the file-hosting
// collaborator, which independently recomputes the signature and rejects
// mismatches or expired timestamps. Signatures are never stored or reused.
type Signer struct {
	baseURL string
	account string
	apiKey  string
	secret  []byte
	now     func() time.Time
}

func NewSigner(baseURL, account, apiKey, secret string) (*Signer, error) {
	if strings.TrimSpace(account) == "" {
		return nil, fmt.Errorf("delivery account: %w", domain.ErrMissingCredential)
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("delivery api key: %w", domain.ErrMissingCredential)
	}
	if strings.TrimSpace(secret) == "" {
		// Aborting here is mandatory; an unsigned URL must never be emitted.
		return nil, fmt.Errorf("delivery api secret: %w", domain.ErrMissingCredential)
	}
	if baseURL == "" {
		baseURL = "https://files.veritas.dev"
	}
	return &Signer{
		baseURL: strings.TrimRight(baseURL, "/"),
		account: account,
		apiKey:  apiKey,
		secret:  []byte(secret),
		now:     time.Now,
	}, nil
}

// SignDownload builds the canonical parameter string (keys sorted
// lexicographically, key=value pairs joined by &), signs it, and returns the
// retrieval URL with the signature appended alongside the plaintext
// parameters. The verifying party reconstructs the exact same string, so the
// ordering is part of the contract.
func (s *Signer) SignDownload(req GrantRequest) (Grant, error) {
	if req.ResourceID == "" {
		return Grant{}, fmt.Errorf("resource id is required")
	}
	ts := s.now().Unix()
	params := s.grantParams(req, ts)
	signature := s.sign(canonicalParams(params))
	params["signature"] = signature

	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	return Grant{
		URL:       s.baseURL + "/" + s.account + "/" + params["resource_type"] + "/" + params["type"] + "/download?" + query.Encode(),
		Signature: signature,
		Timestamp: ts,
	}, nil
}

// VerifyGrant recomputes the signature over a grant's plaintext parameters.
// A mismatch indicates either a credential problem or a canonicalization bug
// and must never be ignored.
func (s *Signer) VerifyGrant(query url.Values) error {
	provided := query.Get("signature")
	if provided == "" {
		return domain.ErrSignatureMismatch
	}
	params := make(map[string]string, len(query))
	for k := range query {
		if k == "signature" {
			continue
		}
		params[k] = query.Get(k)
	}
	expected := s.sign(canonicalParams(params))
	if !hmac.Equal([]byte(expected), []byte(provided)) {
		return domain.ErrSignatureMismatch
	}
	return nil
}

func (s *Signer) grantParams(req GrantRequest, ts int64) map[string]string {
	kind := req.ResourceKind
	if kind == "" {
		kind = DefaultResourceKind
	}
	access := req.AccessType
	if access == "" {
		access = DefaultAccessType
	}
	params := map[string]string{
		"public_id":     req.ResourceID,
		"resource_type": kind,
		"type":          access,
		"attachment":    strconv.FormatBool(req.Attachment),
		"timestamp":     strconv.FormatInt(ts, 10),
		"api_key":       s.apiKey,
	}
	if req.Filename != "" {
		params["filename"] = req.Filename
	}
	return params
}

func (s *Signer) sign(canonical string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

func canonicalParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	return strings.Join(pairs, "&")
}
