package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"veritas/internal/domain"
)

// API is the primitive surface an external ledger collaborator must expose.
// Fingerprints are passed as lowercase hex digest strings.
type API interface {
	Exists(ctx context.Context, fingerprint string) (bool, error)
	Register(ctx context.Context, fingerprint string) (txRef string, err error)
	Metadata(ctx context.Context, fingerprint string) (domain.LedgerEntry, error)
	Verify(ctx context.Context, fingerprint string) (bool, error)
}

// Client talks JSON over HTTP to the ledger service. Construct it once and
// pass the handle explicitly; it holds no per-call connection state.
type Client struct {
	baseURL string
	apiKey  string
	httpDo  func(*http.Request) (*http.Response, error)
}

func NewClient(baseURL, apiKey string, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("ledger url: %w", domain.ErrMissingCredential)
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("ledger api key: %w", domain.ErrMissingCredential)
	}
	doer := http.DefaultClient.Do
	if httpClient != nil {
		doer = httpClient.Do
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpDo:  doer,
	}, nil
}

type existsResponse struct {
	Exists bool `json:"exists"`
}

type registerRequest struct {
	Fingerprint string `json:"fingerprint"`
}

type registerResponse struct {
	TxRef string `json:"txRef"`
}

type verifyResponse struct {
	Valid bool `json:"valid"`
}

func (c *Client) Exists(ctx context.Context, fingerprint string) (bool, error) {
	var out existsResponse
	if err := c.get(ctx, "/api/v1/documents/"+fingerprint+"/exists", &out); err != nil {
		return false, err
	}
	return out.Exists, nil
}

func (c *Client) Register(ctx context.Context, fingerprint string) (string, error) {
	body, err := json.Marshal(registerRequest{Fingerprint: fingerprint})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/documents", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpDo(req)
	if err != nil {
		// The transaction may have been broadcast before the deadline hit;
		// a blind retry risks a duplicate submission.
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", domain.ErrIndeterminateState
		}
		return "", fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", domain.ErrIndeterminateState
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode >= 500 {
			return "", fmt.Errorf("%w: ledger status %d", domain.ErrLedgerUnavailable, resp.StatusCode)
		}
		return "", fmt.Errorf("ledger register rejected: status %d", resp.StatusCode)
	}
	var out registerResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", domain.ErrIndeterminateState
	}
	if out.TxRef == "" {
		return "", domain.ErrIndeterminateState
	}
	return out.TxRef, nil
}

func (c *Client) Metadata(ctx context.Context, fingerprint string) (domain.LedgerEntry, error) {
	var out domain.LedgerEntry
	if err := c.get(ctx, "/api/v1/documents/"+fingerprint, &out); err != nil {
		return domain.LedgerEntry{}, err
	}
	if out.Fingerprint == "" {
		out.Fingerprint = fingerprint
	}
	return out, nil
}

func (c *Client) Verify(ctx context.Context, fingerprint string) (bool, error) {
	var out verifyResponse
	if err := c.get(ctx, "/api/v1/documents/"+fingerprint+"/verify", &out); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return out.Valid, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpDo(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: ledger status %d", domain.ErrLedgerUnavailable, resp.StatusCode)
	}
	return json.Unmarshal(body, out)
}

var _ API = (*Client)(nil)

// DefaultHTTPClient bounds every ledger call; callers treat an expired wait
// on the write path as indeterminate, not as failure.
func DefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
