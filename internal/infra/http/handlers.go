package http

import (
	"errors"
	"net/http"
	"strconv"

	"veritas/internal/domain"
	"veritas/internal/infra/delivery"
	"veritas/internal/usecase"

	"github.com/gin-gonic/gin"
)

const uploadContentType = "application/pdf"

type errorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type buildManifestRequest struct {
	OwnerID string          `json:"ownerId" binding:"required"`
	Records []domain.Record `json:"records" binding:"required"`
}

type registerManifestRequest struct {
	PublicID string `json:"publicId" binding:"required"`
	Version  int64  `json:"version"`
}

type publicManifestResponse struct {
	PublicID          string                    `json:"publicId"`
	Version           int64                     `json:"version"`
	Manifest          domain.PublicManifestView `json:"manifest"`
	ManifestHash      string                    `json:"manifestHash"`
	RegisteredOnChain bool                      `json:"registeredOnChain"`
	TxHash            string                    `json:"txHash,omitempty"`
	RecordCount       int                       `json:"recordCount"`
	CreatedAt         string                    `json:"createdAt"`
	UpdatedAt         string                    `json:"updatedAt"`
}

type uploadHashResponse struct {
	Success  bool   `json:"success"`
	Hash     string `json:"hash"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Verified *bool  `json:"verified,omitempty"`
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handlePublicLookup(c *gin.Context) {
	if !s.enforceRateLimit(c, "manifest:public") {
		return
	}
	if s.lookupUC == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "manifest store unavailable")
		return
	}
	code := c.Query("code")
	view, err := s.lookupUC.Execute(c.Request.Context(), code)
	if err != nil {
		// Unknown and forbidden are indistinguishable on purpose.
		if errors.Is(err, domain.ErrNotFound) {
			writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "no manifest for that code")
			return
		}
		writeErrorCode(c, http.StatusInternalServerError, "INTERNAL", "lookup failed")
		return
	}
	c.JSON(http.StatusOK, publicManifestResponse{
		PublicID:          view.PublicID,
		Version:           view.Version,
		Manifest:          view,
		ManifestHash:      view.ManifestHash,
		RegisteredOnChain: view.RegisteredOnChain,
		TxHash:            view.TxHash,
		RecordCount:       view.RecordCount,
		CreatedAt:         view.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:         view.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}

func (s *Server) handleBuildManifest(c *gin.Context) {
	if s.buildUC == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "manifest store unavailable")
		return
	}
	var req buildManifestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	manifest, err := s.buildUC.Execute(c.Request.Context(), usecase.BuildManifestRequest{
		OwnerID: req.OwnerID,
		Records: req.Records,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInputKind):
			writeErrorCode(c, http.StatusBadRequest, "INVALID_INPUT_KIND", "record is not a structured document")
		case errors.Is(err, domain.ErrVersionConflict):
			writeErrorCode(c, http.StatusConflict, "VERSION_CONFLICT", "manifest changed concurrently; re-fetch and retry")
		default:
			writeErrorCode(c, http.StatusBadRequest, "BUILD_FAILED", err.Error())
		}
		return
	}
	c.JSON(http.StatusOK, manifest)
}

func (s *Server) handleRegisterManifest(c *gin.Context) {
	if s.registerUC == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "LEDGER_UNAVAILABLE", "ledger not configured")
		return
	}
	var req registerManifestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	resp, err := s.registerUC.Execute(c.Request.Context(), usecase.RegisterManifestRequest{
		PublicID: req.PublicID,
		Version:  req.Version,
	})
	if err != nil {
		details := map[string]any{}
		if resp != nil {
			details["manifestHash"] = resp.Manifest.ManifestHash
			details["version"] = resp.Manifest.Version
		}
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "no manifest for that code")
		case errors.Is(err, domain.ErrVersionConflict):
			writeError(c, http.StatusConflict, "VERSION_CONFLICT", "stale version; re-fetch the manifest before registering", details)
		case errors.Is(err, domain.ErrIndeterminateState):
			// Do not retry before confirming non-existence via the ledger's
			// exists check; the transaction may have been broadcast.
			writeError(c, http.StatusGatewayTimeout, "INDETERMINATE_STATE", "ledger transaction outcome unknown", details)
		case errors.Is(err, domain.ErrLedgerUnavailable):
			writeError(c, http.StatusServiceUnavailable, "LEDGER_UNAVAILABLE", "ledger unreachable; safe to retry", details)
		default:
			writeErrorCode(c, http.StatusInternalServerError, "REGISTER_FAILED", err.Error())
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"publicId":          resp.Manifest.PublicID,
		"version":           resp.Manifest.Version,
		"manifestHash":      resp.Manifest.ManifestHash,
		"registeredOnChain": resp.Manifest.RegisteredOnChain,
		"txHash":            resp.Manifest.TxHash,
		"alreadyRegistered": resp.Result.AlreadyRegistered,
		"state":             resp.Result.State,
	})
}

func (s *Server) handleVerifyFingerprint(c *gin.Context) {
	if s.ledgerSvc == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "LEDGER_UNAVAILABLE", "ledger not configured")
		return
	}
	hash := c.Query("hash")
	if hash == "" {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "hash query parameter is required")
		return
	}
	valid, err := s.ledgerSvc.Verify(c.Request.Context(), hash)
	if err != nil {
		if errors.Is(err, domain.ErrLedgerUnavailable) {
			writeErrorCode(c, http.StatusServiceUnavailable, "LEDGER_UNAVAILABLE", "ledger unreachable; safe to retry")
			return
		}
		writeErrorCode(c, http.StatusInternalServerError, "VERIFY_FAILED", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"fingerprint": hash, "verified": valid})
}

func (s *Server) handleUploadHash(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "file form field is required")
		return
	}
	if ct := file.Header.Get("Content-Type"); ct != uploadContentType {
		writeErrorCode(c, http.StatusBadRequest, "UNSUPPORTED_CONTENT_TYPE", "only "+uploadContentType+" uploads are accepted")
		return
	}
	f, err := file.Open()
	if err != nil {
		writeErrorCode(c, http.StatusInternalServerError, "UPLOAD_FAILED", err.Error())
		return
	}
	defer f.Close()

	checkLedger := c.Query("verify") == "true" && s.ledgerSvc != nil
	result, err := s.uploadUC.Execute(c.Request.Context(), f, checkLedger)
	if err != nil {
		writeErrorCode(c, http.StatusInternalServerError, "UPLOAD_FAILED", err.Error())
		return
	}
	resp := uploadHashResponse{
		Success:  true,
		Hash:     result.Hash,
		Filename: file.Filename,
		Size:     result.Size,
	}
	if result.Checked {
		verified := result.Verified
		resp.Verified = &verified
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSignDelivery(c *gin.Context) {
	if s.signer == nil {
		writeErrorCode(c, http.StatusInternalServerError, "MISSING_CREDENTIAL", "delivery signing credentials are not configured")
		return
	}
	resourceID := c.Query("resource_locator")
	if resourceID == "" {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "resource_locator query parameter is required")
		return
	}
	attachment := true
	if raw := c.DefaultQuery("attachment", "true"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "attachment must be a boolean")
			return
		}
		attachment = parsed
	}
	grant, err := s.signer.SignDownload(delivery.GrantRequest{
		ResourceID:   resourceID,
		ResourceKind: c.DefaultQuery("resource_kind", delivery.DefaultResourceKind),
		AccessType:   c.DefaultQuery("access_type", delivery.DefaultAccessType),
		Attachment:   attachment,
		Filename:     c.Query("filename"),
	})
	if err != nil {
		if errors.Is(err, domain.ErrMissingCredential) {
			writeErrorCode(c, http.StatusInternalServerError, "MISSING_CREDENTIAL", err.Error())
			return
		}
		writeErrorCode(c, http.StatusBadRequest, "SIGN_FAILED", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": grant.URL})
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	writeError(c, status, code, message, nil)
}

func writeError(c *gin.Context, status int, code, message string, details map[string]any) {
	c.AbortWithStatusJSON(status, errorResponse{Code: code, Message: message, Details: details})
}
