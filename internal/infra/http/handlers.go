package http

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"docseal/internal/domain"
	"docseal/internal/infra/db"
	"docseal/internal/usecase"

	"github.com/gin-gonic/gin"
)

// DocumentAdmin is the slice of the document store the HTTP surface
// needs beyond what the signing core uses: create and metadata reads.
type DocumentAdmin interface {
	Create(ctx context.Context, params db.CreateDocumentParams) (*domain.DocumentMetadata, error)
	GetMetadata(ctx context.Context, documentID string) (*domain.DocumentMetadata, error)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type signatureResponse struct {
	ID                 string `json:"id"`
	DocumentID         string `json:"document_id"`
	SignerIdentity     string `json:"signer_identity"`
	SignerDisplayName  string `json:"signer_display_name"`
	SignerEmail        string `json:"signer_email"`
	SignedAt           string `json:"signed_at"`
	DocumentHash       string `json:"document_hash"`
	Signature          string `json:"signature"`
	KeyFingerprint     string `json:"key_fingerprint"`
	HashAlgorithm      string `json:"hash_algorithm"`
	SignatureAlgorithm string `json:"signature_algorithm"`
	State              string `json:"state"`
	VerifiedAt         string `json:"verified_at,omitempty"`
}

type signatureSummaryResponse struct {
	ID                string `json:"id"`
	SignerDisplayName string `json:"signer_display_name"`
	SignedAt          string `json:"signed_at"`
	State             string `json:"state"`
}

type verificationResponse struct {
	State      string `json:"state"`
	Valid      bool   `json:"valid"`
	VerifiedAt string `json:"verified_at"`
}

type createDocumentRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Department  string `json:"department"`
	AccessLevel int    `json:"access_level"`
	ContentB64  string `json:"content_base64"`
}

type documentResponse struct {
	ID          string `json:"id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Department  string `json:"department"`
	AccessLevel int    `json:"access_level"`
	Signed      bool   `json:"signed"`
	SignedAt    string `json:"signed_at,omitempty"`
	SignedBy    string `json:"signed_by,omitempty"`
	UploadedAt  string `json:"uploaded_at"`
}

func (s *Server) handleSign(c *gin.Context) {
	if s.signUC == nil {
		writeError(c, domain.ErrUnavailable)
		return
	}
	principal := principalFromHeaders(c)
	if principal.Identity == "" {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHENTICATED", "missing caller identity")
		return
	}
	if !s.enforceRateLimit(c, routeDocumentsSign, principal) {
		return
	}
	record, err := s.signUC.Execute(c.Request.Context(), usecase.SignDocumentRequest{
		DocumentID: c.Param("id"),
		Principal:  principal,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, buildSignatureResponse(*record))
}

func (s *Server) handleVerify(c *gin.Context) {
	if s.verifyUC == nil {
		writeError(c, domain.ErrUnavailable)
		return
	}
	principal := principalFromHeaders(c)
	if !s.enforceRateLimit(c, routeSignatureVerify, principal) {
		return
	}
	documentID := c.Param("id")
	signatureID := c.Param("signature_id")
	result := s.verifyUC.Execute(c.Request.Context(), documentID, signatureID)
	if s.audit != nil {
		ip := ""
		if s.auditClientIPs {
			ip = c.ClientIP()
		}
		s.audit.SignatureVerified(c.Request.Context(), documentID, principal, signatureID, result.State, ip)
	}
	c.JSON(http.StatusOK, verificationResponse{
		State:      string(result.State),
		Valid:      result.Valid(),
		VerifiedAt: result.VerifiedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListSignatures(c *gin.Context) {
	if s.listUC == nil {
		writeError(c, domain.ErrUnavailable)
		return
	}
	principal := principalFromHeaders(c)
	if !s.enforceRateLimit(c, routeSignaturesRead, principal) {
		return
	}
	summaries, err := s.listUC.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]signatureSummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		out = append(out, signatureSummaryResponse{
			ID:                summary.ID,
			SignerDisplayName: summary.SignerDisplayName,
			SignedAt:          summary.SignedAt.UTC().Format(time.RFC3339),
			State:             string(summary.State),
		})
	}
	c.JSON(http.StatusOK, gin.H{"signatures": out})
}

func (s *Server) handleSignatureStatus(c *gin.Context) {
	if s.listUC == nil {
		writeError(c, domain.ErrUnavailable)
		return
	}
	principal := principalFromHeaders(c)
	if !s.enforceRateLimit(c, routeSignaturesRead, principal) {
		return
	}
	signed, err := s.listUC.Exists(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signed": signed})
}

func (s *Server) handleCreateDocument(c *gin.Context) {
	if s.documents == nil {
		writeError(c, domain.ErrUnavailable)
		return
	}
	principal := principalFromHeaders(c)
	if principal.Identity == "" {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHENTICATED", "missing caller identity")
		return
	}
	if !s.enforceRateLimit(c, routeDocumentsWrite, principal) {
		return
	}
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	content, err := base64.StdEncoding.DecodeString(req.ContentB64)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_CONTENT", "content_base64 is not valid base64")
		return
	}
	meta, err := s.documents.Create(c.Request.Context(), db.CreateDocumentParams{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Department:  req.Department,
		AccessLevel: domain.AccessLevel(req.AccessLevel),
		Content:     content,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, buildDocumentResponse(*meta))
}

func (s *Server) handleGetDocument(c *gin.Context) {
	if s.documents == nil {
		writeError(c, domain.ErrUnavailable)
		return
	}
	principal := principalFromHeaders(c)
	if !s.enforceRateLimit(c, routeSignaturesRead, principal) {
		return
	}
	meta, err := s.documents.GetMetadata(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildDocumentResponse(*meta))
}

func (s *Server) handleNoRoute(c *gin.Context) {
	writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "no such route")
}

func buildSignatureResponse(record domain.SignatureRecord) signatureResponse {
	out := signatureResponse{
		ID:                 record.ID,
		DocumentID:         record.DocumentID,
		SignerIdentity:     record.SignerIdentity,
		SignerDisplayName:  record.SignerDisplayName,
		SignerEmail:        record.SignerEmail,
		SignedAt:           record.SignedAt.UTC().Format(time.RFC3339),
		DocumentHash:       record.DocumentHash,
		Signature:          base64.StdEncoding.EncodeToString(record.SignatureBytes),
		KeyFingerprint:     record.KeyFingerprint,
		HashAlgorithm:      record.HashAlgorithm,
		SignatureAlgorithm: record.SignatureAlgorithm,
		State:              string(record.State),
	}
	if record.VerifiedAt != nil {
		out.VerifiedAt = record.VerifiedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func buildDocumentResponse(meta domain.DocumentMetadata) documentResponse {
	out := documentResponse{
		ID:          meta.ID,
		FileName:    meta.FileName,
		ContentType: meta.ContentType,
		Department:  meta.Department,
		AccessLevel: int(meta.AccessLevel),
		Signed:      meta.Signed,
		SignedBy:    meta.SignedBy,
		UploadedAt:  meta.UploadedAt.UTC().Format(time.RFC3339),
	}
	if meta.SignedAt != nil {
		out.SignedAt = meta.SignedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, domain.ErrDocumentNotFound):
		status, code = http.StatusNotFound, "DOCUMENT_NOT_FOUND"
	case errors.Is(err, domain.ErrSignatureNotFound):
		status, code = http.StatusNotFound, "SIGNATURE_NOT_FOUND"
	case errors.Is(err, domain.ErrKeyNotFound):
		status, code = http.StatusNotFound, "KEY_NOT_FOUND"
	case errors.Is(err, domain.ErrKeyProvisioningFailed):
		status, code = http.StatusBadGateway, "KEY_PROVISIONING_FAILED"
	case errors.Is(err, domain.ErrForbidden):
		status, code = http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrUnavailable):
		status, code = http.StatusServiceUnavailable, "UNAVAILABLE"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusRequestTimeout, "CANCELED"
	}
	writeErrorCode(c, status, code, err.Error())
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{
		Code:    code,
		Message: message,
	})
}
