package usecase

import (
	"context"
	"fmt"
	"time"

	"docseal/internal/domain"

	"go.uber.org/zap"
)

// AuditEmitter shapes and appends audit events. Every Emit* helper is
// fire-and-forget: the primary operation already succeeded, a sink
// failure only gets logged.
type AuditEmitter struct {
	Sink   AuditSink
	Clock  Clock
	Logger *zap.Logger
}

func NewAuditEmitter(sink AuditSink, clock Clock, logger *zap.Logger) *AuditEmitter {
	return &AuditEmitter{Sink: sink, Clock: clock, Logger: logger}
}

func (e *AuditEmitter) DocumentSigned(ctx context.Context, documentID string, actor domain.Principal, signatureID string) {
	e.emit(ctx, domain.AuditEvent{
		DocumentID:    documentID,
		ActorIdentity: actor.Identity,
		ActorName:     actor.DisplayName,
		Action:        domain.AuditActionDocumentSigned,
		Detail:        fmt.Sprintf("document digitally signed, signature id %s", signatureID),
	})
}

func (e *AuditEmitter) SignatureVerified(ctx context.Context, documentID string, actor domain.Principal, signatureID string, state domain.VerificationState, ip string) {
	e.emit(ctx, domain.AuditEvent{
		DocumentID:    documentID,
		ActorIdentity: actor.Identity,
		ActorName:     actor.DisplayName,
		Action:        domain.AuditActionSignatureVerified,
		Detail:        fmt.Sprintf("signature %s verified: %s", signatureID, state),
		IPAddress:     ip,
	})
}

func (e *AuditEmitter) KeyProvisioned(ctx context.Context, identity, fingerprint string) {
	e.emit(ctx, domain.AuditEvent{
		ActorIdentity: identity,
		Action:        domain.AuditActionKeyProvisioned,
		Detail:        fmt.Sprintf("signing key provisioned, fingerprint %s", fingerprint),
	})
}

func (e *AuditEmitter) emit(ctx context.Context, event domain.AuditEvent) {
	if e == nil || e.Sink == nil {
		return
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = e.now()
	}
	if err := e.Sink.Record(ctx, event); err != nil {
		e.logger().Warn("audit record failed",
			zap.String("action", string(event.Action)),
			zap.String("document_id", event.DocumentID),
			zap.Error(err))
	}
}

func (e *AuditEmitter) now() time.Time {
	if e.Clock != nil {
		return e.Clock().UTC()
	}
	return time.Now().UTC()
}

func (e *AuditEmitter) logger() *zap.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return zap.NewNop()
}
