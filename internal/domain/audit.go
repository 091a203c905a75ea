package domain

import "time"

type AuditAction string

const (
	AuditActionDocumentSigned    AuditAction = "document.signed"
	AuditActionSignatureVerified AuditAction = "signature.verified"
	AuditActionKeyProvisioned    AuditAction = "key.provisioned"
)

// AuditEvent is one append-only entry in the access trail.
type AuditEvent struct {
	ID            string
	DocumentID    string
	ActorIdentity string
	ActorName     string
	Action        AuditAction
	Detail        string
	IPAddress     string
	CreatedAt     time.Time
}
