package domain

import "time"

// AccessLevel mirrors the document store's coarse classification.
// Employee=1, Manager=2, Admin=3; a principal may only touch documents
// at or below their role's level.
type AccessLevel int

// DocumentMetadata is what the signing core needs to know about a
// document. The document store owns the full record; the Signed flag is
// a denormalized convenience, the signature records are the source of
// truth.
type DocumentMetadata struct {
	ID          string
	FileName    string
	ContentType string
	Department  string
	AccessLevel AccessLevel
	Signed      bool
	SignedAt    *time.Time
	SignedBy    string
	UploadedAt  time.Time
}
