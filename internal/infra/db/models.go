package db

import "time"

type DocumentModel struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	FileName    string `gorm:"not null"`
	ContentType string
	Department  string    `gorm:"index"`
	AccessLevel int       `gorm:"not null;default:1"`
	Content     []byte    `gorm:"type:bytea;not null"`
	Signed      bool      `gorm:"not null;default:false"`
	SignedAt    *time.Time
	SignedBy    string
	UploadedAt  time.Time `gorm:"not null"`
}

func (DocumentModel) TableName() string { return "documents" }

// SignatureRecordModel groups rows by document_id (the partition of the
// logical layout); lookups by id alone scan across that grouping.
type SignatureRecordModel struct {
	ID                 string    `gorm:"type:uuid;primaryKey"`
	DocumentID         string    `gorm:"type:uuid;index;not null"`
	SignerIdentity     string    `gorm:"index;not null"`
	SignerDisplayName  string    `gorm:"not null"`
	SignerEmail        string    `gorm:"not null"`
	SignedAt           time.Time `gorm:"index;not null"`
	DocumentHash       string    `gorm:"not null"`
	SignatureBytes     []byte    `gorm:"type:bytea;not null"`
	KeyFingerprint     string    `gorm:"not null"`
	HashAlgorithm      string    `gorm:"not null"`
	SignatureAlgorithm string    `gorm:"not null"`
	State              string    `gorm:"not null"`
	VerifiedAt         *time.Time
}

func (SignatureRecordModel) TableName() string { return "signature_records" }

type AuditEventModel struct {
	ID            string    `gorm:"type:uuid;primaryKey"`
	DocumentID    *string   `gorm:"type:uuid;index"`
	ActorIdentity string    `gorm:"index;not null"`
	ActorName     string
	Action        string    `gorm:"index;not null"`
	Detail        string
	IPAddress     string
	CreatedAt     time.Time `gorm:"index;not null"`
}

func (AuditEventModel) TableName() string { return "audit_events" }
