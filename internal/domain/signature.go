package domain

import "time"

// VerificationState is the tagged outcome of the last verification run.
// A record starts out valid (optimistic, set at signing time) and is
// re-derived by every Verify call. valid_key_expired means the hash and
// signature still check out but the signing key's validity window has
// passed: the historical record holds, it is just not currently
// trustworthy.
type VerificationState string

const (
	StateUnverified      VerificationState = "unverified"
	StateValid           VerificationState = "valid"
	StateInvalid         VerificationState = "invalid"
	StateValidKeyExpired VerificationState = "valid_key_expired"
)

// Verified reports whether the state represents a passing verification.
func (s VerificationState) Verified() bool {
	return s == StateValid || s == StateValidKeyExpired
}

const (
	HashAlgorithmSHA256   = "SHA256"
	SignatureAlgorithmRSA = "RS256"
)

// SignatureRecord binds a signer identity to the content of one document
// version. SignerIdentity, SignerDisplayName and SignerEmail are a
// snapshot taken at signing time and stay as written even if the user's
// profile later changes. DocumentHash and SignatureBytes are write-once;
// only State and VerifiedAt may be updated afterwards, and only by the
// Verifier.
type SignatureRecord struct {
	ID                 string            `json:"id"`
	DocumentID         string            `json:"document_id"`
	SignerIdentity     string            `json:"signer_identity"`
	SignerDisplayName  string            `json:"signer_display_name"`
	SignerEmail        string            `json:"signer_email"`
	SignedAt           time.Time         `json:"signed_at"`
	DocumentHash       string            `json:"document_hash"`
	SignatureBytes     []byte            `json:"signature_bytes"`
	KeyFingerprint     string            `json:"key_fingerprint"`
	HashAlgorithm      string            `json:"hash_algorithm"`
	SignatureAlgorithm string            `json:"signature_algorithm"`
	State              VerificationState `json:"state"`
	VerifiedAt         *time.Time        `json:"verified_at,omitempty"`
}

// SignatureSummary is the listing projection: enough to render an
// "already signed" panel without materializing signature bytes.
type SignatureSummary struct {
	ID                string            `json:"id"`
	SignerDisplayName string            `json:"signer_display_name"`
	SignedAt          time.Time         `json:"signed_at"`
	State             VerificationState `json:"state"`
}

// VerificationResult is the outcome of one verification run.
type VerificationResult struct {
	State      VerificationState `json:"state"`
	VerifiedAt time.Time         `json:"verified_at"`
}

// Valid reports whether the run found the signature good, counting a
// formerly-valid signature under an expired key per the state's meaning.
func (r VerificationResult) Valid() bool {
	return r.State.Verified()
}
