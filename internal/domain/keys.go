package domain

import "time"

// KeyInfo describes the key material a custodian currently holds for an
// identity. The private key never leaves the custodian boundary.
type KeyInfo struct {
	Fingerprint string
	Subject     string
	Algorithm   string
	ValidFrom   time.Time
	ValidTo     time.Time
}

// ExpiredAt reports whether the key's validity window has passed at the
// given instant.
func (k KeyInfo) ExpiredAt(now time.Time) bool {
	return !k.ValidTo.IsZero() && now.After(k.ValidTo)
}
