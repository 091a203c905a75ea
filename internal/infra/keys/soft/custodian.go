package soft

import (
	"context"
	stdcrypto "crypto"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"strings"
	"sync"
	"time"

	"docseal/internal/domain"
	"docseal/internal/infra/crypto"
	"docseal/internal/usecase"
)

// Custodian is the in-memory key custodian used in development and
// tests. Same contract as the vault-backed one, no process boundary.
type Custodian struct {
	mu       sync.Mutex
	keys     map[string]*softKey
	keyBits  int
	validity time.Duration
	Clock    func() time.Time
}

type softKey struct {
	private *rsa.PrivateKey
	info    domain.KeyInfo
}

func NewCustodian(keyBits int, validity time.Duration) *Custodian {
	if keyBits < 2048 {
		keyBits = 2048
	}
	if validity <= 0 {
		validity = 12 * 30 * 24 * time.Hour
	}
	return &Custodian{
		keys:     make(map[string]*softKey),
		keyBits:  keyBits,
		validity: validity,
	}
}

func (c *Custodian) EnsureKey(_ context.Context, identity, displayName, email string) error {
	name := keyName(identity)
	if name == "" {
		return fmt.Errorf("%w: identity is required", domain.ErrKeyProvisioningFailed)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.keys[name]; ok && !existing.info.ExpiredAt(c.now()) {
		return nil
	}
	key, err := rsa.GenerateKey(rand.Reader, c.keyBits)
	if err != nil {
		return fmt.Errorf("%w: generate keypair: %v", domain.ErrKeyProvisioningFailed, err)
	}
	fingerprint, err := crypto.Fingerprint(&key.PublicKey)
	if err != nil {
		return fmt.Errorf("%w: fingerprint: %v", domain.ErrKeyProvisioningFailed, err)
	}
	now := c.now()
	subject := "CN=" + identity
	if displayName != "" {
		subject = "CN=" + displayName
	}
	if email != "" {
		subject += ", E=" + email
	}
	c.keys[name] = &softKey{
		private: key,
		info: domain.KeyInfo{
			Fingerprint: fingerprint,
			Subject:     subject,
			Algorithm:   domain.SignatureAlgorithmRSA,
			ValidFrom:   now,
			ValidTo:     now.Add(c.validity),
		},
	}
	return nil
}

func (c *Custodian) Sign(_ context.Context, digest []byte, identity string) ([]byte, error) {
	key := c.lookup(identity)
	if key == nil {
		return nil, domain.ErrKeyNotFound
	}
	return rsa.SignPKCS1v15(rand.Reader, key.private, stdcrypto.SHA256, digest)
}

func (c *Custodian) Verify(_ context.Context, digest, signature []byte, identity string) (bool, error) {
	key := c.lookup(identity)
	if key == nil {
		return false, nil
	}
	if err := rsa.VerifyPKCS1v15(&key.private.PublicKey, stdcrypto.SHA256, digest, signature); err != nil {
		return false, nil
	}
	return true, nil
}

func (c *Custodian) GetKeyInfo(_ context.Context, identity string) (domain.KeyInfo, error) {
	key := c.lookup(identity)
	if key == nil {
		return domain.KeyInfo{}, domain.ErrKeyNotFound
	}
	return key.info, nil
}

// ExpireKey force-ends the validity window, for tests exercising the
// valid_key_expired verification state.
func (c *Custodian) ExpireKey(identity string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if key, ok := c.keys[keyName(identity)]; ok {
		key.info.ValidTo = at
	}
}

func (c *Custodian) lookup(identity string) *softKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keys[keyName(identity)]
}

func (c *Custodian) now() time.Time {
	if c.Clock != nil {
		return c.Clock().UTC()
	}
	return time.Now().UTC()
}

// keyName mirrors the vault custodian's normalization so the two
// implementations agree on which identities share a key.
func keyName(identity string) string {
	lowered := strings.ToLower(strings.TrimSpace(identity))
	if lowered == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("docseal-user-")
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

var _ usecase.KeyCustodian = (*Custodian)(nil)
