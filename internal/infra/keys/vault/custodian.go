package vault

import (
	"context"
	stdcrypto "crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"docseal/internal/config"
	"docseal/internal/domain"
	"docseal/internal/infra/crypto"
	"docseal/internal/infra/vaultclient"
	"docseal/internal/usecase"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Custodian keeps one RSA signing keypair per identity in Vault KV v2.
// Provisioning is lazy and idempotent: concurrent first-time callers are
// collapsed in-process by singleflight, and across processes the KV
// check-and-set (cas=0) lets exactly one create win while the losers
// read back the winner's key.
type Custodian struct {
	client   *vaultclient.Client
	env      string
	keyBits  int
	validity time.Duration
	clock    func() time.Time
	logger   *zap.Logger
	group    singleflight.Group
}

type storedKey struct {
	Alg              string `json:"alg"`
	Fingerprint      string `json:"fingerprint"`
	Subject          string `json:"subject"`
	PrivateKeyBase64 string `json:"private_key_base64"`
	PublicKeyBase64  string `json:"public_key_base64"`
	NotBefore        string `json:"not_before"`
	NotAfter         string `json:"not_after"`
}

func NewCustodian(client *vaultclient.Client, env string, keyBits int, validity time.Duration, logger *zap.Logger) (*Custodian, error) {
	if env == "" {
		return nil, errors.New("DOCSEAL_ENV is required")
	}
	if keyBits < 2048 {
		keyBits = 2048
	}
	if validity <= 0 {
		validity = 12 * 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Custodian{
		client:   client,
		env:      env,
		keyBits:  keyBits,
		validity: validity,
		clock:    func() time.Time { return time.Now().UTC() },
		logger:   logger.With(zap.String("component", "key_custodian")),
	}, nil
}

func NewCustodianFromConfig(cfg config.Config, logger *zap.Logger) (*Custodian, error) {
	if cfg.VaultAddr == "" || cfg.VaultToken == "" {
		return nil, errors.New("VAULT_ADDR and VAULT_TOKEN are required")
	}
	return NewCustodian(
		vaultclient.New(cfg.VaultAddr, cfg.VaultToken),
		cfg.Env,
		cfg.KeyRSABits,
		cfg.KeyValidity(),
		logger,
	)
}

func (c *Custodian) EnsureKey(ctx context.Context, identity, displayName, email string) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("%w: vault custodian not configured", domain.ErrKeyProvisioningFailed)
	}
	if strings.TrimSpace(identity) == "" {
		return fmt.Errorf("%w: identity is required", domain.ErrKeyProvisioningFailed)
	}
	_, err, _ := c.group.Do(KeyName(identity), func() (any, error) {
		return nil, c.ensureKey(ctx, identity, displayName, email)
	})
	return err
}

func (c *Custodian) ensureKey(ctx context.Context, identity, displayName, email string) error {
	path, err := vaultPath(c.env, identity)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrKeyProvisioningFailed, err)
	}

	var existing storedKey
	readErr := c.client.ReadKV(ctx, path, &existing)
	switch {
	case readErr == nil:
		notAfter, err := time.Parse(time.RFC3339, existing.NotAfter)
		if err == nil && c.clock().Before(notAfter) {
			return nil
		}
		// Expired key: overwrite with a fresh version. The old version
		// stays in KV history for the evidentiary record.
		return c.provision(ctx, path, identity, displayName, email, -1)
	case errors.Is(readErr, vaultclient.ErrSecretNotFound):
		return c.provision(ctx, path, identity, displayName, email, 0)
	default:
		return fmt.Errorf("%w: read key: %v", domain.ErrKeyProvisioningFailed, readErr)
	}
}

func (c *Custodian) provision(ctx context.Context, path, identity, displayName, email string, cas int) error {
	key, err := rsa.GenerateKey(rand.Reader, c.keyBits)
	if err != nil {
		return fmt.Errorf("%w: generate keypair: %v", domain.ErrKeyProvisioningFailed, err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return fmt.Errorf("%w: encode public key: %v", domain.ErrKeyProvisioningFailed, err)
	}
	fingerprint, err := crypto.Fingerprint(&key.PublicKey)
	if err != nil {
		return fmt.Errorf("%w: fingerprint: %v", domain.ErrKeyProvisioningFailed, err)
	}

	now := c.clock()
	payload := storedKey{
		Alg:              domain.SignatureAlgorithmRSA,
		Fingerprint:      fingerprint,
		Subject:          subjectFor(identity, displayName, email),
		PrivateKeyBase64: base64.StdEncoding.EncodeToString(x509.MarshalPKCS1PrivateKey(key)),
		PublicKeyBase64:  base64.StdEncoding.EncodeToString(pubDER),
		NotBefore:        now.Format(time.RFC3339),
		NotAfter:         now.Add(c.validity).Format(time.RFC3339),
	}

	var writeErr error
	if cas >= 0 {
		writeErr = c.client.WriteKVWithCAS(ctx, path, payload, cas)
	} else {
		writeErr = c.client.WriteKV(ctx, path, payload)
	}
	if errors.Is(writeErr, vaultclient.ErrCheckAndSetConflict) {
		// A concurrent caller created the key first. Same identity, same
		// key name: their key serves us just as well.
		c.logger.Info("key provisioning lost create race, reusing existing key",
			zap.String("identity", identity))
		return nil
	}
	if writeErr != nil {
		return fmt.Errorf("%w: write key: %v", domain.ErrKeyProvisioningFailed, writeErr)
	}
	c.logger.Info("signing key provisioned",
		zap.String("identity", identity),
		zap.String("fingerprint", fingerprint))
	return nil
}

func (c *Custodian) Sign(ctx context.Context, digest []byte, identity string) ([]byte, error) {
	key, err := c.readKey(ctx, identity)
	if err != nil {
		return nil, err
	}
	priv, err := parsePrivateKeyBase64(key.PrivateKeyBase64)
	if err != nil {
		return nil, err
	}
	return rsa.SignPKCS1v15(rand.Reader, priv, stdcrypto.SHA256, digest)
}

func (c *Custodian) Verify(ctx context.Context, digest, signature []byte, identity string) (bool, error) {
	key, err := c.readKey(ctx, identity)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	pub, err := parsePublicKeyBase64(key.PublicKeyBase64)
	if err != nil {
		return false, err
	}
	if err := rsa.VerifyPKCS1v15(pub, stdcrypto.SHA256, digest, signature); err != nil {
		return false, nil
	}
	return true, nil
}

func (c *Custodian) GetKeyInfo(ctx context.Context, identity string) (domain.KeyInfo, error) {
	key, err := c.readKey(ctx, identity)
	if err != nil {
		return domain.KeyInfo{}, err
	}
	info := domain.KeyInfo{
		Fingerprint: key.Fingerprint,
		Subject:     key.Subject,
		Algorithm:   key.Alg,
	}
	if key.NotBefore != "" {
		if t, err := time.Parse(time.RFC3339, key.NotBefore); err == nil {
			info.ValidFrom = t
		}
	}
	if key.NotAfter != "" {
		if t, err := time.Parse(time.RFC3339, key.NotAfter); err == nil {
			info.ValidTo = t
		}
	}
	return info, nil
}

func (c *Custodian) readKey(ctx context.Context, identity string) (*storedKey, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("vault custodian not configured")
	}
	path, err := vaultPath(c.env, identity)
	if err != nil {
		return nil, err
	}
	var key storedKey
	if err := c.client.ReadKV(ctx, path, &key); err != nil {
		if errors.Is(err, vaultclient.ErrSecretNotFound) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, err
	}
	return &key, nil
}

func subjectFor(identity, displayName, email string) string {
	subject := "CN=" + identity
	if displayName != "" {
		subject = "CN=" + displayName
	}
	if email != "" {
		subject += ", E=" + email
	}
	return subject
}

func parsePrivateKeyBase64(value string) (*rsa.PrivateKey, error) {
	if value == "" {
		return nil, errors.New("private_key_base64 is required")
	}
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, err
	}
	return x509.ParsePKCS1PrivateKey(raw)
}

func parsePublicKeyBase64(value string) (*rsa.PublicKey, error) {
	if value == "" {
		return nil, errors.New("public_key_base64 is required")
	}
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, err
	}
	parsed, err := x509.ParsePKIXPublicKey(raw)
	if err != nil {
		return nil, err
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("stored public key is not RSA")
	}
	return pub, nil
}

var _ usecase.KeyCustodian = (*Custodian)(nil)
