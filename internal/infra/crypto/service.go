package crypto

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
)

// Service implements content hashing for the signing core. Hashing is
// byte-exact over the stored content: no encoding or line-ending
// normalization, ever.
type Service struct{}

func (s *Service) HashDocument(content []byte) []byte {
	sum := sha256.Sum256(content)
	return sum[:]
}

func (s *Service) EncodeDigest(digest []byte) string {
	return base64.StdEncoding.EncodeToString(digest)
}

// Fingerprint derives the stable identifier of a public key: hex SHA-256
// of its PKIX DER encoding. Rotation between signing and verification
// shows up as a fingerprint change on the record.
func Fingerprint(publicKey any) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:]), nil
}
