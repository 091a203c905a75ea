package vault

import (
	"errors"
	"fmt"
	"strings"
)

// Vault KV v2 path format (env-scoped, one signing key per user):
// secret/data/docseal/{env}/users/{key_name}/signing
// Stored fields: alg, fingerprint, subject, private/public key DER base64,
// not_before, not_after.
const vaultKVPathFormat = "secret/data/docseal/%s/users/%s/signing"

const keyNamePrefix = "docseal-user-"

// KeyName maps a caller identity onto the vault key name. The mapping is
// deterministic and load-bearing: the same identity must resolve to the
// same key across requests, so signing and later verification find the
// same material. Lowercased, "@" and "." become "-", anything outside
// [a-z0-9-] becomes "-".
func KeyName(identity string) string {
	lowered := strings.ToLower(strings.TrimSpace(identity))
	var b strings.Builder
	b.Grow(len(keyNamePrefix) + len(lowered))
	b.WriteString(keyNamePrefix)
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

func vaultPath(env, identity string) (string, error) {
	if env == "" {
		return "", errors.New("DOCSEAL_ENV is required")
	}
	if strings.TrimSpace(identity) == "" {
		return "", errors.New("identity is required")
	}
	return fmt.Sprintf(vaultKVPathFormat, env, KeyName(identity)), nil
}
