package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const resetSecretBytes = 32

// ResetSecrets implements ports.ResetSecretGenerator: 32 bytes from
// crypto/rand, hex encoded, stored as their SHA-256 digest.
type ResetSecrets struct{}

func NewResetSecrets() ResetSecrets { return ResetSecrets{} }

func (ResetSecrets) Generate() (string, string, error) {
	raw := make([]byte, resetSecretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("reset secret: %w", err)
	}
	secret := hex.EncodeToString(raw)
	return secret, digest(secret), nil
}

func (ResetSecrets) Digest(secret string) string {
	return digest(secret)
}

func digest(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
