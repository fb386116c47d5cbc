package services

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// generateSecret returns a URL-safe opaque secret with numBytes bytes of
// entropy. The output carries no decodable structure; validity is
// determined solely by store lookup.
func generateSecret(numBytes int) (string, error) {
	buf := make([]byte, numBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
