package compose

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
)

// Fingerprint hashes the given payload with SHA-256 and returns the hex
// digest. Backup manifests record it for the captured configuration so
// restores can detect tampered or truncated payloads.
func Fingerprint(body []byte) (string, error) {
	if len(body) == 0 {
		return "", errors.New("payload is empty")
	}
	digest := sha256.New()
	if _, err := io.Copy(digest, bytes.NewReader(body)); err != nil {
		return "", err
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

// Verify reports whether body hashes to the expected fingerprint.
func Verify(body []byte, want string) bool {
	got, err := Fingerprint(body)
	return err == nil && got == want
}
