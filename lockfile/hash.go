package lockfile

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent computes a SHA256 hash of content for use in lockfiles.
func HashContent(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// VerifyHash checks if content matches the expected hash.
func VerifyHash(content []byte, expectedHash string) bool {
	return HashContent(content) == expectedHash
}

// ModuleFileUpToDate reports whether the lockfile was generated from the
// given root MODULE.bazel content.
func (l *Lockfile) ModuleFileUpToDate(content []byte) bool {
	return VerifyHash(content, l.ModuleFileHash)
}
