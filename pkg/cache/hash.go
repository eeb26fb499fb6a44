package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Key derives a store key from a source-composition fingerprint.
// The key format is: namespace:hash(fingerprint).
func Key(namespace string, fingerprint []byte) string {
	return namespace + ":" + Hash(fingerprint)
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string to prevent collisions.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
