package repository

import (
	"crypto/sha256"
	"encoding/hex"
)

// hashKey gives client-supplied keys a fixed length and keeps the raw
// values (IPs, idempotency keys) out of the database.
func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
