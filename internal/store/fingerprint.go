package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"supportboard/internal/models"
)

// Fingerprint computes a stable content digest of a snapshot, used as
// the ETag for conditional reads. encoding/json emits struct fields in
// declaration order and map keys sorted, so the digest is deterministic
// regardless of how the open settings record was assembled.
func Fingerprint(snapshot *models.DataSnapshot) string {
	encoded, err := json.Marshal(snapshot)
	if err != nil {
		// A snapshot is built from decoded JSON, so this cannot
		// happen with well-formed data; an empty tag just disables
		// conditional reads for this response.
		return ""
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}
