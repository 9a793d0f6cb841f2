package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Algorithm names the digest used for new records. It is stored alongside
// every record so historical records stay verifiable if the default changes.
const Algorithm = "SHA-256"

// ContentHash returns the hex digest of the rendered artifact bytes.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CombinedHash binds a content hash to the trace id, owning user and creation
// time. Two byte-identical artifacts generated by different users, or by the
// same user at different times, therefore carry distinct values.
func CombinedHash(contentHash, traceID, ownerID string, createdAt time.Time) string {
	chain := contentHash + ":" + traceID + ":" + ownerID + ":" + createdAt.UTC().Format(time.RFC3339Nano)
	sum := sha256.Sum256([]byte(chain))
	return hex.EncodeToString(sum[:])
}

// DisplayCode shortens a combined hash to the 16-character code printed on
// generated documents.
func DisplayCode(combinedHash string) string {
	if len(combinedHash) < 16 {
		return strings.ToUpper(combinedHash)
	}
	return strings.ToUpper(combinedHash[:16])
}
