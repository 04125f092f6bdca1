package scanner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// entityID computes the deterministic id spec.md §4.7 mandates: the first
// half of sha256(root ":" relativePath ":" kind ":" name). Deterministic
// across runs and stable under re-scans since it depends only on the
// artifact's logical coordinates, never on scan order.
func entityID(root, relativePath string, kind ArtifactKind, name string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s:%s", root, relativePath, kind, name)))
	full := hex.EncodeToString(sum[:])
	return full[:len(full)/2]
}
