// Package docs implements Document Projection (C5): rendering current-state
// entities to frontmatter+body files, parsing them back, and the content
// hash that is the sole identity check the reconciliation engine trusts.
//
// Grounded on the teacher's models.Entity stable-serialization helpers
// (entity_optimized.go), generalized from a fixed tag-list shape to
// arbitrary property maps.
package docs

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// ComputeSyncHash is the sole content identity used by the reconciliation
// engine: strip underscore-prefixed temporal keys, canonicalize, hash with
// a 160-bit algorithm, return lowercase hex.
func ComputeSyncHash(props map[string]any) string {
	var b strings.Builder
	canonicalize(&b, userProps(props))
	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// userProps strips every underscore-prefixed key, which is temporal
// bookkeeping, not user content.
func userProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if !strings.HasPrefix(k, "_") {
			out[k] = v
		}
	}
	return out
}

// canonicalize writes a stable-key-order, type-preserving textual form of v
// into b. Numbers, booleans, and nulls are preserved verbatim; lists retain
// order; nested maps recurse with the same key-sort discipline.
func canonicalize(b *strings.Builder, v any) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(b, "%q:", k)
			canonicalize(b, val[k])
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			canonicalize(b, item)
		}
		b.WriteByte(']')
	case nil:
		b.WriteString("null")
	case string:
		fmt.Fprintf(b, "%q", val)
	case bool:
		fmt.Fprintf(b, "%t", val)
	default:
		fmt.Fprintf(b, "%v", val)
	}
}
