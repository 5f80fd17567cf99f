// Package signature derives deterministic exact-match keys for error
// signals. Two signals with the same code, message, and context derive
// the same key regardless of context map insertion order; status code
// and severity never participate.
package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// MaxDepth bounds recursion into nested context values. Structures
// nested deeper serialize to an opaque token instead of recursing.
const MaxDepth = 8

// Key returns the exact-match key for a signal's code, message, and
// context.
func Key(code, message string, context map[string]any) string {
	parts := []string{code, message, CanonicalContext(context)}
	h := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h[:])
}

// CanonicalContext serializes a context map with keys sorted at every
// level, so insertion order never changes the result. A nil map
// serializes to "null".
func CanonicalContext(m map[string]any) string {
	if m == nil {
		return "null"
	}
	s, _ := canonicalMap(m, 0)
	return s
}

// CanonicalValue serializes a single context value. ok is false when the
// value nests deeper than MaxDepth or cannot be marshaled; callers
// comparing values must treat that as unequal.
func CanonicalValue(v any) (string, bool) {
	s, ok := canonical(v, 0)
	return s, ok
}

func canonical(v any, depth int) (string, bool) {
	if depth > MaxDepth {
		return "<deep>", false
	}
	switch val := v.(type) {
	case nil:
		return "null", true
	case map[string]any:
		return canonicalMap(val, depth)
	case []any:
		return canonicalSlice(val, depth)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return "<opaque>", false
		}
		return string(data), true
	}
}

func canonicalMap(m map[string]any, depth int) (string, bool) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ok := true
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			kb = []byte(`"<opaque>"`)
		}
		b.Write(kb)
		b.WriteByte(':')
		s, childOK := canonical(m[k], depth+1)
		if !childOK {
			ok = false
		}
		b.WriteString(s)
	}
	b.WriteByte('}')
	return b.String(), ok
}

func canonicalSlice(s []any, depth int) (string, bool) {
	ok := true
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		val, childOK := canonical(v, depth+1)
		if !childOK {
			ok = false
		}
		b.WriteString(val)
	}
	b.WriteByte(']')
	return b.String(), ok
}
