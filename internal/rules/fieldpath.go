// internal/rules/fieldpath.go
package rules

import (
	"strconv"
	"strings"

	"github.com/solatis/docguard/internal/types"
)

/*
 * Field path resolution for document content.
 *
 * Resolves dotted paths ("invoice.lines.0.total") through nested objects and
 * arrays. Object steps look up the segment as a key; array steps parse the
 * segment as a decimal index. Anything else stops resolution.
 *
 * Key functions:
 *   - SplitPath: dotted path -> ordered segments
 *   - Resolve: one-shot resolution from a dotted path
 *   - ResolveSegments: resolution from pre-split segments (compiled rules)
 *
 * Missing is not an error: every dead end (missing key, scalar in the middle
 * of a path, out-of-range index, nil content, empty path) yields nil. The
 * resolver never panics, so a malformed document can never abort a pass.
 */

// SplitPath splits a dotted field path into ordered keys.
// Returns nil for the empty path.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// Resolve returns the value at path inside content, or nil if absent.
func Resolve(content any, path string) any {
	return ResolveSegments(content, SplitPath(path))
}

// ResolveSegments walks content following segments.
// Returns nil if segments is empty or any step cannot be taken.
func ResolveSegments(content any, segments []string) any {
	if len(segments) == 0 {
		return nil
	}

	current := normalizeContainer(content)
	for _, seg := range segments {
		switch v := current.(type) {
		case map[string]any:
			val, ok := v[seg]
			if !ok {
				return nil
			}
			current = normalizeContainer(val)
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil
			}
			current = normalizeContainer(v[idx])
		default:
			// nil or scalar with path remaining
			return nil
		}
	}
	return current
}

// normalizeContainer unwraps types.Content so the walk only has to handle
// the two JSON container shapes.
func normalizeContainer(v any) any {
	if c, ok := v.(types.Content); ok {
		return map[string]any(c)
	}
	return v
}
