// Package jsonset treats a JSON-array text column as a set of member
// identifiers. Posts and comments store who liked, shared, bookmarked or
// reposted them in such columns; the mirrored counter columns are always
// rewritten from the cardinality reported here.
package jsonset

import (
	"encoding/json"

	"github.com/samber/lo"
)

// Decode normalizes a raw column value into an ordered member list. The
// value may be empty, a JSON array, or a JSON-encoded string wrapping an
// array (legacy rows were double-encoded). Malformed input decodes to an
// empty set rather than an error so bad legacy data never breaks reads.
func Decode(raw string) []string {
	if raw == "" {
		return []string{}
	}

	var members []string
	if err := json.Unmarshal([]byte(raw), &members); err == nil {
		return lo.Compact(members)
	}

	// Double-encoded legacy value: a JSON string holding the array.
	var inner string
	if err := json.Unmarshal([]byte(raw), &inner); err == nil && inner != raw {
		return Decode(inner)
	}

	return []string{}
}

// Encode serializes a set to its canonical storage form, "[]" when empty.
func Encode(set []string) string {
	if len(set) == 0 {
		return "[]"
	}
	out, err := json.Marshal(set)
	if err != nil {
		return "[]"
	}
	return string(out)
}

// Add returns the set with member present exactly once. Existing order is
// preserved and a new member is appended at the end.
func Add(set []string, member string) []string {
	if lo.Contains(set, member) {
		return set
	}
	return append(set, member)
}

// Remove returns the set with all occurrences of member removed.
func Remove(set []string, member string) []string {
	return lo.Without(set, member)
}

func Contains(set []string, member string) bool {
	return lo.Contains(set, member)
}

func Count(set []string) int64 {
	return int64(len(set))
}
