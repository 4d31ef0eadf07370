// File: lattice/helper.go
package lattice

import (
	"sort"
	"strconv"
	"strings"
)

// flattenMap converts a nested map[string]any to a flat map with
// dot-notation paths. Nested maps become path prefixes, everything else is
// a leaf value.
func flattenMap(nested map[string]any, prefix string) map[string]any {
	flat := make(map[string]any)

	for key, value := range nested {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		if subMap, isMap := value.(map[string]any); isMap {
			for subPath, subValue := range flattenMap(subMap, path) {
				flat[subPath] = subValue
			}
		} else {
			flat[path] = value
		}
	}

	return flat
}

// setNestedValue sets a value in a nested map using a dot-notation path,
// creating intermediate maps as needed. A non-map segment on the way is
// replaced by a map.
func setNestedValue(nested map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	current := nested

	for i := 0; i < len(segments)-1; i++ {
		segment := segments[i]
		next, exists := current[segment]
		if !exists {
			newMap := make(map[string]any)
			current[segment] = newMap
			current = newMap
			continue
		}
		if nextMap, isMap := next.(map[string]any); isMap {
			current = nextMap
		} else {
			newMap := make(map[string]any)
			current[segment] = newMap
			current = newMap
		}
	}

	current[segments[len(segments)-1]] = value
}

// sortedPaths returns the keys of a flat map in lexical order, for a
// deterministic application order of document overrides.
func sortedPaths(flat map[string]any) []string {
	paths := make([]string, 0, len(flat))
	for p := range flat {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// isValidKeySegment checks if a single path segment is a valid bare key:
// ASCII letters, digits, underscores and dashes, no dots.
func isValidKeySegment(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !(isLetter || isDigit || r == '_' || r == '-') {
			return false
		}
	}
	return true
}

func quote(s string) string {
	return strconv.Quote(s)
}
