// Package strings provides string slice utilities.
package strings

// Dedupe removes duplicates and empty strings from a slice. Order of first
// occurrence is preserved, which response assembly relies on: the primary
// contact's value stays first.
func Dedupe(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			result = append(result, v)
		}
	}

	return result
}
