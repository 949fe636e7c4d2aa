package normalize

import "strings"

// Name canonicalizes an asset name for comparison: lower-cased, trimmed,
// internal whitespace runs collapsed to a single space. Empty or
// all-whitespace input yields "".
func Name(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), " "))
}

// Names maps Name over values, dropping entries that normalize to "".
func Names(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if n := Name(v); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func Trim(value string) string {
	return strings.TrimSpace(value)
}

func EqualNames(a, b string) bool {
	return Name(a) == Name(b)
}
