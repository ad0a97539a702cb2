// Package util provides common string helpers used across trackstats.
package util

import (
	"path/filepath"
	"strings"
)

// SanitizeName makes a label safe for use in a file name by replacing path
// separators, spaces and colons with underscores.
func SanitizeName(s string) string {
	r := strings.NewReplacer(" ", "_", ":", "_", "/", "_", `\`, "_")
	return r.Replace(strings.TrimSpace(s))
}

// SegmentFromPath derives a segment label from an input file name by
// stripping the directory and every known extension.
// "data/first_half.json.gz" gives "first_half".
func SegmentFromPath(path string) string {
	name := filepath.Base(path)
	for _, ext := range []string{".gz", ".json", ".csv"} {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}
