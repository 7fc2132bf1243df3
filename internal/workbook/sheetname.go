package workbook

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxSheetName is the longest sheet name a spreadsheet accepts.
const MaxSheetName = 31

var sheetNameReplacer = strings.NewReplacer(
	":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_",
)

// SanitizeSheetName makes name acceptable as a sheet name: forbidden characters become
// underscores, surrounding apostrophes are dropped and the result is cut to MaxSheetName runes.
func SanitizeSheetName(name string) string {
	s := sheetNameReplacer.Replace(name)
	s = strings.Trim(s, "'")
	s = truncateRunes(s, MaxSheetName)
	s = strings.TrimRight(s, "'")
	if strings.TrimSpace(s) == "" {
		return "Sheet"
	}
	return s
}

// SheetNames maps section names to unique sheet names in order. Names that collide
// case-insensitively after sanitizing get a " (n)" suffix, shortening the base to stay in bounds.
func SheetNames(names []string) []string {
	out := make([]string, len(names))
	used := make(map[string]bool, len(names))
	for i, name := range names {
		base := SanitizeSheetName(name)
		candidate := base
		for n := 2; used[strings.ToLower(candidate)]; n++ {
			suffix := fmt.Sprintf(" (%d)", n)
			candidate = truncateRunes(base, MaxSheetName-len(suffix)) + suffix
		}
		used[strings.ToLower(candidate)] = true
		out[i] = candidate
	}
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
