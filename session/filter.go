package session

import "strings"

// matchesFilter reports whether key matches the display filter: a
// case-insensitive subsequence match, so "dbu" matches "DATABASE_URL".
// An empty filter matches everything.
func matchesFilter(key, filter string) bool {
	if filter == "" {
		return true
	}
	want := []rune(strings.ToLower(filter))
	j := 0
	for _, r := range strings.ToLower(key) {
		if j < len(want) && r == want[j] {
			j++
		}
	}
	return j == len(want)
}
