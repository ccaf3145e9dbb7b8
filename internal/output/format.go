// Package output holds small presentation helpers shared by the CLI and
// the remote helper's diagnostics.
package output

import "strings"

// JoinWithAnd renders a list for prose: "a", "a and b", "a, b and c".
func JoinWithAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

// Pluralize returns the singular or plural form for a count.
func Pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
