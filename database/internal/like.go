// Package internal holds query helpers shared by the database backends.
package internal

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLikePattern escapes the LIKE wildcards in s so it matches literally
// when used with ESCAPE '\'.
func EscapeLikePattern(s string) string {
	return likeEscaper.Replace(s)
}
