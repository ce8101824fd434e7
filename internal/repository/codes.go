package repository

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePrefix builds a LIKE pattern matching prefix literally, for use with ESCAPE '\'.
func likePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}

// withPrefix drops codes that only matched through case folding (sqlite LIKE ignores case).
func withPrefix(codes []string, prefix string) []string {
	kept := codes[:0]
	for _, code := range codes {
		if strings.HasPrefix(code, prefix) {
			kept = append(kept, code)
		}
	}
	return kept
}
