// Package skills turns free-form skill strings into comparable tokens and vectors.
package skills

import (
	"strings"
	"unicode"
)

// Normalize reduces a raw skill string to its canonical token: lowercase ASCII
// letters and digits separated by single spaces. "Node.js" and "nodejs" both
// normalize to "nodejs".
func Normalize(skill string) string {
	var sb strings.Builder
	sb.Grow(len(skill))

	pendingSpace := false
	for _, r := range strings.ToLower(skill) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			pendingSpace = false
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			pendingSpace = true
		}
		// everything else is punctuation and is dropped without separating tokens
	}

	return sb.String()
}

// NormalizeSet returns the set of non-empty normalized tokens in skills.
func NormalizeSet(skills []string) map[string]struct{} {
	set := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		if token := Normalize(s); token != "" {
			set[token] = struct{}{}
		}
	}
	return set
}
