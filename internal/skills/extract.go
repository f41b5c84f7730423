package skills

import "strings"

// knownSkills is the fixed extraction vocabulary, scanned in this order.
// Entries are canonical lowercase forms.
var knownSkills = []string{
	"javascript",
	"typescript",
	"react",
	"vue",
	"angular",
	"svelte",
	"next.js",
	"node.js",
	"express",
	"python",
	"django",
	"flask",
	"fastapi",
	"java",
	"spring",
	"kotlin",
	"swift",
	"go",
	"rust",
	"c++",
	"c#",
	".net",
	"ruby",
	"rails",
	"php",
	"laravel",
	"sql",
	"postgresql",
	"mysql",
	"mongodb",
	"redis",
	"graphql",
	"docker",
	"kubernetes",
	"terraform",
	"aws",
	"gcp",
	"azure",
	"linux",
	"machine learning",
	"data science",
	"tensorflow",
	"pytorch",
	"figma",
	"ui/ux",
	"devops",
	"flutter",
	"react native",
}

// skillAliases maps common variants to an entry of knownSkills
var skillAliases = map[string]string{
	"golang":   "go",
	"k8s":      "kubernetes",
	"nodejs":   "node.js",
	"node":     "node.js",
	"reactjs":  "react",
	"react.js": "react",
	"vuejs":    "vue",
	"vue.js":   "vue",
	"nextjs":   "next.js",
	"postgres": "postgresql",
	"mongo":    "mongodb",
	"ml":       "machine learning",
	"csharp":   "c#",
	"dotnet":   ".net",
	"ror":      "rails",
	"gcloud":   "gcp",
}

// ExtractFromMessage returns the known skills mentioned in a free-text
// request, in vocabulary order and without duplicates. A term only matches
// on token boundaries, so "java" is not found inside "javascript".
func ExtractFromMessage(text string) []string {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return nil
	}

	mentioned := make(map[string]bool)
	for _, skill := range knownSkills {
		if containsTerm(lower, skill) {
			mentioned[skill] = true
		}
	}
	for alias, canonical := range skillAliases {
		if containsTerm(lower, alias) {
			mentioned[canonical] = true
		}
	}

	found := make([]string, 0, len(mentioned))
	for _, skill := range knownSkills {
		if mentioned[skill] {
			found = append(found, skill)
		}
	}
	return found
}

// KnownSkills returns a copy of the extraction vocabulary.
func KnownSkills() []string {
	out := make([]string, len(knownSkills))
	copy(out, knownSkills)
	return out
}

// containsTerm reports whether term occurs in text with no letter or digit
// immediately before or after it.
func containsTerm(text, term string) bool {
	for start := 0; start < len(text); {
		i := strings.Index(text[start:], term)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(term)
		if (i == 0 || !isWordByte(text[i-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		start = i + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
