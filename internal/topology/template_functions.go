package topology

import (
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleCaser is a package-level caser shared by all template executions.
var titleCaser = cases.Title(language.English)

// instructionFuncMap returns the template functions available to instruction
// templates. All functions are stateless and safe for concurrent template
// execution.
func instructionFuncMap() template.FuncMap {
	return template.FuncMap{
		// join concatenates elements with separator between them.
		// Template usage: {{join .Keywords ", "}}
		"join": func(elems []string, sep string) string {
			return strings.Join(elems, sep)
		},

		// truncate limits a description to length runes, adding "..." when
		// it was cut. Rosters shown to dispatchers stay scannable this way.
		"truncate": truncateDescription,

		// titleSnake capitalizes each underscore-separated word, turning
		// "it_support" into "It_Support" for instruction prose.
		"titleSnake": func(s string) string {
			parts := strings.Split(s, "_")
			for i, p := range parts {
				parts[i] = titleCaser.String(p)
			}
			return strings.Join(parts, "_")
		},
	}
}

// truncateDescription limits s to length runes and appends "..." when
// anything was removed. A non-positive length yields the empty string.
func truncateDescription(s string, length int) string {
	if length <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}
	return string(runes[:length]) + "..."
}
