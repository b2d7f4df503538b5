// Package format renders identification results as Markdown-flavored reply
// text. All functions are pure; the output is terminal and never parsed back.
package format

import (
	"fmt"
	"strings"

	"github.com/verdantlab/papabois/internal/identify"
)

// DetailLimit is the character count at which descriptions and healing
// properties are cut, with a literal "..." suffix.
const DetailLimit = 200

const resultsHeader = "🌿 *Plant Identification Results*\n\n"

// Results renders the ranked candidate list: rank, name, confidence as a
// percentage with one decimal place, and whatever enrichment is present.
// Candidates with failed lookups simply omit the detail lines.
func Results(candidates []identify.Candidate) string {
	var sb strings.Builder
	sb.WriteString(resultsHeader)

	for i, c := range candidates {
		fmt.Fprintf(&sb, "%d. *%s*\n", i+1, c.Name)
		fmt.Fprintf(&sb, "   Confidence: %.1f%%\n", c.Confidence*100)

		if len(c.CommonNames) > 0 {
			fmt.Fprintf(&sb, "   Common names: %s\n", strings.Join(c.CommonNames, ", "))
		}
		if c.Description != "" {
			fmt.Fprintf(&sb, "   Description: %s\n", Truncate(c.Description, DetailLimit))
		}
		if i == 0 && c.HealingProperties != "" {
			fmt.Fprintf(&sb, "\n   Healing Properties:\n   %s\n", Truncate(c.HealingProperties, DetailLimit))
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

// PersonaMessage wraps the generated narrative for delivery as a follow-up
// reply.
func PersonaMessage(text string) string {
	return "✨ *A message from your plant:*\n\n" + text
}

// Error renders an error as the uniform user-facing failure text.
func Error(err error) string {
	return "❌ " + err.Error()
}

// Truncate cuts s at limit characters on a rune boundary and appends a
// literal "..." when anything was removed.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
