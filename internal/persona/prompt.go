package persona

import (
	"fmt"
	"strings"
)

// BuildPrompt assembles the user prompt for persona generation from the
// identification and enrichment data of the top candidate. Unknown fields
// fall back to evocative defaults rather than being omitted.
func BuildPrompt(info PlantInfo) string {
	description := info.Description
	if description == "" {
		description = "A mysterious plant of ancient wisdom"
	}
	healing := info.HealingProperties
	if healing == "" {
		healing = "Powers yet to be fully understood"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, speaking as a mystical plant entity.\n\n", info.Name)
	sb.WriteString("Scientific Details:\n")
	fmt.Fprintf(&sb, "- Name: %s\n", info.Name)
	fmt.Fprintf(&sb, "- Common Names: %s\n", strings.Join(info.CommonNames, ", "))
	fmt.Fprintf(&sb, "- Description: %s\n", description)
	fmt.Fprintf(&sb, "- Healing Properties: %s\n", healing)
	sb.WriteString(`
Share your story in a mystical, wise voice, covering:
1. Your origins and native lands
2. Your healing powers and gifts to humanity
3. What brings you joy in the natural world
4. Ancient wisdom or warnings you wish to share

Remember, speak as the plant itself, sharing deep wisdom while being engaging and unique. Keep the response concise but magical.`)

	return sb.String()
}
