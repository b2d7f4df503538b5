package persona_test

import (
	"strings"
	"testing"

	"github.com/verdantlab/papabois/internal/persona"
)

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		info        persona.PlantInfo
		wantParts   []string
		absentParts []string
	}{
		{
			name: "fully enriched candidate",
			info: persona.PlantInfo{
				Name:              "Aloe vera",
				CommonNames:       []string{"aloe", "burn plant"},
				Description:       "A succulent species.",
				HealingProperties: "Soothes burns.",
			},
			wantParts: []string{
				"You are Aloe vera, speaking as a mystical plant entity.",
				"- Common Names: aloe, burn plant",
				"- Description: A succulent species.",
				"- Healing Properties: Soothes burns.",
			},
		},
		{
			name: "missing details fall back to defaults",
			info: persona.PlantInfo{Name: "Plantus ignotus"},
			wantParts: []string{
				"- Description: A mysterious plant of ancient wisdom",
				"- Healing Properties: Powers yet to be fully understood",
			},
			absentParts: []string{
				"- Description: \n",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			prompt := persona.BuildPrompt(tc.info)
			for _, part := range tc.wantParts {
				if !strings.Contains(prompt, part) {
					t.Errorf("prompt missing %q\nprompt:\n%s", part, prompt)
				}
			}
			for _, part := range tc.absentParts {
				if strings.Contains(prompt, part) {
					t.Errorf("prompt should not contain %q", part)
				}
			}
		})
	}
}
