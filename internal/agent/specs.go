package agent

import (
	"github.com/jonathan/skill-matcher/internal/llm"
	"github.com/jonathan/skill-matcher/internal/tools"
	"github.com/jonathan/skill-matcher/internal/types"
)

// toolSpecs declares the two tools to the model.
func toolSpecs() []llm.ToolSpec {
	return []llm.ToolSpec{
		{
			Name:        string(tools.KindFindMatches),
			Description: "Find people whose skills match the requested skills, ranked by similarity.",
			Parameters: &llm.ParamSchema{
				Type: "object",
				Properties: map[string]*llm.ParamSchema{
					"skills": {
						Type:        "array",
						Description: "Concrete skills to search for, at most 10.",
						Items:       &llm.ParamSchema{Type: "string"},
					},
					"limit": {
						Type:        "integer",
						Description: "Maximum number of matches, 1 to 10.",
					},
					"availabilityFilter": {
						Type: "string",
						Enum: []string{
							string(types.AvailabilityAvailable),
							string(types.AvailabilityBusy),
							string(types.AvailabilityPartTime),
						},
					},
					"useEmbeddings": {
						Type:        "boolean",
						Description: "Use semantic similarity instead of exact skill overlap.",
					},
				},
				Required: []string{"skills"},
			},
		},
		{
			Name:        string(tools.KindDraftIntro),
			Description: "Draft (never send) an introduction to one candidate returned by find_matches or approved by the user.",
			Parameters: &llm.ParamSchema{
				Type: "object",
				Properties: map[string]*llm.ParamSchema{
					"toUserId": {
						Type:        "string",
						Description: "Candidate id exactly as returned by find_matches.",
					},
					"projectId": {
						Type:        "string",
						Description: "Optional project id to mention.",
					},
					"customNote": {
						Type:        "string",
						Description: "Optional personal note, at most 300 characters.",
					},
				},
				Required: []string{"toUserId"},
			},
		},
	}
}
