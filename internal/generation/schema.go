package generation

import (
	genai "google.golang.org/genai"
)

func str(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

var bddScenarioSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"scenario": str("A descriptive title for the BDD scenario."),
		"given":    str("The 'Given' part of the BDD scenario, describing the initial context."),
		"when":     str("The 'When' part of the BDD scenario, describing the action taken by the user."),
		"then":     str("The 'Then' part of the BDD scenario, describing the expected outcome."),
	},
	Required: []string{"scenario", "given", "when", "then"},
}

var storySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":     str("A concise, descriptive title for the user story."),
		"userStory": str("The user story in the format: 'As a [user type], I want to [goal] so that [benefit]'."),
		"acceptanceCriteria": {
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: "A list of acceptance criteria that must be met for the story to be considered complete.",
		},
		"bddScenarios": {
			Type:        genai.TypeArray,
			Items:       bddScenarioSchema,
			Description: "A list of Behavior-Driven Development (BDD) scenarios in Given-When-Then format.",
		},
	},
	Required:         []string{"title", "userStory", "acceptanceCriteria", "bddScenarios"},
}

// EpicsSchema constrains the stories response to an array of epics.
var EpicsSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"epicTitle": str("A high-level title for the epic or feature that groups related user stories."),
			"stories": {
				Type:  genai.TypeArray,
				Items: storySchema,
			},
		},
		Required:         []string{"epicTitle", "stories"},
	},
}
