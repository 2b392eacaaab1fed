package types

import (
	"errors"
	"fmt"
	"strings"

	"poassistant/internal/util/jsonutil"
)

// ErrStoriesParse marks generated story text that could not be decoded into epics.
// It is recoverable and distinct from gateway failures.
var ErrStoriesParse = errors.New("stories: invalid structured content")

// BddScenario is a single Given/When/Then specification for one story facet.
type BddScenario struct {
	Scenario string `json:"scenario"`
	Given    string `json:"given"`
	When     string `json:"when"`
	Then     string `json:"then"`
}

// Story is one user-facing requirement.
type Story struct {
	Title              string        `json:"title"`
	UserStory          string        `json:"userStory"`
	AcceptanceCriteria []string      `json:"acceptanceCriteria"`
	BddScenarios       []BddScenario `json:"bddScenarios"`
}

// Epic groups related stories under one feature-level title.
type Epic struct {
	EpicTitle string  `json:"epicTitle"`
	Stories   []Story `json:"stories"`
}

// EqualEpics compares two epic lists element by element and field by field.
// Reordering epics, stories, criteria or scenarios counts as a difference.
func EqualEpics(a, b []Epic) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func (e Epic) Equal(o Epic) bool {
	if e.EpicTitle != o.EpicTitle || len(e.Stories) != len(o.Stories) {
		return false
	}
	for i := range e.Stories {
		if !e.Stories[i].Equal(o.Stories[i]) {
			return false
		}
	}
	return true
}

func (s Story) Equal(o Story) bool {
	if s.Title != o.Title || s.UserStory != o.UserStory {
		return false
	}
	if len(s.AcceptanceCriteria) != len(o.AcceptanceCriteria) || len(s.BddScenarios) != len(o.BddScenarios) {
		return false
	}
	for i := range s.AcceptanceCriteria {
		if s.AcceptanceCriteria[i] != o.AcceptanceCriteria[i] {
			return false
		}
	}
	for i := range s.BddScenarios {
		if s.BddScenarios[i] != o.BddScenarios[i] {
			return false
		}
	}
	return true
}

// CloneEpics returns a deep copy so callers can hand out epics without sharing backing arrays.
func CloneEpics(in []Epic) []Epic {
	if in == nil {
		return nil
	}
	out := make([]Epic, len(in))
	for i, e := range in {
		out[i] = Epic{EpicTitle: e.EpicTitle}
		if e.Stories != nil {
			out[i].Stories = make([]Story, len(e.Stories))
		}
		for j, s := range e.Stories {
			out[i].Stories[j] = Story{
				Title:              s.Title,
				UserStory:          s.UserStory,
				AcceptanceCriteria: cloneSlice(s.AcceptanceCriteria),
				BddScenarios:       cloneSlice(s.BddScenarios),
			}
		}
	}
	return out
}

// cloneSlice copies in, keeping nil and empty distinct so JSON output is unchanged.
func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// StoryCount returns the number of stories across all epics.
func StoryCount(epics []Epic) int {
	n := 0
	for _, e := range epics {
		n += len(e.Stories)
	}
	return n
}

// ParseEpics decodes the stories text returned by the generation gateway.
// The payload must be a JSON array of epics, optionally wrapped in a Markdown fence.
// A successful parse never returns a nil slice.
func ParseEpics(text string) ([]Epic, error) {
	raw := strings.TrimSpace(jsonutil.StripCodeFence(text))
	if raw == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrStoriesParse)
	}
	if !strings.HasPrefix(raw, "[") && !strings.HasPrefix(raw, `"`) {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrStoriesParse)
	}
	var epics []Epic
	if err := jsonutil.UnmarshalFlex([]byte(raw), &epics); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoriesParse, err)
	}
	if epics == nil {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrStoriesParse)
	}
	return epics, nil
}
