package export

import (
	"bytes"
	"encoding/csv"
	"strings"

	"poassistant/internal/types"
)

var storiesHeader = []string{"Epic", "Story Title", "User Story", "Acceptance Criteria", "BDD Scenario", "Given", "When", "Then"}

// storyRows flattens epics into one row per BDD scenario. A story without
// scenarios yields a single row with blank scenario cells.
func storyRows(epics []types.Epic) [][]string {
	var rows [][]string
	for _, epic := range epics {
		for _, story := range epic.Stories {
			base := []string{epic.EpicTitle, story.Title, story.UserStory, strings.Join(story.AcceptanceCriteria, "\n")}
			if len(story.BddScenarios) == 0 {
				rows = append(rows, append(base, "", "", "", ""))
				continue
			}
			for _, bdd := range story.BddScenarios {
				row := append(append([]string(nil), base...), bdd.Scenario, bdd.Given, bdd.When, bdd.Then)
				rows = append(rows, row)
			}
		}
	}
	return rows
}

// StoriesCSV renders epics as delimited text. Cells with commas, quotes or line
// breaks are quoted with inner quotes doubled.
func StoriesCSV(epics []types.Epic) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(storiesHeader); err != nil {
		return nil, err
	}
	if err := w.WriteAll(storyRows(epics)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
