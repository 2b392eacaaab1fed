package export

import (
	"unicode/utf8"

	"poassistant/internal/types"
)

const excerptLen = 100

type BoardCard struct {
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
}

type BoardColumn struct {
	Epic  string      `json:"epic"`
	Cards []BoardCard `json:"cards"`
}

// BoardColumns lays epics out as story-board columns.
func BoardColumns(epics []types.Epic) []BoardColumn {
	cols := make([]BoardColumn, 0, len(epics))
	for _, epic := range epics {
		col := BoardColumn{Epic: epic.EpicTitle, Cards: make([]BoardCard, 0, len(epic.Stories))}
		for _, story := range epic.Stories {
			col.Cards = append(col.Cards, BoardCard{Title: story.Title, Excerpt: Excerpt(story.UserStory)})
		}
		cols = append(cols, col)
	}
	return cols
}

// Excerpt cuts s to 100 runes and marks the cut with "...".
func Excerpt(s string) string {
	if utf8.RuneCountInString(s) <= excerptLen {
		return s
	}
	return string([]rune(s)[:excerptLen]) + "..."
}
