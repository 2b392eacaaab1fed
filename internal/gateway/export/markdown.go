package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"poassistant/internal/types"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// StoriesMarkdown renders epics as a copyable Markdown document.
func StoriesMarkdown(epics []types.Epic) string {
	var b strings.Builder
	for i, epic := range epics {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n", oneLine(epic.EpicTitle))
		for _, story := range epic.Stories {
			fmt.Fprintf(&b, "\n### %s\n\n", oneLine(story.Title))
			fmt.Fprintf(&b, "> *\"%s\"*\n", oneLine(story.UserStory))
			if len(story.AcceptanceCriteria) > 0 {
				b.WriteString("\n#### Acceptance Criteria\n\n")
				for _, ac := range story.AcceptanceCriteria {
					fmt.Fprintf(&b, "- %s\n", oneLine(ac))
				}
			}
			if len(story.BddScenarios) > 0 {
				b.WriteString("\n#### BDD Scenarios\n")
				for _, bdd := range story.BddScenarios {
					fmt.Fprintf(&b, "\n**%s**\n\n", oneLine(bdd.Scenario))
					fmt.Fprintf(&b, "- **Given** %s\n", oneLine(bdd.Given))
					fmt.Fprintf(&b, "- **When** %s\n", oneLine(bdd.When))
					fmt.Fprintf(&b, "- **Then** %s\n", oneLine(bdd.Then))
				}
			}
		}
	}
	return b.String()
}

// StoriesHTML renders StoriesMarkdown to an HTML fragment. Raw HTML in story
// text is not passed through.
func StoriesHTML(epics []types.Epic) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(StoriesMarkdown(epics)), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// oneLine keeps model text from breaking the surrounding Markdown structure.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
