package types

import "time"

// Project is a named, persisted snapshot of requirements and both generated artifacts.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	UserInput   string    `json:"userInput"`
	UICode      string    `json:"uiCode"`
	JiraStories []Epic    `json:"jiraStories"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Clone returns a copy that shares no slices with p.
func (p Project) Clone() Project {
	p.JiraStories = CloneEpics(p.JiraStories)
	return p
}
