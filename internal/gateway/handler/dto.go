package handler

import (
	"time"

	"poassistant/internal/gateway/export"
	"poassistant/internal/gateway/reconcile"
	"poassistant/internal/gateway/session"
)

// SessionRequest addresses an existing session.
type SessionRequest struct {
	SessionID string `json:"sessionId"`
}

type SetInputRequest struct {
	SessionID string `json:"sessionId"`
	UserInput string `json:"userInput"`
}

// SetImageRequest carries the raw image bytes, base64 encoded on the wire.
type SetImageRequest struct {
	SessionID string `json:"sessionId"`
	Data      []byte `json:"data"`
	MIMEType  string `json:"mimeType"`
}

type SetViewRequest struct {
	SessionID string `json:"sessionId"`
	View      string `json:"view"`
}

// GenerateRequest triggers Generate or GenerateVariant. With Wait the call
// returns only after the gateway settled.
type GenerateRequest struct {
	SessionID string `json:"sessionId"`
	Wait      bool   `json:"wait"`
}

type RefineRequest struct {
	SessionID   string `json:"sessionId"`
	Instruction string `json:"instruction"`
	Wait        bool   `json:"wait"`
}

type CreateProjectRequest struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
}

type ProjectRequest struct {
	SessionID string `json:"sessionId"`
	ProjectID string `json:"projectId"`
}

type ListProjectsRequest struct{}

// PublishExportRequest renders an export of the session, or of a saved project
// when ProjectID is set, into the artifact store.
type PublishExportRequest struct {
	SessionID string `json:"sessionId"`
	ProjectID string `json:"projectId"`
	Format    string `json:"format"`
}

// SessionResponse is returned by every procedure that reads or mutates a session.
type SessionResponse struct {
	Session session.State          `json:"session"`
	Commit  reconcile.CommitStatus `json:"commit"`
	// Accepted is false when the action was refused: a precondition failed or a
	// generation is already running.
	Accepted bool `json:"accepted"`
	// PendingChanges names the active project when it holds unsaved edits.
	PendingChanges string               `json:"pendingChanges,omitempty"`
	Board          []export.BoardColumn `json:"board,omitempty"`
}

type CommitResponse struct {
	SessionResponse
	Result reconcile.CommitResult `json:"result"`
}

type CreateProjectResponse struct {
	SessionResponse
	Project *ProjectSummary `json:"project,omitempty"`
}

type ProjectSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
	EpicCount  int       `json:"epicCount"`
	StoryCount int       `json:"storyCount"`
}

type ListProjectsResponse struct {
	Projects []ProjectSummary `json:"projects"`
}

type PublishExportResponse struct {
	Export export.Published `json:"export"`
	// Path fetches the file from this server when Export.URL is empty.
	Path string `json:"path"`
}
