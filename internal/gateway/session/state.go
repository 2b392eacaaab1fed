package session

import (
	"encoding/base64"
	"strings"
	"time"

	"poassistant/internal/generation"
	"poassistant/internal/types"
)

// View is the active output tab.
type View string

const (
	ViewPrototype View = "prototype"
	ViewStories   View = "stories"
	ViewBoard     View = "board"
)

// ParseView maps a client string to a View; ok is false for unknown values.
func ParseView(s string) (View, bool) {
	switch v := View(strings.ToLower(strings.TrimSpace(s))); v {
	case ViewPrototype, ViewStories, ViewBoard:
		return v, true
	}
	return "", false
}

// Image is an uploaded reference image. Preview is a data URL the client can display directly.
type Image struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mimeType"`
	Preview  string `json:"preview"`
}

func NewImage(data []byte, mimeType string) *Image {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &Image{
		Data:     append([]byte(nil), data...),
		MIMEType: mimeType,
		Preview:  "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
	}
}

// Payload converts the image to what the generation gateway accepts.
func (i *Image) Payload() *generation.Image {
	if i == nil {
		return nil
	}
	return &generation.Image{Data: i.Data, MIMEType: i.MIMEType}
}

// State is the working draft. It is a plain value; copies returned by Snapshot
// share nothing with the live session.
type State struct {
	ID        string `json:"id"`
	UserInput string `json:"userInput"`
	Image     *Image `json:"image"`
	// UICode is nil until a prototype exists.
	UICode *string `json:"uiCode"`
	// JiraStories is nil until stories exist; an empty non-nil slice is a valid result.
	JiraStories []types.Epic `json:"jiraStories"`
	// ActiveProjectID is "" for an unsaved draft.
	ActiveProjectID string    `json:"activeProjectId,omitempty"`
	Loading         bool      `json:"loading"`
	Refining        bool      `json:"refining"`
	View            View      `json:"view"`
	Error           string    `json:"error,omitempty"`
	Version         uint64    `json:"version"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Busy reports whether a generation or refinement is in flight.
func (s State) Busy() bool { return s.Loading || s.Refining }

// HasInput reports whether there is something to generate from.
func (s State) HasInput() bool {
	return strings.TrimSpace(s.UserInput) != "" || s.Image != nil
}

// HasArtifacts reports whether both prototype and stories are present.
func (s State) HasArtifacts() bool {
	return s.UICode != nil && s.JiraStories != nil
}

// Markup returns the prototype markup, or "" when there is none.
func (s State) Markup() string {
	if s.UICode == nil {
		return ""
	}
	return *s.UICode
}

// Clone returns a deep copy.
func (s State) Clone() State {
	if s.UICode != nil {
		code := *s.UICode
		s.UICode = &code
	}
	if s.Image != nil {
		img := *s.Image
		img.Data = append([]byte(nil), s.Image.Data...)
		s.Image = &img
	}
	s.JiraStories = types.CloneEpics(s.JiraStories)
	return s
}

// ResetDraft clears the draft back to its empty form. The image and view are left alone.
func (s *State) ResetDraft() {
	s.UserInput = ""
	s.UICode = nil
	s.JiraStories = nil
	s.ActiveProjectID = ""
}

// StringPtr is a helper for setting UICode.
func StringPtr(s string) *string { return &s }
