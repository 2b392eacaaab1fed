// Package reconcile keeps a working session and the project store consistent:
// it decides whether the session diverged from its saved project and performs
// save, update, load, delete and new-draft.
package reconcile

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"poassistant/internal/gateway/session"
	"poassistant/internal/types"
)

const (
	defaultProjectName = "New Project"
	maxDefaultNameLen  = 40
	maxIDAttempts      = 8
)

// ProjectStore is the subset of projectstore.Store the engine needs.
type ProjectStore interface {
	Get(id string) (types.Project, bool)
	Contains(id string) bool
	Add(ctx context.Context, p types.Project) error
	Replace(ctx context.Context, id string, p types.Project) error
	Remove(ctx context.Context, id string) error
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

type Engine struct {
	store ProjectStore
	now   func() time.Time
	newID func() string
	log   logrus.FieldLogger
}

func New(store ProjectStore, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsUnchanged reports whether st is bound to p and matches it exactly.
// A session without an active project is never unchanged.
func IsUnchanged(st session.State, p *types.Project) bool {
	if st.ActiveProjectID == "" || p == nil || p.ID != st.ActiveProjectID {
		return false
	}
	return sameContent(st, p)
}

// sameContent compares the draft's input and artifacts with p, ignoring the binding.
func sameContent(st session.State, p *types.Project) bool {
	if st.UICode == nil || *st.UICode != p.UICode {
		return false
	}
	if st.JiraStories == nil || !types.EqualEpics(st.JiraStories, p.JiraStories) {
		return false
	}
	return st.UserInput == p.UserInput
}

// activeProject returns the project st is bound to, if it still exists.
func (e *Engine) activeProject(st session.State) (*types.Project, bool) {
	if st.ActiveProjectID == "" {
		return nil, false
	}
	p, ok := e.store.Get(st.ActiveProjectID)
	if !ok {
		return nil, false
	}
	return &p, true
}

// IsUnchanged looks up the active project of st and compares against it.
func (e *Engine) IsUnchanged(st session.State) bool {
	p, _ := e.activeProject(st)
	return IsUnchanged(st, p)
}

// DefaultName proposes a project name from the requirements text.
func DefaultName(input string) string {
	name := strings.TrimSpace(input)
	if name == "" {
		return defaultProjectName
	}
	if utf8.RuneCountInString(name) > maxDefaultNameLen {
		r := []rune(name)
		return string(r[:maxDefaultNameLen]) + "..."
	}
	return name
}

// freshID draws ids until one is not in use.
func (e *Engine) freshID() string {
	id := e.newID()
	for i := 1; i < maxIDAttempts && (strings.TrimSpace(id) == "" || e.store.Contains(id)); i++ {
		id = e.newID()
	}
	return id
}
