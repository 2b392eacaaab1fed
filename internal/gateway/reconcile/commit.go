package reconcile

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"poassistant/internal/gateway/session"
	"poassistant/internal/types"
)

type Outcome string

const (
	// OutcomeRefused: the session lacks a prototype or stories.
	OutcomeRefused Outcome = "refused"
	// OutcomeUnchanged: the active project already matches the session.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeUpdated: the active project was overwritten.
	OutcomeUpdated Outcome = "updated"
	// OutcomeNeedsName: there is no active project; call CreateNamed.
	OutcomeNeedsName Outcome = "needs_name"
)

type CommitResult struct {
	Outcome     Outcome       `json:"outcome"`
	Project     types.Project `json:"project,omitzero"`
	DefaultName string        `json:"defaultName,omitempty"`
}

// Commit saves the session into its active project, or asks for a name when
// there is none.
func (e *Engine) Commit(ctx context.Context, sess *session.Session) (CommitResult, error) {
	st := sess.Snapshot()
	if !st.HasArtifacts() {
		return CommitResult{Outcome: OutcomeRefused}, nil
	}
	if st.ActiveProjectID == "" {
		return CommitResult{Outcome: OutcomeNeedsName, DefaultName: DefaultName(st.UserInput)}, nil
	}

	p, ok := e.activeProject(st)
	if !ok {
		// The bound project was deleted elsewhere; the draft is now unsaved.
		e.log.WithField("project_id", st.ActiveProjectID).Info("active project no longer exists")
		sess.TryUpdate(func(cur session.State) bool {
			return cur.ActiveProjectID == st.ActiveProjectID
		}, func(cur *session.State) {
			cur.ActiveProjectID = ""
		})
		return CommitResult{Outcome: OutcomeNeedsName, DefaultName: DefaultName(st.UserInput)}, nil
	}
	if IsUnchanged(st, p) {
		return CommitResult{Outcome: OutcomeUnchanged, Project: *p}, nil
	}

	updated := *p
	updated.UICode = *st.UICode
	updated.JiraStories = types.CloneEpics(st.JiraStories)
	updated.UserInput = st.UserInput
	updated.CreatedAt = e.now()
	if err := e.store.Replace(ctx, p.ID, updated); err != nil {
		return CommitResult{}, err
	}
	e.log.WithFields(logrus.Fields{"project_id": p.ID, "session_id": st.ID}).Info("project updated")
	return CommitResult{Outcome: OutcomeUpdated, Project: updated}, nil
}

// CreateNamed saves the session as a new project called name and binds the
// session to it. It reports false without touching anything when name is blank,
// the session lacks an artifact or a generation is in flight. When the draft
// changes while the project is being written, the project is removed again and
// false is returned.
func (e *Engine) CreateNamed(ctx context.Context, sess *session.Session, name string) (types.Project, bool, error) {
	name = strings.TrimSpace(name)
	st := sess.Snapshot()
	if name == "" || !st.HasArtifacts() || st.Busy() {
		return types.Project{}, false, nil
	}

	p := types.Project{
		ID:          e.freshID(),
		Name:        name,
		UserInput:   st.UserInput,
		UICode:      *st.UICode,
		JiraStories: types.CloneEpics(st.JiraStories),
		CreatedAt:   e.now(),
	}
	if err := e.store.Add(ctx, p); err != nil {
		return types.Project{}, false, err
	}
	log := e.log.WithFields(logrus.Fields{"project_id": p.ID, "session_id": st.ID, "name": name})
	_, bound := sess.TryUpdate(func(cur session.State) bool {
		return !cur.Busy() && cur.ActiveProjectID == st.ActiveProjectID && sameContent(cur, &p)
	}, func(cur *session.State) {
		cur.ActiveProjectID = p.ID
	})
	if !bound {
		log.Info("draft changed while saving; project discarded")
		if err := e.store.Remove(ctx, p.ID); err != nil {
			return types.Project{}, false, err
		}
		return types.Project{}, false, nil
	}
	log.Info("project created")
	return p, true, nil
}
