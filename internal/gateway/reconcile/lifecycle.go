package reconcile

import (
	"context"

	"github.com/sirupsen/logrus"

	"poassistant/internal/gateway/session"
	"poassistant/internal/types"
)

// Load replaces the draft with the project's contents. Unknown ids are ignored
// and a session with a generation in flight is left alone.
func (e *Engine) Load(_ context.Context, sess *session.Session, id string) bool {
	p, ok := e.store.Get(id)
	if !ok {
		e.log.WithField("project_id", id).Debug("load: unknown project")
		return false
	}
	stories := types.CloneEpics(p.JiraStories)
	if stories == nil {
		stories = []types.Epic{}
	}
	_, ok = sess.TryUpdate(idle, func(st *session.State) {
		st.UserInput = p.UserInput
		st.UICode = session.StringPtr(p.UICode)
		st.JiraStories = stories
		st.Image = nil
		st.Error = ""
		st.ActiveProjectID = p.ID
		st.View = session.ViewPrototype
	})
	if !ok {
		e.log.WithField("project_id", id).Debug("load refused: generation in progress")
	}
	return ok
}

// Delete removes the project. When sess is bound to it the draft is reset;
// otherwise sess is left untouched. sess may be nil.
func (e *Engine) Delete(ctx context.Context, sess *session.Session, id string) error {
	if err := e.store.Remove(ctx, id); err != nil {
		return err
	}
	e.log.WithField("project_id", id).Info("project deleted")
	if sess == nil {
		return nil
	}
	sess.TryUpdate(func(st session.State) bool {
		return st.ActiveProjectID != "" && st.ActiveProjectID == id
	}, func(st *session.State) {
		st.ResetDraft()
	})
	return nil
}

// NewDraft resets the session to an empty draft. The store is not touched.
// It reports false while a generation is in flight.
func (e *Engine) NewDraft(sess *session.Session) bool {
	st, ok := sess.TryUpdate(idle, func(st *session.State) {
		st.ResetDraft()
		st.Image = nil
		st.Error = ""
		st.View = session.ViewPrototype
	})
	e.log.WithFields(logrus.Fields{"session_id": st.ID, "accepted": ok}).Debug("new draft")
	return ok
}

func idle(st session.State) bool { return !st.Busy() }
