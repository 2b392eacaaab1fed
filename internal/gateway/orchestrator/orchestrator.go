// Package orchestrator sequences generation gateway calls for a session and
// applies their results or failures to it.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"poassistant/internal/gateway/session"
	"poassistant/internal/generation"
	"poassistant/internal/types"
)

// ParseFailureMessage is shown when the stories text cannot be decoded.
const ParseFailureMessage = "Failed to parse generated stories"

// Recorder receives per-call timings. *metrics.Metrics satisfies it.
type Recorder interface {
	ObserveGeneration(op string, started time.Time, err error)
}

type Orchestrator struct {
	gateway generation.Gateway
	log     logrus.FieldLogger
	rec     Recorder
}

func New(gateway generation.Gateway, log logrus.FieldLogger, rec Recorder) *Orchestrator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Orchestrator{gateway: gateway, log: log, rec: rec}
}

// CanGenerate reports whether Generate would accept st.
func CanGenerate(st session.State) bool { return st.HasInput() }

// CanRefine reports whether Refine would accept st with instruction.
func CanRefine(st session.State, instruction string) bool {
	return strings.TrimSpace(instruction) != "" && st.UICode != nil
}

// CanGenerateVariant reports whether GenerateVariant would accept st.
func CanGenerateVariant(st session.State) bool { return st.HasInput() && st.UICode != nil }

// Guard is an extra acceptance check evaluated together with an operation's
// own precondition under the session lock.
type Guard func(session.State) bool

// Idle refuses while a generation or refinement is in flight.
func Idle(st session.State) bool { return !st.Busy() }

// Job performs the gateway call(s) of an accepted operation and applies the
// outcome to the session.
type Job func(ctx context.Context)

func accept(guard Guard, pre func(session.State) bool) func(session.State) bool {
	return func(st session.State) bool {
		if guard != nil && !guard(st) {
			return false
		}
		return pre(st)
	}
}

// Generate produces a prototype and stories concurrently from the session input.
// It returns false without touching the session when there is no input.
func (o *Orchestrator) Generate(ctx context.Context, sess *session.Session) bool {
	_, job, ok := o.BeginGenerate(sess, nil)
	if ok {
		job(ctx)
	}
	return ok
}

// BeginGenerate enters the loading state when guard and the input precondition
// hold. The returned job runs both gateway calls.
func (o *Orchestrator) BeginGenerate(sess *session.Session, guard Guard) (session.State, Job, bool) {
	st, ok := sess.TryUpdate(accept(guard, CanGenerate), func(st *session.State) {
		st.Loading = true
		st.Error = ""
		st.UICode = nil
		st.JiraStories = nil
		st.ActiveProjectID = ""
		st.View = session.ViewPrototype
	})
	if !ok {
		return st, nil, false
	}
	input, image := st.UserInput, st.Image.Payload()
	log := o.log.WithFields(logrus.Fields{"session_id": st.ID, "op": "generate"})

	return st, func(ctx context.Context) {
		var markup, storiesText string
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			markup, err = o.call(generation.OpPrototype, func() (string, error) {
				return o.gateway.GeneratePrototype(gctx, input, image)
			})
			return err
		})
		g.Go(func() error {
			var err error
			storiesText, err = o.call(generation.OpStories, func() (string, error) {
				return o.gateway.GenerateStories(gctx, input, image)
			})
			return err
		})

		if err := g.Wait(); err != nil {
			failure(log, err).Warn("generation failed")
			sess.Update(func(st *session.State) {
				st.Error = generation.UserMessage(err)
				st.Loading = false
			})
			return
		}

		epics, perr := types.ParseEpics(storiesText)
		if perr != nil {
			log.WithError(perr).WithField("stories_bytes", len(storiesText)).Warn("stories could not be parsed")
		}
		sess.Update(func(st *session.State) {
			st.UICode = session.StringPtr(markup)
			if perr != nil {
				st.Error = ParseFailureMessage
			} else {
				st.JiraStories = epics
			}
			st.Loading = false
		})
		log.WithField("stories", types.StoryCount(epics)).Info("generation finished")
	}, true
}

// Refine applies instruction to the current prototype.
func (o *Orchestrator) Refine(ctx context.Context, sess *session.Session, instruction string) bool {
	_, job, ok := o.BeginRefine(sess, instruction, nil)
	if ok {
		job(ctx)
	}
	return ok
}

func (o *Orchestrator) BeginRefine(sess *session.Session, instruction string, guard Guard) (session.State, Job, bool) {
	st, ok := sess.TryUpdate(accept(guard, func(st session.State) bool {
		return CanRefine(st, instruction)
	}), func(st *session.State) {
		st.Refining = true
		st.Error = ""
	})
	if !ok {
		return st, nil, false
	}
	markup := st.Markup()
	log := o.log.WithFields(logrus.Fields{"session_id": st.ID, "op": "refine"})

	return st, func(ctx context.Context) {
		out, err := o.call(generation.OpRefine, func() (string, error) {
			return o.gateway.Refine(ctx, markup, instruction)
		})
		sess.Update(func(st *session.State) {
			if err != nil {
				st.Error = generation.UserMessage(err)
			} else {
				st.UICode = session.StringPtr(out)
			}
			st.Refining = false
		})
		if err != nil {
			failure(log, err).Warn("refinement failed")
		}
	}, true
}

// GenerateVariant replaces the prototype with a distinct alternative. The previous
// markup is restored when the call fails.
func (o *Orchestrator) GenerateVariant(ctx context.Context, sess *session.Session) bool {
	_, job, ok := o.BeginGenerateVariant(sess, nil)
	if ok {
		job(ctx)
	}
	return ok
}

func (o *Orchestrator) BeginGenerateVariant(sess *session.Session, guard Guard) (session.State, Job, bool) {
	var previous string
	st, ok := sess.TryUpdate(accept(guard, CanGenerateVariant), func(st *session.State) {
		previous = *st.UICode
		st.Loading = true
		st.Error = ""
		st.UICode = nil
		st.ActiveProjectID = ""
		st.View = session.ViewPrototype
	})
	if !ok {
		return st, nil, false
	}
	input, image := st.UserInput, st.Image.Payload()
	log := o.log.WithFields(logrus.Fields{"session_id": st.ID, "op": "variant"})

	return st, func(ctx context.Context) {
		out, err := o.call(generation.OpVariant, func() (string, error) {
			return o.gateway.GenerateVariant(ctx, input, previous, image)
		})
		sess.Update(func(st *session.State) {
			if err != nil {
				st.UICode = session.StringPtr(previous)
				st.Error = generation.UserMessage(err)
			} else {
				st.UICode = session.StringPtr(out)
			}
			st.Loading = false
		})
		if err != nil {
			failure(log, err).Warn("variant generation failed; previous prototype restored")
		}
	}, true
}

// failure attaches the underlying cause; a gateway error's own text is only the
// user-facing message.
func failure(log logrus.FieldLogger, err error) *logrus.Entry {
	entry := log.WithError(err)
	var gerr *generation.Error
	if errors.As(err, &gerr) {
		entry = entry.WithField("cause", gerr.Cause())
	}
	return entry
}

func (o *Orchestrator) call(op generation.Op, fn func() (string, error)) (string, error) {
	started := time.Now()
	out, err := fn()
	if o.rec != nil {
		o.rec.ObserveGeneration(string(op), started, err)
	}
	return out, err
}
