package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poassistant/internal/gateway/session"
	"poassistant/internal/generation"
)

const validStories = `[{"epicTitle":"Auth","stories":[{"title":"Log in","userStory":"As a user, I want to log in so that I can work.","acceptanceCriteria":["Email required"],"bddScenarios":[{"scenario":"ok","given":"g","when":"w","then":"t"}]}]}]`

type fakeGateway struct {
	prototype func(ctx context.Context, req string, img *generation.Image) (string, error)
	stories   func(ctx context.Context, req string, img *generation.Image) (string, error)
	refine    func(ctx context.Context, markup, instruction string) (string, error)
	variant   func(ctx context.Context, req, prev string, img *generation.Image) (string, error)
	calls     atomic.Int32
}

func (f *fakeGateway) GeneratePrototype(ctx context.Context, req string, img *generation.Image) (string, error) {
	f.calls.Add(1)
	return f.prototype(ctx, req, img)
}

func (f *fakeGateway) GenerateStories(ctx context.Context, req string, img *generation.Image) (string, error) {
	f.calls.Add(1)
	return f.stories(ctx, req, img)
}

func (f *fakeGateway) Refine(ctx context.Context, markup, instruction string) (string, error) {
	f.calls.Add(1)
	return f.refine(ctx, markup, instruction)
}

func (f *fakeGateway) GenerateVariant(ctx context.Context, req, prev string, img *generation.Image) (string, error) {
	f.calls.Add(1)
	return f.variant(ctx, req, prev, img)
}

type recorder struct {
	mu  sync.Mutex
	ops []string
}

func (r *recorder) ObserveGeneration(op string, _ time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		op += ":error"
	}
	r.ops = append(r.ops, op)
}

func newOrchestrator(gw generation.Gateway, rec Recorder) *Orchestrator {
	log, _ := test.NewNullLogger()
	return New(gw, log, rec)
}

func withInput(input string) *session.Session {
	s := session.New("s1")
	s.Update(func(st *session.State) { st.UserInput = input })
	return s
}

func TestGenerateSuccess(t *testing.T) {
	gw := &fakeGateway{
		prototype: func(_ context.Context, req string, img *generation.Image) (string, error) {
			assert.Equal(t, "Build a login form", req)
			assert.Nil(t, img)
			return "<form/>", nil
		},
		stories: func(context.Context, string, *generation.Image) (string, error) { return validStories, nil },
	}
	rec := &recorder{}
	sess := withInput("Build a login form")
	sess.Update(func(st *session.State) {
		st.ActiveProjectID = "old"
		st.Error = "stale"
		st.View = session.ViewBoard
	})

	require.True(t, newOrchestrator(gw, rec).Generate(context.Background(), sess))

	st := sess.Snapshot()
	require.NotNil(t, st.UICode)
	assert.Equal(t, "<form/>", *st.UICode)
	require.Len(t, st.JiraStories, 1)
	assert.Equal(t, "Log in", st.JiraStories[0].Stories[0].Title)
	assert.Empty(t, st.Error)
	assert.False(t, st.Loading)
	assert.Empty(t, st.ActiveProjectID)
	assert.Equal(t, session.ViewPrototype, st.View)
	assert.ElementsMatch(t, []string{"prototype", "stories"}, rec.ops)
}

func TestGenerateRunsCallsConcurrently(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(2)
	both := func() {
		wg.Done()
		wg.Wait()
	}
	gw := &fakeGateway{
		prototype: func(context.Context, string, *generation.Image) (string, error) { both(); return "<div/>", nil },
		stories:   func(context.Context, string, *generation.Image) (string, error) { both(); return "[]", nil },
	}
	done := make(chan struct{})
	go func() {
		newOrchestrator(gw, nil).Generate(context.Background(), withInput("x"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("gateway calls were not issued concurrently")
	}
}

func TestGenerateSetsLoadingWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	gw := &fakeGateway{
		prototype: func(context.Context, string, *generation.Image) (string, error) {
			close(started)
			<-release
			return "<div/>", nil
		},
		stories: func(context.Context, string, *generation.Image) (string, error) { return "[]", nil },
	}
	sess := withInput("x")
	sess.Update(func(st *session.State) { st.UICode = session.StringPtr("<old/>") })

	go newOrchestrator(gw, nil).Generate(context.Background(), sess)
	<-started
	st := sess.Snapshot()
	assert.True(t, st.Loading)
	assert.Nil(t, st.UICode)
	assert.Nil(t, st.JiraStories)
	close(release)

	st, err := sess.WaitIdle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<div/>", *st.UICode)
	assert.NotNil(t, st.JiraStories)
	assert.Empty(t, st.JiraStories)
}

func TestGenerateMalformedStoriesKeepsPrototype(t *testing.T) {
	gw := &fakeGateway{
		prototype: func(context.Context, string, *generation.Image) (string, error) { return "<form/>", nil },
		stories:   func(context.Context, string, *generation.Image) (string, error) { return `[{"epicTitle":`, nil },
	}
	sess := withInput("Build a login form")
	require.True(t, newOrchestrator(gw, nil).Generate(context.Background(), sess))

	st := sess.Snapshot()
	require.NotNil(t, st.UICode)
	assert.Equal(t, "<form/>", *st.UICode)
	assert.Nil(t, st.JiraStories)
	assert.Equal(t, ParseFailureMessage, st.Error)
	assert.False(t, st.Loading)
}

func TestGenerateEitherFailureFailsWhole(t *testing.T) {
	boom := &generation.Error{Op: generation.OpStories, Err: errors.New("quota")}
	gw := &fakeGateway{
		prototype: func(context.Context, string, *generation.Image) (string, error) { return "<form/>", nil },
		stories:   func(context.Context, string, *generation.Image) (string, error) { return "", boom },
	}
	sess := withInput("x")
	require.True(t, newOrchestrator(gw, nil).Generate(context.Background(), sess))

	st := sess.Snapshot()
	assert.Nil(t, st.UICode)
	assert.Nil(t, st.JiraStories)
	assert.Equal(t, "Failed to generate Jira stories.", st.Error)
	assert.False(t, st.Loading)
}

func TestGenerateRefusedWithoutInput(t *testing.T) {
	gw := &fakeGateway{}
	sess := withInput("   ")
	before := sess.Snapshot()

	assert.False(t, newOrchestrator(gw, nil).Generate(context.Background(), sess))
	assert.Equal(t, before, sess.Snapshot())
	assert.Zero(t, gw.calls.Load())
}

func TestGenerateImageOnly(t *testing.T) {
	var got *generation.Image
	var mu sync.Mutex
	gw := &fakeGateway{
		prototype: func(_ context.Context, _ string, img *generation.Image) (string, error) {
			mu.Lock()
			got = img
			mu.Unlock()
			return "<div/>", nil
		},
		stories: func(context.Context, string, *generation.Image) (string, error) { return "[]", nil },
	}
	sess := session.New("s")
	sess.Update(func(st *session.State) { st.Image = session.NewImage([]byte{1, 2}, "image/png") })

	require.True(t, newOrchestrator(gw, nil).Generate(context.Background(), sess))
	require.NotNil(t, got)
	assert.Equal(t, "image/png", got.MIMEType)
}

func TestRefine(t *testing.T) {
	gw := &fakeGateway{
		refine: func(_ context.Context, markup, instruction string) (string, error) {
			assert.Equal(t, "<div/>", markup)
			assert.Equal(t, "make it blue", instruction)
			return "<div class=\"bg-blue-500\"/>", nil
		},
	}
	sess := withInput("x")
	sess.Update(func(st *session.State) {
		st.UICode = session.StringPtr("<div/>")
		st.ActiveProjectID = "p1"
		st.Error = "stale"
	})

	require.True(t, newOrchestrator(gw, nil).Refine(context.Background(), sess, "make it blue"))
	st := sess.Snapshot()
	assert.Equal(t, "<div class=\"bg-blue-500\"/>", *st.UICode)
	assert.False(t, st.Refining)
	assert.Empty(t, st.Error)
	assert.Equal(t, "p1", st.ActiveProjectID)
}

func TestRefineFailureKeepsMarkup(t *testing.T) {
	gw := &fakeGateway{
		refine: func(context.Context, string, string) (string, error) {
			return "", &generation.Error{Op: generation.OpRefine, Err: errors.New("timeout")}
		},
	}
	sess := withInput("x")
	sess.Update(func(st *session.State) { st.UICode = session.StringPtr("<div/>") })

	require.True(t, newOrchestrator(gw, nil).Refine(context.Background(), sess, "x"))
	st := sess.Snapshot()
	assert.Equal(t, "<div/>", *st.UICode)
	assert.Equal(t, "Failed to refine UI prototype.", st.Error)
	assert.False(t, st.Refining)
}

func TestRefinePreconditions(t *testing.T) {
	gw := &fakeGateway{}
	o := newOrchestrator(gw, nil)

	assert.False(t, o.Refine(context.Background(), withInput("x"), "make it blue"), "no prototype")

	sess := withInput("x")
	sess.Update(func(st *session.State) { st.UICode = session.StringPtr("<div/>") })
	assert.False(t, o.Refine(context.Background(), sess, "  "), "blank instruction")
	assert.Zero(t, gw.calls.Load())
}

func TestGenerateVariantSuccess(t *testing.T) {
	gw := &fakeGateway{
		variant: func(_ context.Context, req, prev string, _ *generation.Image) (string, error) {
			assert.Equal(t, "shop", req)
			assert.Equal(t, "<old/>", prev)
			return "<new/>", nil
		},
	}
	sess := withInput("shop")
	sess.Update(func(st *session.State) {
		st.UICode = session.StringPtr("<old/>")
		st.ActiveProjectID = "p1"
	})

	require.True(t, newOrchestrator(gw, nil).GenerateVariant(context.Background(), sess))
	st := sess.Snapshot()
	assert.Equal(t, "<new/>", *st.UICode)
	assert.Empty(t, st.ActiveProjectID)
	assert.False(t, st.Loading)
}

func TestGenerateVariantFailureRestoresPrevious(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	gw := &fakeGateway{
		variant: func(context.Context, string, string, *generation.Image) (string, error) {
			close(started)
			<-release
			return "", &generation.Error{Op: generation.OpVariant, Err: errors.New("500")}
		},
	}
	sess := withInput("shop")
	sess.Update(func(st *session.State) { st.UICode = session.StringPtr("<old/>") })

	done := make(chan bool)
	go func() { done <- newOrchestrator(gw, nil).GenerateVariant(context.Background(), sess) }()
	<-started
	assert.Nil(t, sess.Snapshot().UICode, "markup is cleared while the variant is generated")
	close(release)
	require.True(t, <-done)

	st := sess.Snapshot()
	require.NotNil(t, st.UICode)
	assert.Equal(t, "<old/>", *st.UICode)
	assert.Equal(t, "Failed to generate UI variant.", st.Error)
	assert.False(t, st.Loading)
}

func TestGenerateVariantPreconditions(t *testing.T) {
	gw := &fakeGateway{}
	o := newOrchestrator(gw, nil)
	assert.False(t, o.GenerateVariant(context.Background(), withInput("shop")), "no prototype")

	sess := withInput(" ")
	sess.Update(func(st *session.State) { st.UICode = session.StringPtr("<div/>") })
	assert.False(t, o.GenerateVariant(context.Background(), sess), "no input or image")
	assert.Zero(t, gw.calls.Load())
}

func TestBeginRefusesWhileBusy(t *testing.T) {
	gw := &fakeGateway{}
	o := newOrchestrator(gw, nil)
	sess := withInput("shop")
	sess.Update(func(st *session.State) {
		st.UICode = session.StringPtr("<div/>")
		st.Refining = true
	})

	st, job, ok := o.BeginGenerate(sess, Idle)
	assert.False(t, ok)
	assert.Nil(t, job)
	assert.True(t, st.Refining)
	_, _, ok = o.BeginRefine(sess, "bigger", Idle)
	assert.False(t, ok)
	_, _, ok = o.BeginGenerateVariant(sess, Idle)
	assert.False(t, ok)
	assert.Zero(t, gw.calls.Load())
}

func TestBeginGenerateDefersGatewayCalls(t *testing.T) {
	gw := &fakeGateway{
		prototype: func(context.Context, string, *generation.Image) (string, error) { return "<p/>", nil },
		stories:   func(context.Context, string, *generation.Image) (string, error) { return "[]", nil },
	}
	o := newOrchestrator(gw, nil)
	sess := withInput("shop")

	st, job, ok := o.BeginGenerate(sess, Idle)
	require.True(t, ok)
	assert.True(t, st.Loading)
	assert.Zero(t, gw.calls.Load())

	job(context.Background())
	st = sess.Snapshot()
	assert.False(t, st.Loading)
	require.NotNil(t, st.UICode)
	assert.Equal(t, "<p/>", *st.UICode)
	assert.NotNil(t, st.JiraStories)
	assert.Empty(t, st.JiraStories)
}

func TestFailureLogCarriesCause(t *testing.T) {
	log, hook := test.NewNullLogger()
	gw := &fakeGateway{
		refine: func(context.Context, string, string) (string, error) {
			return "", &generation.Error{Op: generation.OpRefine, Err: errors.New("quota exceeded")}
		},
	}
	sess := withInput("shop")
	sess.Update(func(st *session.State) { st.UICode = session.StringPtr("<div/>") })

	require.True(t, New(gw, log, nil).Refine(context.Background(), sess, "darker"))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "quota exceeded", entry.Data["cause"])
	assert.Equal(t, "Failed to refine UI prototype.", sess.Snapshot().Error)
}
