// Package handler exposes sessions, projects and exports over connect, plain
// HTTP downloads and a websocket session stream.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"connectrpc.com/connect"
	"github.com/sirupsen/logrus"

	"poassistant/internal/gateway/export"
	"poassistant/internal/gateway/orchestrator"
	"poassistant/internal/gateway/reconcile"
	"poassistant/internal/gateway/session"
	"poassistant/internal/types"
)

// ServiceName is the fully-qualified connect service name.
const ServiceName = "poassistant.v1.AssistantService"

const (
	CreateSessionProcedure   = "/" + ServiceName + "/CreateSession"
	GetSessionProcedure      = "/" + ServiceName + "/GetSession"
	DeleteSessionProcedure   = "/" + ServiceName + "/DeleteSession"
	SetInputProcedure        = "/" + ServiceName + "/SetInput"
	SetImageProcedure        = "/" + ServiceName + "/SetImage"
	ClearImageProcedure      = "/" + ServiceName + "/ClearImage"
	SetViewProcedure         = "/" + ServiceName + "/SetView"
	GenerateProcedure        = "/" + ServiceName + "/Generate"
	RefineProcedure          = "/" + ServiceName + "/Refine"
	GenerateVariantProcedure = "/" + ServiceName + "/GenerateVariant"
	CommitProcedure          = "/" + ServiceName + "/Commit"
	CreateProjectProcedure   = "/" + ServiceName + "/CreateProject"
	LoadProjectProcedure     = "/" + ServiceName + "/LoadProject"
	DeleteProjectProcedure   = "/" + ServiceName + "/DeleteProject"
	NewDraftProcedure        = "/" + ServiceName + "/NewDraft"
	ListProjectsProcedure    = "/" + ServiceName + "/ListProjects"
	PublishExportProcedure   = "/" + ServiceName + "/PublishExport"
)

// Projects is the read side of the project store.
type Projects interface {
	List() []types.Project
	Get(id string) (types.Project, bool)
}

// Gauge tracks open websocket streams. prometheus.Gauge satisfies it.
type Gauge interface {
	Inc()
	Dec()
}

type Deps struct {
	Sessions     *session.Registry
	Engine       *reconcile.Engine
	Orchestrator *orchestrator.Orchestrator
	Projects     Projects
	Exporter     *export.Exporter
	// Publisher may be nil; PublishExport then fails with Unavailable.
	Publisher *export.Publisher
	Streams   Gauge
	Logger    logrus.FieldLogger
}

// Service implements AssistantService and the HTTP side routes.
type Service struct {
	sessions  *session.Registry
	engine    *reconcile.Engine
	orch      *orchestrator.Orchestrator
	projects  Projects
	exporter  *export.Exporter
	publisher *export.Publisher
	streams   Gauge
	log       logrus.FieldLogger

	jobs sync.WaitGroup
}

func NewService(d Deps) *Service {
	log := d.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	exporter := d.Exporter
	if exporter == nil {
		exporter = &export.Exporter{}
	}
	return &Service{
		sessions:  d.Sessions,
		engine:    d.Engine,
		orch:      d.Orchestrator,
		projects:  d.Projects,
		exporter:  exporter,
		publisher: d.Publisher,
		streams:   d.Streams,
		log:       log,
	}
}

// Wait blocks until background generations finished or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.jobs.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Mount registers every procedure and HTTP route on mux.
func (s *Service) Mount(mux *http.ServeMux) {
	opts := []connect.HandlerOption{connect.WithCodec(jsonCodec{})}

	mux.Handle(CreateSessionProcedure, connect.NewUnaryHandler(CreateSessionProcedure, s.CreateSession, opts...))
	mux.Handle(GetSessionProcedure, connect.NewUnaryHandler(GetSessionProcedure, s.GetSession, opts...))
	mux.Handle(DeleteSessionProcedure, connect.NewUnaryHandler(DeleteSessionProcedure, s.DeleteSession, opts...))
	mux.Handle(SetInputProcedure, connect.NewUnaryHandler(SetInputProcedure, s.SetInput, opts...))
	mux.Handle(SetImageProcedure, connect.NewUnaryHandler(SetImageProcedure, s.SetImage, opts...))
	mux.Handle(ClearImageProcedure, connect.NewUnaryHandler(ClearImageProcedure, s.ClearImage, opts...))
	mux.Handle(SetViewProcedure, connect.NewUnaryHandler(SetViewProcedure, s.SetView, opts...))
	mux.Handle(GenerateProcedure, connect.NewUnaryHandler(GenerateProcedure, s.Generate, opts...))
	mux.Handle(RefineProcedure, connect.NewUnaryHandler(RefineProcedure, s.Refine, opts...))
	mux.Handle(GenerateVariantProcedure, connect.NewUnaryHandler(GenerateVariantProcedure, s.GenerateVariant, opts...))
	mux.Handle(CommitProcedure, connect.NewUnaryHandler(CommitProcedure, s.Commit, opts...))
	mux.Handle(CreateProjectProcedure, connect.NewUnaryHandler(CreateProjectProcedure, s.CreateProject, opts...))
	mux.Handle(LoadProjectProcedure, connect.NewUnaryHandler(LoadProjectProcedure, s.LoadProject, opts...))
	mux.Handle(DeleteProjectProcedure, connect.NewUnaryHandler(DeleteProjectProcedure, s.DeleteProject, opts...))
	mux.Handle(NewDraftProcedure, connect.NewUnaryHandler(NewDraftProcedure, s.NewDraft, opts...))
	mux.Handle(ListProjectsProcedure, connect.NewUnaryHandler(ListProjectsProcedure, s.ListProjects, opts...))
	mux.Handle(PublishExportProcedure, connect.NewUnaryHandler(PublishExportProcedure, s.PublishExport, opts...))

	mux.HandleFunc("GET /export/{file}", s.HandleExport)
	mux.HandleFunc("GET /published/{kind}/{id}/{$}", s.HandlePublishedList)
	mux.HandleFunc("GET /published/{kind}/{id}/{name}", s.HandlePublished)
	mux.HandleFunc("GET /ws/session", s.HandleSessionWS)
	mux.HandleFunc("GET /healthz", s.HandleHealth)
}

func (s *Service) session(id string) (*session.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("sessionId is required"))
	}
	sess, err := s.sessions.Get(id)
	if errors.Is(err, session.ErrNotFound) {
		return nil, connect.NewError(connect.CodeNotFound, err)
	}
	return sess, err
}

func (s *Service) view(st session.State, accepted bool) SessionResponse {
	out := SessionResponse{
		Session:  st,
		Commit:   s.engine.Status(st),
		Accepted: accepted,
	}
	if name, ok := s.engine.PendingChanges(st); ok {
		out.PendingChanges = name
	}
	if st.View == session.ViewBoard && st.JiraStories != nil {
		out.Board = export.BoardColumns(st.JiraStories)
	}
	return out
}

// run executes job in the background, or inline when wait is set. The job
// outlives the request: a started generation is never cancelled.
// It returns the state the caller should see: started when the job is still
// running, the settled state otherwise.
func (s *Service) run(ctx context.Context, sess *session.Session, started session.State, job orchestrator.Job, wait bool) session.State {
	jobCtx := context.WithoutCancel(ctx)
	if wait {
		job(jobCtx)
		return sess.Snapshot()
	}
	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		job(jobCtx)
	}()
	return started
}

func internalError(err error) error {
	if err == nil {
		return nil
	}
	var ce *connect.Error
	if errors.As(err, &ce) {
		return err
	}
	return connect.NewError(connect.CodeInternal, err)
}
