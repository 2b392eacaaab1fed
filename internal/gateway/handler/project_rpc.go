package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"

	"poassistant/internal/gateway/export"
	"poassistant/internal/gateway/reconcile"
	"poassistant/internal/types"
)

func (s *Service) Commit(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[CommitResponse], error) {
	sess, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.Commit(ctx, sess)
	if err != nil {
		return nil, internalError(err)
	}
	accepted := res.Outcome == reconcile.OutcomeUpdated || res.Outcome == reconcile.OutcomeUnchanged
	return connect.NewResponse(&CommitResponse{
		SessionResponse: s.view(sess.Snapshot(), accepted),
		Result:          res,
	}), nil
}

// CreateProject saves the session as a new named project.
func (s *Service) CreateProject(ctx context.Context, req *connect.Request[CreateProjectRequest]) (*connect.Response[CreateProjectResponse], error) {
	sess, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	p, ok, err := s.engine.CreateNamed(ctx, sess, req.Msg.Name)
	if err != nil {
		return nil, internalError(err)
	}
	out := &CreateProjectResponse{SessionResponse: s.view(sess.Snapshot(), ok)}
	if ok {
		out.Project = ptr(summarize(p))
	}
	return connect.NewResponse(out), nil
}

// LoadProject replaces the draft with a saved project. It is refused while a
// generation is running and for unknown ids.
func (s *Service) LoadProject(ctx context.Context, req *connect.Request[ProjectRequest]) (*connect.Response[SessionResponse], error) {
	sess, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	ok := s.engine.Load(ctx, sess, strings.TrimSpace(req.Msg.ProjectID))
	return connect.NewResponse(ptr(s.view(sess.Snapshot(), ok))), nil
}

// DeleteProject removes a project. The session is optional; when it is bound
// to the deleted project it is reset to an empty draft.
func (s *Service) DeleteProject(ctx context.Context, req *connect.Request[ProjectRequest]) (*connect.Response[SessionResponse], error) {
	id := strings.TrimSpace(req.Msg.ProjectID)
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("projectId is required"))
	}
	if strings.TrimSpace(req.Msg.SessionID) == "" {
		if err := s.engine.Delete(ctx, nil, id); err != nil {
			return nil, internalError(err)
		}
		return connect.NewResponse(&SessionResponse{Accepted: true}), nil
	}
	sess, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Delete(ctx, sess, id); err != nil {
		return nil, internalError(err)
	}
	return connect.NewResponse(ptr(s.view(sess.Snapshot(), true))), nil
}

func (s *Service) NewDraft(_ context.Context, req *connect.Request[SessionRequest]) (*connect.Response[SessionResponse], error) {
	sess, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	ok := s.engine.NewDraft(sess)
	return connect.NewResponse(ptr(s.view(sess.Snapshot(), ok))), nil
}

func (s *Service) ListProjects(_ context.Context, _ *connect.Request[ListProjectsRequest]) (*connect.Response[ListProjectsResponse], error) {
	projects := s.projects.List()
	out := &ListProjectsResponse{Projects: make([]ProjectSummary, 0, len(projects))}
	for _, p := range projects {
		out.Projects = append(out.Projects, summarize(p))
	}
	return connect.NewResponse(out), nil
}

func (s *Service) PublishExport(ctx context.Context, req *connect.Request[PublishExportRequest]) (*connect.Response[PublishExportResponse], error) {
	if s.publisher == nil {
		return nil, connect.NewError(connect.CodeUnavailable, fmt.Errorf("artifact store is not configured"))
	}
	format, ok := export.ParseFormat(req.Msg.Format)
	if !ok {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown format %q", req.Msg.Format))
	}
	src, owner, err := s.source(req.Msg.SessionID, req.Msg.ProjectID)
	if err != nil {
		return nil, err
	}
	file, err := s.exporter.Render(ctx, format, src)
	if errors.Is(err, export.ErrNothingToExport) {
		return nil, connect.NewError(connect.CodeFailedPrecondition, err)
	}
	if err != nil {
		return nil, internalError(err)
	}
	pub, err := s.publisher.Publish(ctx, owner, file)
	if err != nil {
		return nil, internalError(err)
	}
	s.log.WithField("owner", owner).WithField("name", pub.Name).Info("export published")
	return connect.NewResponse(&PublishExportResponse{Export: pub, Path: publishedPath(pub)}), nil
}

// source resolves what to export: a saved project when projectID is set,
// otherwise the session draft. owner names the artifact folder.
func (s *Service) source(sessionID, projectID string) (export.Source, string, error) {
	if id := strings.TrimSpace(projectID); id != "" {
		p, ok := s.projects.Get(id)
		if !ok {
			return export.Source{}, "", connect.NewError(connect.CodeNotFound, fmt.Errorf("project %q not found", id))
		}
		stories := p.JiraStories
		if stories == nil {
			stories = []types.Epic{}
		}
		return export.Source{UICode: &p.UICode, Stories: stories}, "projects/" + p.ID, nil
	}
	sess, err := s.session(sessionID)
	if err != nil {
		return export.Source{}, "", err
	}
	st := sess.Snapshot()
	return export.Source{UICode: st.UICode, Stories: st.JiraStories}, "sessions/" + st.ID, nil
}

func summarize(p types.Project) ProjectSummary {
	return ProjectSummary{
		ID:         p.ID,
		Name:       p.Name,
		CreatedAt:  p.CreatedAt,
		EpicCount:  len(p.JiraStories),
		StoryCount: types.StoryCount(p.JiraStories),
	}
}
