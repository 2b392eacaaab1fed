package handler

import (
	"context"
	"fmt"

	"connectrpc.com/connect"

	"poassistant/internal/gateway/orchestrator"
	"poassistant/internal/gateway/session"
)

func (s *Service) CreateSession(_ context.Context, _ *connect.Request[SessionRequest]) (*connect.Response[SessionResponse], error) {
	sess := s.sessions.Create()
	s.log.WithField("session_id", sess.ID()).Debug("session created")
	return connect.NewResponse(ptr(s.view(sess.Snapshot(), true))), nil
}

func (s *Service) GetSession(_ context.Context, req *connect.Request[SessionRequest]) (*connect.Response[SessionResponse], error) {
	sess, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(ptr(s.view(sess.Snapshot(), true))), nil
}

// DeleteSession drops the session. Running generations finish against the
// detached session and are discarded.
func (s *Service) DeleteSession(_ context.Context, req *connect.Request[SessionRequest]) (*connect.Response[SessionResponse], error) {
	sess, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.Delete(sess.ID())
	return connect.NewResponse(ptr(s.view(sess.Snapshot(), true))), nil
}

// SetInput edits the requirements text. The active project binding is kept.
func (s *Service) SetInput(_ context.Context, req *connect.Request[SetInputRequest]) (*connect.Response[SessionResponse], error) {
	sess, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	st := sess.Update(func(st *session.State) { st.UserInput = req.Msg.UserInput })
	return connect.NewResponse(ptr(s.view(st, true))), nil
}

func (s *Service) SetImage(_ context.Context, req *connect.Request[SetImageRequest]) (*connect.Response[SessionResponse], error) {
	if len(req.Msg.Data) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("image data is required"))
	}
	sess, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	img := session.NewImage(req.Msg.Data, req.Msg.MIMEType)
	st := sess.Update(func(st *session.State) { st.Image = img })
	return connect.NewResponse(ptr(s.view(st, true))), nil
}

func (s *Service) ClearImage(_ context.Context, req *connect.Request[SessionRequest]) (*connect.Response[SessionResponse], error) {
	sess, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	st := sess.Update(func(st *session.State) { st.Image = nil })
	return connect.NewResponse(ptr(s.view(st, true))), nil
}

func (s *Service) SetView(_ context.Context, req *connect.Request[SetViewRequest]) (*connect.Response[SessionResponse], error) {
	view, ok := session.ParseView(req.Msg.View)
	if !ok {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown view %q", req.Msg.View))
	}
	sess, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	st := sess.Update(func(st *session.State) { st.View = view })
	return connect.NewResponse(ptr(s.view(st, true))), nil
}

func (s *Service) Generate(ctx context.Context, req *connect.Request[GenerateRequest]) (*connect.Response[SessionResponse], error) {
	sess, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	st, job, ok := s.orch.BeginGenerate(sess, orchestrator.Idle)
	if ok {
		st = s.run(ctx, sess, st, job, req.Msg.Wait)
	}
	return connect.NewResponse(ptr(s.view(st, ok))), nil
}

func (s *Service) Refine(ctx context.Context, req *connect.Request[RefineRequest]) (*connect.Response[SessionResponse], error) {
	sess, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	st, job, ok := s.orch.BeginRefine(sess, req.Msg.Instruction, orchestrator.Idle)
	if ok {
		st = s.run(ctx, sess, st, job, req.Msg.Wait)
	}
	return connect.NewResponse(ptr(s.view(st, ok))), nil
}

func (s *Service) GenerateVariant(ctx context.Context, req *connect.Request[GenerateRequest]) (*connect.Response[SessionResponse], error) {
	sess, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	st, job, ok := s.orch.BeginGenerateVariant(sess, orchestrator.Idle)
	if ok {
		st = s.run(ctx, sess, st, job, req.Msg.Wait)
	}
	return connect.NewResponse(ptr(s.view(st, ok))), nil
}

func ptr[T any](v T) *T { return &v }
