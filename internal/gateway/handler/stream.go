package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"poassistant/internal/gateway/session"
)

const (
	sessionWSWriteWait = 10 * time.Second
	sessionWSPongWait  = 60 * time.Second
	sessionWSPingEvery = (sessionWSPongWait * 9) / 10
)

var sessionWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type sessionWSInbound struct {
	Type      string `json:"type"`
	UserInput string `json:"userInput,omitempty"`
	View      string `json:"view,omitempty"`
}

type sessionWSOutbound struct {
	Type string `json:"type"`
	*SessionResponse
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// HandleSessionWS streams the session on every change. Clients may also send
// "ping", "set_input" and "set_view" messages.
func (s *Service) HandleSessionWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := sessionWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	if s.streams != nil {
		s.streams.Inc()
		defer s.streams.Dec()
	}
	log := s.log.WithField("session_id", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(sessionWSPongWait)); err != nil {
		log.WithError(err).Warn("session ws set read deadline failed")
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(sessionWSPongWait))
	})

	writeCh := make(chan sessionWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(sessionWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(sessionWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(sessionWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	states := sess.Subscribe(ctx)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case st, ok := <-states:
				if !ok {
					return
				}
				view := s.view(st, true)
				pushSessionWS(writeCh, sessionWSOutbound{Type: "session", SessionResponse: &view})
			}
		}
	}()

	for {
		var in sessionWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch msgType := strings.ToLower(strings.TrimSpace(in.Type)); msgType {
		case "ping":
			pushSessionWS(writeCh, sessionWSOutbound{Type: "pong"})
		case "set_input":
			sess.Update(func(st *session.State) { st.UserInput = in.UserInput })
		case "set_view":
			view, ok := session.ParseView(in.View)
			if !ok {
				pushSessionWS(writeCh, sessionWSOutbound{Type: "error", Code: "invalid_argument", Message: "unknown view: " + in.View})
				continue
			}
			sess.Update(func(st *session.State) { st.View = view })
		case "":
			pushSessionWS(writeCh, sessionWSOutbound{Type: "error", Code: "invalid_argument", Message: "type is required"})
		default:
			pushSessionWS(writeCh, sessionWSOutbound{Type: "error", Code: "invalid_argument", Message: "unsupported type: " + msgType})
		}
	}
}

// pushSessionWS queues out, dropping the oldest queued message when full.
func pushSessionWS(writeCh chan sessionWSOutbound, out sessionWSOutbound) {
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
