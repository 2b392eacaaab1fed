package session

import (
	"context"
	"sync"
	"time"
)

// Session guards one working draft and notifies subscribers on every change.
type Session struct {
	mu      sync.Mutex
	state   State
	changed chan struct{}
	now     func() time.Time
}

func New(id string) *Session {
	s := &Session{
		changed: make(chan struct{}),
		now:     time.Now,
	}
	s.state = State{ID: id, View: ViewPrototype, UpdatedAt: s.now()}
	return s
}

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ID
}

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Update applies fn under the session lock and returns the resulting snapshot.
// fn must not block; it must never wrap a gateway call.
func (s *Session) Update(fn func(*State)) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.state.ID
	fn(&s.state)
	s.state.ID = id
	s.state.Version++
	s.state.UpdatedAt = s.now()
	s.notifyLocked()
	return s.state.Clone()
}

// TryUpdate applies fn only when ok(state) holds. It reports whether fn ran.
func (s *Session) TryUpdate(ok func(State) bool, fn func(*State)) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok(s.state) {
		return s.state.Clone(), false
	}
	id := s.state.ID
	fn(&s.state)
	s.state.ID = id
	s.state.Version++
	s.state.UpdatedAt = s.now()
	s.notifyLocked()
	return s.state.Clone(), true
}

func (s *Session) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// Subscribe emits the current state and then every later state until ctx is canceled.
// Slow readers only see the latest state.
func (s *Session) Subscribe(ctx context.Context) <-chan State {
	out := make(chan State, 1)
	go func() {
		defer close(out)
		var last uint64
		first := true
		for {
			s.mu.Lock()
			st := s.state.Clone()
			ch := s.changed
			s.mu.Unlock()

			if first || st.Version != last {
				pushState(out, st)
				last = st.Version
				first = false
			}

			select {
			case <-ctx.Done():
				return
			case <-ch:
			}
		}
	}()
	return out
}

// WaitIdle blocks until no generation or refinement is in flight.
func (s *Session) WaitIdle(ctx context.Context) (State, error) {
	for {
		s.mu.Lock()
		st := s.state.Clone()
		ch := s.changed
		s.mu.Unlock()
		if !st.Busy() {
			return st, nil
		}
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-ch:
		}
	}
}

func pushState(out chan State, st State) {
	select {
	case out <- st:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	select {
	case out <- st:
	default:
	}
}
