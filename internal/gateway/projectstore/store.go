package projectstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"poassistant/internal/types"
)

var (
	ErrDuplicateID = errors.New("projectstore: duplicate project id")
	ErrNotFound    = errors.New("projectstore: project not found")
)

// Observer is told about every mutation attempt. op is "add", "replace" or "remove".
type Observer func(op string, err error)

type Option func(*Store)

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Store) { s.observe = o }
}

// Store is the ordered project collection, most recently created first.
// Every mutation is written to the backend before the lock is released; when the
// write fails the in-memory list is left as it was.
type Store struct {
	backend Backend
	log     logrus.FieldLogger
	observe Observer

	mu       sync.RWMutex
	projects []types.Project
}

// Open loads the prior list from backend. An absent or corrupt record yields an
// empty store; only backend I/O failures are returned.
func Open(ctx context.Context, backend Backend, opts ...Option) (*Store, error) {
	s := &Store{backend: backend, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(s)
	}

	data, err := backend.Read(ctx)
	switch {
	case errors.Is(err, ErrRecordNotFound):
		s.projects = []types.Project{}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("projectstore: load: %w", err)
	}

	projects, dropped, err := Decode(data)
	if err != nil {
		s.log.WithError(err).Warn("project store record is corrupt; starting empty")
		s.projects = []types.Project{}
		return s, nil
	}
	if dropped > 0 {
		s.log.WithField("dropped", dropped).Warn("project store record had entries without a unique id")
	}
	s.projects = projects
	s.log.WithField("projects", len(projects)).Debug("project store loaded")
	return s, nil
}

// List returns copies of all projects in store order.
func (s *Store) List() []types.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Project, len(s.projects))
	for i, p := range s.projects {
		out[i] = p.Clone()
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.projects)
}

func (s *Store) Get(id string) (types.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.projects[i].Clone(), true
	}
	return types.Project{}, false
}

func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(id) >= 0
}

// Add inserts p at the front.
func (s *Store) Add(ctx context.Context, p types.Project) (err error) {
	defer func() { s.report("add", err) }()
	p = p.Clone()
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		return fmt.Errorf("projectstore: add: empty id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(p.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
	}
	next := make([]types.Project, 0, len(s.projects)+1)
	next = append(next, p)
	next = append(next, s.projects...)
	return s.commitLocked(ctx, next)
}

// Replace overwrites the project with id in place. p.ID is forced to id.
func (s *Store) Replace(ctx context.Context, id string, p types.Project) (err error) {
	defer func() { s.report("replace", err) }()
	id = strings.TrimSpace(id)
	p = p.Clone()
	p.ID = id

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := append([]types.Project(nil), s.projects...)
	next[i] = p
	return s.commitLocked(ctx, next)
}

// Remove deletes the project with id. Removing an unknown id is a no-op.
func (s *Store) Remove(ctx context.Context, id string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return nil
	}
	defer func() { s.report("remove", err) }()
	next := make([]types.Project, 0, len(s.projects)-1)
	next = append(next, s.projects[:i]...)
	next = append(next, s.projects[i+1:]...)
	return s.commitLocked(ctx, next)
}

func (s *Store) Close() error {
	return s.backend.Close()
}

// commitLocked persists next and only then makes it the live list.
func (s *Store) commitLocked(ctx context.Context, next []types.Project) error {
	data, err := Encode(next)
	if err != nil {
		return fmt.Errorf("projectstore: encode: %w", err)
	}
	if err := s.backend.Write(ctx, data); err != nil {
		s.log.WithError(err).Error("project store write failed; mutation discarded")
		return fmt.Errorf("projectstore: persist: %w", err)
	}
	s.projects = next
	return nil
}

func (s *Store) indexLocked(id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return -1
	}
	for i := range s.projects {
		if s.projects[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) report(op string, err error) {
	if s.observe != nil {
		s.observe(op, err)
	}
}
