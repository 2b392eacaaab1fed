package session

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

var ErrNotFound = errors.New("session not found")

// Gauge receives the number of live sessions.
type Gauge interface {
	Set(float64)
}

// Registry holds sessions by id and expires those idle for longer than ttl.
type Registry struct {
	items *gocache.Cache
	ttl   time.Duration
	gauge Gauge
}

func NewRegistry(ttl time.Duration, gauge Gauge) *Registry {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	cleanup := ttl / 2
	if ttl == gocache.NoExpiration || cleanup < time.Second {
		cleanup = time.Minute
	}
	r := &Registry{items: gocache.New(ttl, cleanup), ttl: ttl, gauge: gauge}
	r.items.OnEvicted(func(string, interface{}) { r.report() })
	return r
}

// Create registers a fresh empty session.
func (r *Registry) Create() *Session {
	s := New(uuid.NewString())
	r.items.Set(s.ID(), s, gocache.DefaultExpiration)
	r.report()
	return s
}

// Get returns the session and extends its idle deadline.
func (r *Registry) Get(id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}
	v, ok := r.items.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	s := v.(*Session)
	r.items.Set(id, s, gocache.DefaultExpiration)
	return s, nil
}

func (r *Registry) Delete(id string) {
	r.items.Delete(strings.TrimSpace(id))
	r.report()
}

func (r *Registry) Len() int { return r.items.ItemCount() }

func (r *Registry) report() {
	if r.gauge != nil {
		r.gauge.Set(float64(r.items.ItemCount()))
	}
}
