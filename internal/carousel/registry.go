package carousel

import (
	"sync"
	"time"
)

// Registry keeps one carousel per browser session.
type Registry struct {
	mu        sync.Mutex
	interval  time.Duration
	carousels map[string]*Carousel
}

func NewRegistry(interval time.Duration) *Registry {
	return &Registry{interval: interval, carousels: make(map[string]*Carousel)}
}

// Open starts a carousel for the session, tearing down any previous one.
func (r *Registry) Open(sessionID string, length int) *Carousel {
	c := New(length, r.interval)
	r.mu.Lock()
	prev := r.carousels[sessionID]
	r.carousels[sessionID] = c
	r.mu.Unlock()
	if prev != nil {
		prev.Close()
	}
	return c
}

// Get returns the session's live carousel.
func (r *Registry) Get(sessionID string) (*Carousel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carousels[sessionID]
	return c, ok
}

// Release closes c and forgets it if it is still the session's carousel.
func (r *Registry) Release(sessionID string, c *Carousel) {
	r.mu.Lock()
	if r.carousels[sessionID] == c {
		delete(r.carousels, sessionID)
	}
	r.mu.Unlock()
	c.Close()
}

// CloseAll tears down every carousel, used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.carousels
	r.carousels = make(map[string]*Carousel)
	r.mu.Unlock()
	for _, c := range all {
		c.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carousels)
}
