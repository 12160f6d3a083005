// Package carousel drives the home page gallery: a slide index that advances
// on a fixed interval and wraps, with manual navigation re-arming the timer.
package carousel

import (
	"errors"
	"sync"
	"time"
)

// DefaultInterval is the auto-advance period.
const DefaultInterval = 4 * time.Second

var (
	ErrClosed     = errors.New("carousel closed")
	ErrOutOfRange = errors.New("slide index out of range")
)

type Reason string

const (
	ReasonAuto   Reason = "auto"
	ReasonNext   Reason = "next"
	ReasonPrev   Reason = "prev"
	ReasonSelect Reason = "select"
)

// Event reports the slide now showing.
type Event struct {
	Index  int    `json:"index"`
	Reason Reason `json:"reason"`
}

type stopper interface {
	Stop() bool
}

type afterFunc func(d time.Duration, f func()) stopper

func realAfterFunc(d time.Duration, f func()) stopper {
	return time.AfterFunc(d, f)
}

// Carousel holds at most one pending advance at any time.
type Carousel struct {
	mu       sync.Mutex
	length   int
	index    int
	interval time.Duration
	pending  stopper
	gen      uint64
	closed   bool
	events   chan Event
	after    afterFunc
}

// New starts a carousel over length slides. An empty carousel never schedules.
func New(length int, interval time.Duration) *Carousel {
	return newCarousel(length, interval, realAfterFunc)
}

func newCarousel(length int, interval time.Duration, after afterFunc) *Carousel {
	if length < 0 {
		length = 0
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	c := &Carousel{
		length:   length,
		interval: interval,
		events:   make(chan Event, 1),
		after:    after,
	}
	c.mu.Lock()
	c.armLocked()
	c.mu.Unlock()
	return c
}

// Events delivers index changes. Only the latest undelivered event is kept.
// The channel is closed by Close.
func (c *Carousel) Events() <-chan Event {
	return c.events
}

func (c *Carousel) Len() int {
	return c.length
}

func (c *Carousel) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Next moves forward one slide, wrapping to the first.
func (c *Carousel) Next() (int, error) {
	return c.move(ReasonNext, func(i int) int { return (i + 1) % c.length })
}

// Prev moves back one slide, wrapping to the last.
func (c *Carousel) Prev() (int, error) {
	return c.move(ReasonPrev, func(i int) int { return (i - 1 + c.length) % c.length })
}

// Select jumps to slide i.
func (c *Carousel) Select(i int) (int, error) {
	if i < 0 || i >= c.length {
		return c.Index(), ErrOutOfRange
	}
	return c.move(ReasonSelect, func(int) int { return i })
}

// Close cancels the pending advance. Further navigation returns ErrClosed.
func (c *Carousel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopLocked()
	close(c.events)
}

func (c *Carousel) move(reason Reason, step func(int) int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.index, ErrClosed
	}
	if c.length == 0 {
		return 0, ErrOutOfRange
	}
	c.index = step(c.index)
	c.emitLocked(reason)
	c.armLocked()
	return c.index, nil
}

func (c *Carousel) armLocked() {
	c.stopLocked()
	if c.closed || c.length == 0 {
		return
	}
	gen := c.gen
	c.pending = c.after(c.interval, func() { c.fire(gen) })
}

func (c *Carousel) stopLocked() {
	c.gen++
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

func (c *Carousel) fire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// a timer stopped too late still runs; the generation check drops it
	if c.closed || gen != c.gen {
		return
	}
	c.pending = nil
	c.index = (c.index + 1) % c.length
	c.emitLocked(ReasonAuto)
	c.armLocked()
}

func (c *Carousel) emitLocked(reason Reason) {
	ev := Event{Index: c.index, Reason: reason}
	select {
	case c.events <- ev:
		return
	default:
	}
	select {
	case <-c.events:
	default:
	}
	select {
	case c.events <- ev:
	default:
	}
}
