package services

import (
	"context"
	"sync"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type scheduledFunc struct {
	delay time.Duration
	fn    func()
}

// fakeScheduler queues work until RunAll is called.
type fakeScheduler struct {
	mu      sync.Mutex
	pending []scheduledFunc
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, scheduledFunc{delay: d, fn: fn})
}

func (s *fakeScheduler) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, 0, len(s.pending))
	for _, p := range s.pending {
		out = append(out, p.delay)
	}
	return out
}

func (s *fakeScheduler) RunAll() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, p := range pending {
		p.fn()
	}
}

type renderedEvent struct {
	sessionID string
	ev        RenderEvent
}

type recordingRenderer struct {
	mu     sync.Mutex
	events []renderedEvent
}

func (r *recordingRenderer) Render(sessionID string, ev RenderEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, renderedEvent{sessionID: sessionID, ev: ev})
}

func (r *recordingRenderer) Last() RenderEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return RenderEvent{}
	}
	return r.events[len(r.events)-1].ev
}

func (r *recordingRenderer) Notices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.ev.Notice != "" {
			out = append(out, e.ev.Notice)
		}
	}
	return out
}

type sentReference struct {
	mobile    string
	reference string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentReference
}

func (n *recordingNotifier) NotifyReference(_ context.Context, mobile, reference string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentReference{mobile: mobile, reference: reference})
	return nil
}
