package services

import (
	"sync"

	"github.com/cardpoint/onboarding-service/internal/models"
	"github.com/cardpoint/onboarding-service/internal/utils"
)

// RenderEvent is pushed after every operation on a session. Errors holds
// the rejected fields when the operation failed; Notice carries one-off
// messages such as the demo OTP.
type RenderEvent struct {
	View   *models.WizardView `json:"view,omitempty"`
	Errors []utils.FieldError `json:"errors,omitempty"`
	Notice string             `json:"notice,omitempty"`
}

// Renderer receives render events. It must not block.
type Renderer interface {
	Render(sessionID string, ev RenderEvent)
}

const subscriberBuffer = 16

// ViewHub fans render events out to the subscribers of each session.
type ViewHub struct {
	mu   sync.RWMutex
	subs map[string]map[chan RenderEvent]struct{}
}

func NewViewHub() *ViewHub {
	return &ViewHub{subs: make(map[string]map[chan RenderEvent]struct{})}
}

// Subscribe returns a channel of events for sessionID and a cancel func
// that must be called once the subscriber goes away.
func (h *ViewHub) Subscribe(sessionID string) (<-chan RenderEvent, func()) {
	ch := make(chan RenderEvent, subscriberBuffer)

	h.mu.Lock()
	set, ok := h.subs[sessionID]
	if !ok {
		set = make(map[chan RenderEvent]struct{})
		h.subs[sessionID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set, ok := h.subs[sessionID]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(h.subs, sessionID)
				}
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Render delivers ev to every subscriber of sessionID. Slow subscribers
// miss events rather than stall the caller.
func (h *ViewHub) Render(sessionID string, ev RenderEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[sessionID] {
		select {
		case ch <- ev:
		default:
			utils.Logger.WithField("session", sessionID).Debug("Dropping render event for slow subscriber")
		}
	}
}

// Subscribers reports how many listeners sessionID has.
func (h *ViewHub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}
