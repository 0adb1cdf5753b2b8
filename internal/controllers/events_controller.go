package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/cardpoint/onboarding-service/internal/services"
	"github.com/cardpoint/onboarding-service/internal/utils"
)

// Subprotocols a client may pick. JSON text frames are the default.
const (
	SubprotocolJSON    = "cp.json"
	SubprotocolMsgpack = "cp.msgpack"

	eventWriteTimeout = 5 * time.Second
)

// Subscriber is the part of *services.ViewHub the events stream needs.
type Subscriber interface {
	Subscribe(sessionID string) (<-chan services.RenderEvent, func())
}

type EventsController struct {
	svc            services.OnboardingService
	hub            Subscriber
	originPatterns []string
}

// NewEventsController accepts upgrades from the given origins (full URLs
// or host patterns) in addition to same-origin requests.
func NewEventsController(svc services.OnboardingService, hub Subscriber, allowedOrigins []string) *EventsController {
	return &EventsController{svc: svc, hub: hub, originPatterns: originPatterns(allowedOrigins)}
}

// GET /api/v1/onboarding/events
//
// Streams every render event of the session. The current view is sent
// first so a fresh subscriber never starts blank.
func (c *EventsController) EventsHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{SubprotocolJSON, SubprotocolMsgpack},
		OriginPatterns: c.originPatterns,
	})
	if err != nil {
		utils.Logger.WithError(err).WithField("session", sid).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.CloseNow()

	events, cancel := c.hub.Subscribe(sid)
	defer cancel()

	// Client frames are ignored; the returned context ends when it goes away.
	ctx := conn.CloseRead(r.Context())

	if _, err := c.svc.View(ctx, sid, nil); err != nil {
		utils.Logger.WithError(err).WithField("session", sid).Error("Failed to load view for event stream")
		conn.Close(websocket.StatusInternalError, "session unavailable")
		return
	}

	binary := conn.Subprotocol() == SubprotocolMsgpack
	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-events:
			if !open {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := writeEvent(ctx, conn, ev, binary); err != nil {
				utils.Logger.WithError(err).WithField("session", sid).Debug("Event stream closed")
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, ev services.RenderEvent, binary bool) error {
	typ, data, err := encodeEvent(ev, binary)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
	defer cancel()
	return conn.Write(ctx, typ, data)
}

// encodeEvent uses the json field names and omitempty options for both
// encodings so clients see one schema.
func encodeEvent(ev services.RenderEvent, binary bool) (websocket.MessageType, []byte, error) {
	if !binary {
		data, err := json.Marshal(ev)
		return websocket.MessageText, data, err
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(ev); err != nil {
		return websocket.MessageBinary, nil, err
	}
	return websocket.MessageBinary, buf.Bytes(), nil
}

// originPatterns reduces allowed origins to the host patterns the
// websocket library matches against.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if _, host, ok := strings.Cut(o, "://"); ok {
			o = host
		}
		out = append(out, strings.TrimSuffix(o, "/"))
	}
	return out
}
