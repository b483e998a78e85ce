package web

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vitos/riskbox/internal/domain"
	"github.com/vitos/riskbox/internal/usecase"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsInbound is one message from the chart client. Type selects which fields
// are meaningful.
type wsInbound struct {
	Type string `json:"type"` // "pointer", "tick", "viewport", "confirm"

	// pointer
	Kind   string  `json:"kind,omitempty"` // "down", "move", "up"
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Button string  `json:"button,omitempty"` // "primary", "secondary"
	Ctrl   bool    `json:"ctrl,omitempty"`

	// tick (development replay when the live feed is off)
	Price float64 `json:"price,omitempty"`

	// viewport
	Top    float64 `json:"top,omitempty"`
	Bottom float64 `json:"bottom,omitempty"`
	Height float64 `json:"height,omitempty"`

	// confirm reply
	ID       int  `json:"id,omitempty"`
	Approved bool `json:"approved,omitempty"`
}

// wsOutbound is one frame to the client: a state snapshot or a confirmation
// prompt awaiting the user's decision.
type wsOutbound struct {
	Type     string                 `json:"type"` // "snapshot", "confirm"
	Snapshot *usecase.Snapshot      `json:"snapshot,omitempty"`
	Prompt   *usecase.ConfirmPrompt `json:"prompt,omitempty"`
}

// handleWS streams pointer events in and snapshots out over one connection.
// Confirmation prompts ride the same connection; the client answers with a
// confirm message carrying the prompt id.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Slow clients skip intermediate snapshots rather than stall the tool.
	send := make(chan wsOutbound, 8)
	stop := make(chan struct{})
	defer close(stop)

	unsubscribe := s.service.OnUpdate(func(snap usecase.Snapshot) {
		select {
		case send <- wsOutbound{Type: "snapshot", Snapshot: &snap}:
		default:
		}
	})
	defer unsubscribe()

	if s.confirm != nil {
		unsubPrompt := s.confirm.OnPrompt(func(p usecase.ConfirmPrompt) {
			select {
			case send <- wsOutbound{Type: "confirm", Prompt: &p}:
			default:
				// A wedged client cannot approve anyway; the bridge
				// times the prompt out.
			}
		})
		defer unsubPrompt()
	}

	go func() {
		for {
			select {
			case out := <-send:
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-stop:
				return
			}
		}
	}()

	// Send the current state up front so the client renders immediately.
	// This goes out after the subscriptions above, so a client that has
	// seen it is guaranteed to receive prompts.
	snap := s.service.Snapshot()
	send <- wsOutbound{Type: "snapshot", Snapshot: &snap}

	for {
		var msg wsInbound
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("ws read error", zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case "pointer":
			ev, ok := pointerEvent(msg)
			if !ok {
				continue
			}
			s.service.ProcessPointer(ev)
		case "tick":
			if msg.Price > 0 && s.ticks != nil {
				s.ticks(msg.Price)
			}
		case "viewport":
			if msg.Height > 0 && msg.Top > msg.Bottom {
				s.service.SetScale(domain.LinearScale{
					PriceTop:    msg.Top,
					PriceBottom: msg.Bottom,
					Height:      msg.Height,
				})
			}
		case "confirm":
			if s.confirm != nil {
				s.confirm.Resolve(msg.ID, msg.Approved)
			}
		}
	}
}

func pointerEvent(msg wsInbound) (domain.PointerEvent, bool) {
	ev := domain.PointerEvent{X: msg.X, Y: msg.Y, Ctrl: msg.Ctrl}

	switch msg.Kind {
	case "down":
		ev.Kind = domain.PointerDown
	case "move":
		ev.Kind = domain.PointerMove
	case "up":
		ev.Kind = domain.PointerUp
	default:
		return ev, false
	}

	switch msg.Button {
	case "secondary":
		ev.Button = domain.ButtonSecondary
	default:
		ev.Button = domain.ButtonPrimary
	}
	return ev, true
}
