// Package surface bridges the engine to connected scan surfaces over
// WebSocket. A surface owns the page: it discovers candidate cards, renders
// decisions, and fires UI actions on request. The hub presents whichever
// surface is connected as one collaborator to the engine.
package surface

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/prostak402/csmrashireniye/internal/domain"
	"github.com/prostak402/csmrashireniye/internal/infra"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum size of an incoming message.
	maxMessageSize = 1 << 20

	// sendBufferSize is the channel buffer for outgoing messages per session.
	sendBufferSize = 256

	// requestTimeout bounds a request/response round trip to a surface.
	requestTimeout = 5 * time.Second
)

// upgrader configures the WebSocket upgrade parameters.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Surfaces connect from the scraped page's origin.
		return true
	},
}

// frame is the wire envelope in both directions.
type frame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Op      string          `json:"op,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Commands are the inbound surface-initiated operations routed to the engine.
// Nil callbacks ignore the corresponding command. OnCompareBatch is how a
// surface asks for decisions on its own schedule, e.g. after the user scrolled
// new cards into view with auto-scan off.
type Commands struct {
	OnToggleAuto     func()
	OnForceRefresh   func()
	OnCompareBatch   func()
	OnUpdateSettings func(partial map[string]string)
}

// Hub manages connected surface sessions and implements the collaborator
// interface the engine consumes. Requests go to the most recently connected
// session; broadcasts go to all.
type Hub struct {
	logger   *slog.Logger
	commands Commands

	mu       sync.RWMutex
	sessions []*session
	pending  map[string]chan json.RawMessage
}

var _ domain.Surface = (*Hub)(nil)

// NewHub creates a surface hub.
func NewHub(logger *slog.Logger, commands Commands) *Hub {
	return &Hub{
		logger:   logger.With(slog.String("component", "surface-hub")),
		commands: commands,
		pending:  make(map[string]chan json.RawMessage),
	}
}

// session is one connected scan surface. done is closed exactly once on
// removal; send is never closed so concurrent enqueues stay safe.
type session struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// HandleWS upgrades an HTTP request to a WebSocket connection and registers
// the surface session.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("upgrade failed", slog.String("error", err.Error()))
		return
	}

	s := &session{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.sessions = append(h.sessions, s)
	total := len(h.sessions)
	h.mu.Unlock()

	infra.GlobalMetrics.IncrementSurfaces()
	h.logger.Info("surface connected", slog.Int("total", total))

	go s.writePump()
	go s.readPump()
}

// SessionCount returns the number of connected surfaces.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) removeSession(s *session) {
	h.mu.Lock()
	for i, cur := range h.sessions {
		if cur == s {
			h.sessions = append(h.sessions[:i], h.sessions[i+1:]...)
			close(s.done)
			break
		}
	}
	total := len(h.sessions)
	h.mu.Unlock()

	infra.GlobalMetrics.DecrementSurfaces()
	h.logger.Info("surface disconnected", slog.Int("total", total))
}

// primary returns the most recently connected session, or nil.
func (h *Hub) primary() *session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.sessions) == 0 {
		return nil
	}
	return h.sessions[len(h.sessions)-1]
}

// request performs a correlated round trip against the primary session.
func (h *Hub) request(ctx context.Context, op string, payload any) (json.RawMessage, error) {
	s := h.primary()
	if s == nil {
		return nil, domain.ErrNoSurface
	}

	id := uuid.NewString()
	reply := make(chan json.RawMessage, 1)
	h.mu.Lock()
	h.pending[id] = reply
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.pending, id)
		h.mu.Unlock()
	}()

	if err := s.enqueue(frame{Type: "request", ID: id, Op: op}, payload); err != nil {
		return nil, err
	}

	timer := time.NewTimer(requestTimeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, domain.ErrSurfaceTimeout
	case raw := <-reply:
		return raw, nil
	}
}

// push sends a fire-and-forget frame to the primary session.
func (h *Hub) push(op string, payload any) error {
	s := h.primary()
	if s == nil {
		return domain.ErrNoSurface
	}
	return s.enqueue(frame{Type: "event", Op: op}, payload)
}

// broadcastAll sends a frame to every connected session.
func (h *Hub) broadcastAll(op string, payload any) {
	h.mu.RLock()
	sessions := make([]*session, len(h.sessions))
	copy(sessions, h.sessions)
	h.mu.RUnlock()

	for _, s := range sessions {
		if err := s.enqueue(frame{Type: "event", Op: op}, payload); err != nil {
			h.logger.Warn("broadcast failed", slog.String("op", op))
		}
	}
}

func (s *session) enqueue(f frame, payload any) error {
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		f.Payload = raw
	}
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	select {
	case <-s.done:
		return domain.ErrNoSurface
	case s.send <- data:
		return nil
	default:
		// Send buffer full: the surface is stalled, treat as gone.
		return domain.ErrSurfaceTimeout
	}
}

// ListCandidates asks the surface for up to limit unseen candidate cards.
func (h *Hub) ListCandidates(ctx context.Context, limit int) ([]domain.CandidateItem, error) {
	raw, err := h.request(ctx, "list_candidates", map[string]int{"limit": limit})
	if err != nil {
		return nil, err
	}
	var items []domain.CandidateItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// renderPayload is the wire form of one rendered decision.
type renderPayload struct {
	CardID   string                 `json:"card_id"`
	Failed   bool                   `json:"failed"`
	Decision *domain.DecisionRecord `json:"decision,omitempty"`
	Color    string                 `json:"color,omitempty"`
}

// RenderDecision displays a decision on the surface. Best-effort.
func (h *Hub) RenderDecision(ctx context.Context, cardID string, d *domain.DecisionRecord, failed bool) {
	p := renderPayload{CardID: cardID, Failed: failed, Decision: d}
	if d != nil {
		p.Color = d.Tier.Color()
	}
	if err := h.push("render_decision", p); err != nil {
		h.logger.Debug("render dropped", slog.String("card", cardID))
	}
}

// triggerReply is the wire form of a trigger acknowledgement.
type triggerReply struct {
	Found bool `json:"found"`
}

// TriggerCard fires a named UI action on a specific card.
func (h *Hub) TriggerCard(ctx context.Context, cardID, action string) bool {
	raw, err := h.request(ctx, "trigger", map[string]string{
		"card_id": cardID,
		"action":  action,
	})
	if err != nil {
		h.logger.Warn("card trigger failed",
			slog.String("card", cardID),
			slog.String("action", action),
			slog.Any("error", err))
		return false
	}
	var rep triggerReply
	if err := json.Unmarshal(raw, &rep); err != nil {
		return false
	}
	return rep.Found
}

// Trigger fires a named page-level UI action.
func (h *Hub) Trigger(ctx context.Context, action string) bool {
	raw, err := h.request(ctx, "trigger", map[string]string{"action": action})
	if err != nil {
		h.logger.Warn("trigger failed",
			slog.String("action", action),
			slog.Any("error", err))
		return false
	}
	var rep triggerReply
	if err := json.Unmarshal(raw, &rep); err != nil {
		return false
	}
	return rep.Found
}

// RecompareAll tells every connected surface to re-evaluate against the cache
// refreshed at ts.
func (h *Hub) RecompareAll(ts time.Time) {
	h.broadcastAll("recompare_all", map[string]int64{"ts": ts.UnixMilli()})
}

// Focus raises the surface's window.
func (h *Hub) Focus(ctx context.Context) {
	if err := h.push("focus", nil); err != nil {
		h.logger.Debug("focus dropped")
	}
}

// readPump consumes inbound frames: responses to pending requests and
// surface-initiated commands.
func (s *session) readPump() {
	defer func() {
		s.hub.removeSession(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.hub.logger.Warn("unexpected close error", slog.String("error", err.Error()))
			}
			return
		}

		var f frame
		if err := json.Unmarshal(message, &f); err != nil {
			s.hub.logger.Warn("malformed frame dropped")
			continue
		}

		switch f.Type {
		case "response":
			s.hub.resolvePending(f.ID, f.Payload)
		case "command":
			s.hub.handleCommand(f)
		default:
			s.hub.logger.Debug("unknown frame type", slog.String("type", f.Type))
		}
	}
}

func (h *Hub) resolvePending(id string, payload json.RawMessage) {
	h.mu.Lock()
	reply, ok := h.pending[id]
	if ok {
		delete(h.pending, id)
	}
	h.mu.Unlock()
	if !ok {
		// Late response after timeout, nothing to do
		return
	}
	reply <- payload
}

func (h *Hub) handleCommand(f frame) {
	switch f.Op {
	case "toggle_auto":
		if h.commands.OnToggleAuto != nil {
			h.commands.OnToggleAuto()
		}
	case "refresh_prices":
		if h.commands.OnForceRefresh != nil {
			h.commands.OnForceRefresh()
		}
	case "compare_batch":
		if h.commands.OnCompareBatch != nil {
			h.commands.OnCompareBatch()
		}
	case "update_settings":
		if h.commands.OnUpdateSettings == nil {
			return
		}
		var partial map[string]string
		if err := json.Unmarshal(f.Payload, &partial); err != nil {
			h.logger.Warn("malformed settings update dropped")
			return
		}
		h.commands.OnUpdateSettings(partial)
	default:
		h.logger.Debug("unknown command", slog.String("op", f.Op))
	}
}

// writePump pumps queued frames to the connection and keeps it alive with
// periodic pings.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
