// README: WebSocket push channel; clients join per-conversation rooms and receive newMessage frames.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	EventNewMessage = "newMessage"
	EventJoined     = "joined"
	EventLeft       = "left"
	EventError      = "error"

	ActionJoin  = "join"
	ActionLeave = "leave"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 4096
	sendBufferSize = 32
)

var ErrUnknownAction = errors.New("unknown action")

// ClientFrame is what a browser sends.
type ClientFrame struct {
	Action         string `json:"action"`
	ConversationID string `json:"conversation_id"`
}

// ServerFrame is what the hub pushes.
type ServerFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// Authorize decides whether a connection may join a room.
type Authorize func(ctx context.Context, room string) error

type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*client]struct{}
	upgrader websocket.Upgrader
	log      *zap.Logger
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	// rooms and closed are guarded by hub.mu; send is only written under it.
	rooms  map[string]struct{}
	closed bool
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		rooms: make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log.Named("realtime"),
	}
}

// ServeWS upgrades the request and blocks until the connection closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, authorize Authorize) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, sendBufferSize),
		rooms: make(map[string]struct{}),
	}
	go c.writePump()
	c.readPump(r.Context(), authorize)
	return nil
}

// Emit pushes an event to every client in room and returns how many were reached.
// Slow clients whose buffer is full are disconnected.
func (h *Hub) Emit(room, event string, data any) int {
	payload, err := json.Marshal(ServerFrame{Event: event, Data: data})
	if err != nil {
		h.log.Error("marshal frame", zap.String("event", event), zap.Error(err))
		return 0
	}

	h.mu.RLock()
	var slow []*client
	sent := 0
	for c := range h.rooms[room] {
		select {
		case c.send <- payload:
			sent++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("dropping slow websocket client", zap.String("room", room))
		h.remove(c)
	}
	return sent
}

// RoomSize reports how many connections are subscribed to room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) join(c *client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leave(c *client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *client, room string) {
	delete(c.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// remove unsubscribes c everywhere and stops its writer.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *client) readPump(ctx context.Context, authorize Authorize) {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame ClientFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		if err := c.handle(ctx, frame, authorize); err != nil {
			c.reply(ServerFrame{Event: EventError, Error: err.Error()})
		}
	}
}

func (c *client) handle(ctx context.Context, frame ClientFrame, authorize Authorize) error {
	if frame.ConversationID == "" {
		return errors.New("conversation_id is required")
	}
	switch frame.Action {
	case ActionJoin:
		if authorize != nil {
			if err := authorize(ctx, frame.ConversationID); err != nil {
				return err
			}
		}
		c.hub.join(c, frame.ConversationID)
		c.reply(ServerFrame{Event: EventJoined, Data: map[string]string{"conversation_id": frame.ConversationID}})
	case ActionLeave:
		c.hub.leave(c, frame.ConversationID)
		c.reply(ServerFrame{Event: EventLeft, Data: map[string]string{"conversation_id": frame.ConversationID}})
	default:
		return ErrUnknownAction
	}
	return nil
}

// reply queues a frame for this client only.
func (c *client) reply(f ServerFrame) {
	payload, err := json.Marshal(f)
	if err != nil {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
