package ws

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 256
)

// ToolEvent is pushed to dashboards whenever a tool changes status.
type ToolEvent struct {
	Type         string    `json:"type"`
	ToolID       string    `json:"tool_id"`
	ToolName     string    `json:"tool_name"`
	Workshop     string    `json:"workshop"`
	Status       string    `json:"status"`
	AssignmentID string    `json:"assignment_id,omitempty"`
	StudentID    string    `json:"student_id,omitempty"`
	At           time.Time `json:"at"`
}

type toolMessage struct {
	workshop string
	payload  []byte
}

// ToolHub fans tool events out to websocket clients. Each client only
// receives events for the workshops it may see.
type ToolHub struct {
	register   chan *toolClient
	unregister chan *toolClient
	broadcast  chan toolMessage
	clients    map[*toolClient]struct{}
}

func NewToolHub() *ToolHub {
	return &ToolHub{
		register:   make(chan *toolClient),
		unregister: make(chan *toolClient),
		broadcast:  make(chan toolMessage, 256),
		clients:    make(map[*toolClient]struct{}),
	}
}

func (h *ToolHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				client.conn.Close()
			}
		case msg := <-h.broadcast:
			for client := range h.clients {
				if !client.allows(msg.workshop) {
					continue
				}
				select {
				case client.send <- msg.payload:
				default:
					delete(h.clients, client)
					close(client.send)
					client.conn.Close()
				}
			}
		}
	}
}

// Broadcast queues event for every client scoped to its workshop. It never
// blocks the caller; events are dropped when the queue is full.
func (h *ToolHub) Broadcast(event ToolEvent) {
	if h == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws: failed to marshal tool event: %v", err)
		return
	}
	select {
	case h.broadcast <- toolMessage{workshop: event.Workshop, payload: data}:
	default:
		log.Printf("ws: tool event queue full, dropping %s for %s", event.Type, event.ToolID)
	}
}

type toolClient struct {
	hub       *ToolHub
	conn      *websocket.Conn
	send      chan []byte
	workshops map[string]struct{}
	allowAll  bool
}

func newToolClient(hub *ToolHub, conn *websocket.Conn, workshops []string, allowAll bool) *toolClient {
	allowed := make(map[string]struct{}, len(workshops))
	for _, w := range workshops {
		allowed[w] = struct{}{}
	}
	return &toolClient{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		workshops: allowed,
		allowAll:  allowAll,
	}
}

func (c *toolClient) allows(workshop string) bool {
	if c.allowAll {
		return true
	}
	_, ok := c.workshops[workshop]
	return ok
}

func (c *toolClient) readPump() {
	defer func() {
		c.hub.unregister <- c
	}()
	readUntilClosed(c.conn)
}

func (c *toolClient) writePump() {
	writeUntilClosed(c.conn, c.send)
}

func readUntilClosed(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func writeUntilClosed(conn *websocket.Conn, send <-chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case msg, ok := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
