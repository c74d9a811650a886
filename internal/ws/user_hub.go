package ws

import (
	"encoding/json"
	"log"

	"github.com/gorilla/websocket"
)

// UserMessage is sent to a single user, e.g. when a tool is checked out to
// them or returned on their behalf.
type UserMessage struct {
	Type         string `json:"type"`
	ToolID       string `json:"tool_id,omitempty"`
	AssignmentID string `json:"assignment_id,omitempty"`
	Message      string `json:"message,omitempty"`
}

type userNotification struct {
	badgeID string
	payload []byte
}

// UserHub keeps at most one connection per badge id.
type UserHub struct {
	register   chan *userClient
	unregister chan *userClient
	notify     chan userNotification
	clients    map[string]*userClient
}

func NewUserHub() *UserHub {
	return &UserHub{
		register:   make(chan *userClient),
		unregister: make(chan *userClient),
		notify:     make(chan userNotification, 256),
		clients:    make(map[string]*userClient),
	}
}

func (h *UserHub) Run() {
	for {
		select {
		case client := <-h.register:
			if existing, ok := h.clients[client.badgeID]; ok {
				existing.conn.Close()
			}
			h.clients[client.badgeID] = client
		case client := <-h.unregister:
			if stored, ok := h.clients[client.badgeID]; ok && stored == client {
				delete(h.clients, client.badgeID)
			}
		case msg := <-h.notify:
			if client, ok := h.clients[msg.badgeID]; ok {
				select {
				case client.send <- msg.payload:
				default:
					client.conn.Close()
					delete(h.clients, msg.badgeID)
				}
			}
		}
	}
}

func (h *UserHub) Notify(badgeID string, message UserMessage) {
	if h == nil || badgeID == "" {
		return
	}
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	select {
	case h.notify <- userNotification{badgeID: badgeID, payload: data}:
	default:
		log.Printf("ws: user notification queue full, dropping %s for %s", message.Type, badgeID)
	}
}

type userClient struct {
	hub     *UserHub
	conn    *websocket.Conn
	send    chan []byte
	badgeID string
}

func newUserClient(hub *UserHub, conn *websocket.Conn, badgeID string) *userClient {
	return &userClient{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 64),
		badgeID: badgeID,
	}
}

func (c *userClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	readUntilClosed(c.conn)
}

func (c *userClient) writePump() {
	writeUntilClosed(c.conn, c.send)
}
