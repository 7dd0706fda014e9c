// Package realtime доставляет события пользователям через websocket.
// Каждый пользователь - отдельная комната, в которой может быть несколько соединений.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID int

	mu       sync.Mutex
	isClosed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		Send:   make(chan []byte, sendBufferSize),
		UserID: userID,
	}
}

type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	SentAt  time.Time   `json:"sent_at"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 256
)

type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	rooms  map[int]map[*Client]bool
	mu     sync.RWMutex
	done   chan struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rooms:      make(map[int]map[*Client]bool),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run обрабатывает регистрацию клиентов до отмены ctx, после чего закрывает все соединения.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.UserID]; !ok {
				h.rooms[client.UserID] = make(map[*Client]bool)
			}
			h.rooms[client.UserID][client] = true
			h.logger.Debug("websocket client registered",
				slog.Int("user_id", client.UserID), slog.Int("connections", len(h.rooms[client.UserID])))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for _, room := range h.rooms {
				for client := range room {
					h.remove(client)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// Attach регистрирует клиента и запускает его горутины чтения и записи.
// Возвращает false, если хаб уже остановлен.
func (h *Hub) Attach(client *Client) bool {
	select {
	case h.Register <- client:
	case <-h.done:
		return false
	}
	go client.WritePump()
	go client.ReadPump()
	return true
}

// remove must be called with h.mu held.
func (h *Hub) remove(client *Client) {
	room, ok := h.rooms[client.UserID]
	if !ok || !room[client] {
		return
	}
	client.closeSend()
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, client.UserID)
	}
	h.logger.Debug("websocket client unregistered", slog.Int("user_id", client.UserID))
}

// Publish отправляет событие всем соединениям пользователя. Медленные клиенты пропускаются.
func (h *Hub) Publish(userID int, eventType string, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[userID]
	if !ok {
		return
	}

	message, err := json.Marshal(Event{Type: eventType, Payload: payload, SentAt: time.Now().UTC()})
	if err != nil {
		h.logger.Error("failed to marshal websocket event", slog.String("type", eventType), slog.Any("error", err))
		return
	}

	for client := range room {
		if !client.trySend(message) {
			h.logger.Warn("websocket send buffer full, event dropped",
				slog.Int("user_id", userID), slog.String("type", eventType))
		}
	}
}

// Connections returns the number of open connections of a user.
func (h *Hub) Connections(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

func (c *Client) trySend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isClosed {
		return true
	}
	select {
	case c.Send <- message:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isClosed {
		close(c.Send)
		c.isClosed = true
	}
}

// ReadPump читает только служебные кадры; входящие сообщения клиента игнорируются.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.Hub.Unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("websocket read error", slog.Int("user_id", c.UserID), slog.Any("error", err))
			}
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Одно событие - один кадр.
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Hub.logger.Debug("websocket write failed", slog.Int("user_id", c.UserID), slog.Any("error", err))
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
