package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"feedback-hub/backend/internal/models"
	"feedback-hub/backend/internal/service"
	apperrors "feedback-hub/backend/pkg/errors"
	"feedback-hub/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024

	// Upper bound on a single answer, including the model call
	answerTimeout = 45 * time.Second

	// Turns kept in a session; older ones are dropped from the prompt
	maxHistoryTurns = 20
)

// Message types exchanged over the socket.
const (
	TypeChat    = "chat"
	TypeTyping  = "typing"
	TypeHistory = "history"
	TypeReset   = "reset"
	TypePing    = "ping"
	TypePong    = "pong"
	TypeError   = "error"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
}

// ChatService answers a question in the context of earlier turns.
type ChatService interface {
	AskWithHistory(ctx context.Context, history []models.ChatTurn, question string) (string, error)
}

var _ ChatService = (*service.ChatAdapter)(nil)

// Message is the envelope for every frame in both directions. Inbound chat
// frames carry the question as a JSON string in Content.
type Message struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content,omitempty"`
}

// Client is one websocket chat session. Its history lives only here.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
	Hub  *Hub

	log       *logger.Logger
	historyMu sync.Mutex
	history   []models.ChatTurn
}

// ReadPump handles inbound frames one at a time so turns stay ordered.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("chat connection closed unexpectedly", "error", err.Error())
			}
			return
		}

		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			c.sendError(apperrors.CodeInvalidRequest, "frame must be a JSON object")
			continue
		}

		c.handleMessage(message)
	}
}

func (c *Client) handleMessage(message Message) {
	switch message.Type {
	case TypeChat:
		c.handleChat(message)
	case TypeHistory:
		c.sendMessage(TypeHistory, c.History())
	case TypeReset:
		c.historyMu.Lock()
		c.history = nil
		c.historyMu.Unlock()
		c.sendMessage(TypeReset, nil)
	case TypePing:
		c.sendMessage(TypePong, nil)
	default:
		c.sendError(apperrors.CodeInvalidRequest, "unknown message type: "+message.Type)
	}
}

func (c *Client) handleChat(message Message) {
	var question string
	if len(message.Content) > 0 {
		if err := json.Unmarshal(message.Content, &question); err != nil {
			c.sendError(apperrors.CodeInvalidRequest, "chat content must be a string")
			return
		}
	}

	c.sendMessage(TypeTyping, nil)

	ctx, cancel := context.WithTimeout(context.Background(), answerTimeout)
	defer cancel()

	answer, err := c.Hub.chat.AskWithHistory(logger.NewContext(ctx, c.log), c.History(), question)
	if err != nil {
		var invalid *service.InvalidInputError
		if errors.As(err, &invalid) {
			c.sendError(apperrors.CodeInvalidInput, invalid.Reason)
			return
		}
		c.log.LogError(err, "chat failed")
		c.sendError(apperrors.CodeInternal, "An unexpected error occurred")
		return
	}

	reply := models.ChatTurn{Role: models.ChatRoleAssistant, Content: answer}
	c.historyMu.Lock()
	c.history = append(c.history,
		models.ChatTurn{Role: models.ChatRoleUser, Content: question},
		reply,
	)
	if extra := len(c.history) - maxHistoryTurns; extra > 0 {
		c.history = append([]models.ChatTurn(nil), c.history[extra:]...)
	}
	c.historyMu.Unlock()

	c.sendMessage(TypeChat, reply)
}

// History returns a copy of the session's turns.
func (c *Client) History() []models.ChatTurn {
	c.historyMu.Lock()
	defer c.historyMu.Unlock()
	out := make([]models.ChatTurn, len(c.history))
	copy(out, c.history)
	return out
}

func (c *Client) sendMessage(messageType string, content any) {
	message := Message{Type: messageType}
	if content != nil {
		raw, err := json.Marshal(content)
		if err != nil {
			c.log.LogError(err, "failed to marshal chat frame", "type", messageType)
			return
		}
		message.Content = raw
	}

	data, err := json.Marshal(message)
	if err != nil {
		c.log.LogError(err, "failed to marshal chat frame", "type", messageType)
		return
	}

	select {
	case c.Send <- data:
	default:
		c.log.Warn("chat send buffer full, dropping frame", "type", messageType)
	}
}

func (c *Client) sendError(code, text string) {
	c.sendMessage(TypeError, gin.H{"code": code, "message": text})
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
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.Hub.done:
			return
		}
	}
}

// ServeWs upgrades the request and starts a chat session. clientId is
// optional and only used for logging.
func ServeWs(hub *Hub, c *gin.Context) {
	clientID := c.Query("clientId")
	if clientID == "" {
		clientID = uuid.New().String()
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.Warn("websocket upgrade failed", "error", err.Error())
		return
	}

	client := &Client{
		ID:   clientID,
		Conn: conn,
		Send: make(chan []byte, 64),
		Hub:  hub,
		log:  hub.log.With("client_id", clientID),
	}

	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	}
	client.log.Info("chat session opened")

	go client.WritePump()
	go client.ReadPump()
}
