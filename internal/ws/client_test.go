package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback-hub/backend/internal/models"
	"feedback-hub/backend/internal/service"
	"feedback-hub/backend/pkg/logger"
)

type recordingChat struct {
	mu        sync.Mutex
	histories [][]models.ChatTurn
}

func (r *recordingChat) AskWithHistory(_ context.Context, history []models.ChatTurn, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", &service.InvalidInputError{Reason: "message required"}
	}
	r.mu.Lock()
	r.histories = append(r.histories, history)
	r.mu.Unlock()
	return "answer to " + question, nil
}

func dialChat(t *testing.T, chat ChatService) (*websocket.Conn, *Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(chat, logger.Nop())
	go hub.Run(ctx)

	engine := gin.New()
	engine.GET("/ws/chat", func(c *gin.Context) { ServeWs(hub, c) })
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/chat?clientId=test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, hub
}

func send(t *testing.T, conn *websocket.Conn, typ string, content any) {
	t.Helper()
	msg := Message{Type: typ}
	if content != nil {
		raw, err := json.Marshal(content)
		require.NoError(t, err)
		msg.Content = raw
	}
	require.NoError(t, conn.WriteJSON(msg))
}

// readUntil skips typing frames and returns the next frame of another type.
func readUntil(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type != TypeTyping {
			return msg
		}
	}
}

func TestChatSessionKeepsHistory(t *testing.T) {
	chat := &recordingChat{}
	conn, hub := dialChat(t, chat)

	send(t, conn, TypeChat, "is Argo down?")
	reply := readUntil(t, conn)
	require.Equal(t, TypeChat, reply.Type)

	var turn models.ChatTurn
	require.NoError(t, json.Unmarshal(reply.Content, &turn))
	assert.Equal(t, models.ChatTurn{Role: models.ChatRoleAssistant, Content: "answer to is Argo down?"}, turn)

	send(t, conn, TypeChat, "since when?")
	reply = readUntil(t, conn)
	require.Equal(t, TypeChat, reply.Type)

	chat.mu.Lock()
	require.Len(t, chat.histories, 2)
	assert.Empty(t, chat.histories[0])
	assert.Equal(t, []models.ChatTurn{
		{Role: models.ChatRoleUser, Content: "is Argo down?"},
		{Role: models.ChatRoleAssistant, Content: "answer to is Argo down?"},
	}, chat.histories[1])
	chat.mu.Unlock()

	assert.Equal(t, 1, hub.ActiveConnections())
}

func TestChatSessionBlankQuestion(t *testing.T) {
	conn, _ := dialChat(t, &recordingChat{})

	send(t, conn, TypeChat, "  ")
	reply := readUntil(t, conn)
	require.Equal(t, TypeError, reply.Type)

	var body map[string]string
	require.NoError(t, json.Unmarshal(reply.Content, &body))
	assert.Equal(t, "INVALID_INPUT", body["code"])
}

func TestChatSessionResetAndPing(t *testing.T) {
	chat := &recordingChat{}
	conn, _ := dialChat(t, chat)

	send(t, conn, TypeChat, "first")
	readUntil(t, conn)

	send(t, conn, TypeReset, nil)
	assert.Equal(t, TypeReset, readUntil(t, conn).Type)

	send(t, conn, TypeHistory, nil)
	history := readUntil(t, conn)
	require.Equal(t, TypeHistory, history.Type)
	assert.Equal(t, "[]", string(history.Content))

	send(t, conn, TypePing, nil)
	assert.Equal(t, TypePong, readUntil(t, conn).Type)
}
