package httpd

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/Aidensmirk/online-learning-platform/internal/messaging"
	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/service/integration"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	liveReadLimit     = 4096
	liveDefaultWrite  = 10 * time.Second
	frameSelect       = "select"
	frameMessages     = "messages"
	frameSessionEnded = "session_expired"
)

// liveRequest - кадр клиента: {"type":"select","conversation_id":N}.
type liveRequest struct {
	Type           string `json:"type"`
	ConversationID int64  `json:"conversation_id"`
}

type liveFrame struct {
	Type           string           `json:"type"`
	ConversationID int64            `json:"conversation_id,omitempty"`
	Messages       []models.Message `json:"messages,omitempty"`
}

// liveConn сериализует запись: писать в websocket может только одна горутина за раз.
type liveConn struct {
	conn    *websocket.Conn
	mu      sync.Mutex
	timeout time.Duration
}

func (c *liveConn) send(frame liveFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	return c.conn.WriteJSON(frame)
}

// LiveMessages - канал обновлений выбранного диалога. На соединение один Poller:
// выбор нового диалога останавливает прежний опрос, закрытие соединения останавливает все.
func (h *Handler) LiveMessages(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r).Clone()
	log := zerolog.Ctx(r.Context()).With().Int64("user_id", userIDOf(sess)).Logger()

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer ws.Close()

	timeout := h.opts.SocketTimeout
	if timeout <= 0 {
		timeout = liveDefaultWrite
	}
	conn := &liveConn{conn: ws, timeout: timeout}

	fetch := func(ctx context.Context, conversationID int64) ([]models.Message, error) {
		messages, err := h.services.Messaging.Messages(ctx, sess, conversationID)
		if errors.Is(err, integration.ErrSessionExpired) {
			// закрытие соединения завершит цикл чтения ниже
			conn.send(liveFrame{Type: frameSessionEnded})
			ws.Close()
		}
		return messages, err
	}
	emit := func(conversationID int64, messages []models.Message) {
		if err := conn.send(liveFrame{Type: frameMessages, ConversationID: conversationID, Messages: messages}); err != nil {
			log.Debug().Err(err).Msg("Failed to push messages")
		}
	}

	poller := messaging.NewPoller(h.opts.PollInterval, fetch, emit, messaging.WithLogger(log))
	defer poller.Stop()

	log.Debug().Msg("Live messages connected")

	ws.SetReadLimit(liveReadLimit)
	// снимаем дедлайн чтения, выставленный http.Server до Hijack
	ws.SetReadDeadline(time.Time{})
	for {
		var req liveRequest
		if err := ws.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("Live messages closed unexpectedly")
			}
			break
		}

		if req.Type == frameSelect {
			poller.Select(req.ConversationID)
		}
	}

	log.Debug().Msg("Live messages disconnected")
}
