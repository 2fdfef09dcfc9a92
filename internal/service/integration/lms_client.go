package integration

import (
	"context"
	"net/http"

	"github.com/Aidensmirk/online-learning-platform/internal/session"
	"github.com/rs/zerolog"
)

// LMSClient собирает клиентов всех групп ресурсов поверх одного транспорта.
type LMSClient struct {
	Auth        AuthClient
	Courses     CourseClient
	Content     ContentClient
	Submissions SubmissionClient
	Messaging   MessagingClient
	Analytics   AnalyticsClient

	t *transport
}

func NewLMSClient(cfg ClientConfig, store session.Store, logger zerolog.Logger) *LMSClient {
	t := newTransport(cfg, store, logger.With().Str("component", "lms_client").Logger())

	return &LMSClient{
		Auth:        &authClient{t: t},
		Courses:     &courseClient{t: t},
		Content:     &contentClient{t: t},
		Submissions: &submissionClient{t: t},
		Messaging:   &messagingClient{t: t},
		Analytics:   &analyticsClient{t: t},
		t:           t,
	}
}

// Ping проверяет, что API отвечает (для /ready). Любой ответ, кроме 5xx, считается живым.
func (c *LMSClient) Ping(ctx context.Context) error {
	status, body, err := c.t.send(ctx, nil, newRequest(http.MethodGet, "/courses/"))
	if err != nil {
		return err
	}
	if status >= http.StatusInternalServerError {
		return newAPIError(status, body)
	}
	return nil
}
