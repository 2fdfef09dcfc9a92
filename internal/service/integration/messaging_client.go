package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/session"
)

type MessagingClient interface {
	Conversations(ctx context.Context, sess *session.Session) ([]models.Conversation, error)
	Conversation(ctx context.Context, sess *session.Session, id int64) (*models.Conversation, error)
	CreateConversation(ctx context.Context, sess *session.Session, in models.ConversationInput) (*models.Conversation, error)
	AddParticipant(ctx context.Context, sess *session.Session, conversationID, userID int64) error
	RemoveParticipant(ctx context.Context, sess *session.Session, conversationID, userID int64) error

	Messages(ctx context.Context, sess *session.Session, conversationID int64) ([]models.Message, error)
	SendMessage(ctx context.Context, sess *session.Session, in models.MessageInput) (*models.Message, error)
	MarkRead(ctx context.Context, sess *session.Session, messageID int64) error
}

type messagingClient struct {
	t *transport
}

func (c *messagingClient) Conversations(ctx context.Context, sess *session.Session) ([]models.Conversation, error) {
	return listOf[models.Conversation](ctx, c.t, sess, "/conversations/", nil)
}

func (c *messagingClient) Conversation(ctx context.Context, sess *session.Session, id int64) (*models.Conversation, error) {
	var conv models.Conversation
	if err := c.t.do(ctx, sess, newRequest(http.MethodGet, fmt.Sprintf("/conversations/%d/", id)), &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (c *messagingClient) CreateConversation(ctx context.Context, sess *session.Session, in models.ConversationInput) (*models.Conversation, error) {
	r, err := newRequest(http.MethodPost, "/conversations/").withJSON(in)
	if err != nil {
		return nil, err
	}

	var conv models.Conversation
	if err := c.t.do(ctx, sess, r, &conv); err != nil {
		return nil, err
	}

	c.t.logger.Info().Int64("conversation_id", conv.ID).Int64("course_id", in.CourseID).Msg("Conversation created")
	return &conv, nil
}

func (c *messagingClient) participant(ctx context.Context, sess *session.Session, action string, conversationID, userID int64) error {
	r, err := newRequest(http.MethodPost, fmt.Sprintf("/conversations/%d/%s/", conversationID, action)).
		withJSON(map[string]int64{"user_id": userID})
	if err != nil {
		return err
	}
	return c.t.do(ctx, sess, r, nil)
}

func (c *messagingClient) AddParticipant(ctx context.Context, sess *session.Session, conversationID, userID int64) error {
	return c.participant(ctx, sess, "add_participant", conversationID, userID)
}

func (c *messagingClient) RemoveParticipant(ctx context.Context, sess *session.Session, conversationID, userID int64) error {
	return c.participant(ctx, sess, "remove_participant", conversationID, userID)
}

func (c *messagingClient) Messages(ctx context.Context, sess *session.Session, conversationID int64) ([]models.Message, error) {
	q := url.Values{}
	q.Set("conversation", strconv.FormatInt(conversationID, 10))
	return listOf[models.Message](ctx, c.t, sess, "/messages/", q)
}

func (c *messagingClient) SendMessage(ctx context.Context, sess *session.Session, in models.MessageInput) (*models.Message, error) {
	var (
		r   *apiRequest
		err error
	)

	// с вложением - multipart, иначе обычный JSON
	if in.Attachment != nil {
		r, err = newRequest(http.MethodPost, "/messages/").withMultipart([]formField{
			{Name: "conversation", Value: strconv.FormatInt(in.Conversation, 10)},
			{Name: "body", Value: in.Body},
			{Name: "attachment", File: in.Attachment},
		})
	} else {
		r, err = newRequest(http.MethodPost, "/messages/").withJSON(map[string]interface{}{
			"conversation": in.Conversation,
			"body":         in.Body,
		})
	}
	if err != nil {
		return nil, err
	}

	var msg models.Message
	if err := c.t.do(ctx, sess, r, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *messagingClient) MarkRead(ctx context.Context, sess *session.Session, messageID int64) error {
	return c.t.do(ctx, sess, newRequest(http.MethodPost, fmt.Sprintf("/messages/%d/mark_read/", messageID)), nil)
}
