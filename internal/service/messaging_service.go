package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/service/integration"
	"github.com/Aidensmirk/online-learning-platform/internal/session"
	"github.com/rs/zerolog"
)

const markReadTimeout = 10 * time.Second

type MessagingService interface {
	Conversations(ctx context.Context, sess *session.Session) ([]models.Conversation, error)
	Conversation(ctx context.Context, sess *session.Session, conversationID int64) (*models.Conversation, error)
	Messages(ctx context.Context, sess *session.Session, conversationID int64) ([]models.Message, error)
	Send(ctx context.Context, sess *session.Session, in models.MessageInput) (*models.Message, error)
	CreateConversation(ctx context.Context, sess *session.Session, in models.ConversationInput) (*models.Conversation, error)
	AddParticipant(ctx context.Context, sess *session.Session, conversationID, userID int64) error
	RemoveParticipant(ctx context.Context, sess *session.Session, conversationID, userID int64) error
	CourseOptions(ctx context.Context, sess *session.Session) ([]models.Course, error)
}

type messagingService struct {
	client   integration.MessagingClient
	courses  integration.CourseClient
	runner   TaskRunner
	activity ActivityRecorder
	logger   zerolog.Logger
}

func NewMessagingService(
	client integration.MessagingClient,
	courses integration.CourseClient,
	runner TaskRunner,
	activity ActivityRecorder,
	logger zerolog.Logger,
) MessagingService {
	return &messagingService{
		client:   client,
		courses:  courses,
		runner:   runner,
		activity: activity,
		logger:   logger,
	}
}

func (s *messagingService) Conversations(ctx context.Context, sess *session.Session) ([]models.Conversation, error) {
	return s.client.Conversations(ctx, sess)
}

func (s *messagingService) Conversation(ctx context.Context, sess *session.Session, conversationID int64) (*models.Conversation, error) {
	return s.client.Conversation(ctx, sess, conversationID)
}

// Messages после чтения списка помечает входящие прочитанными в фоне; ошибки отметки не важны.
func (s *messagingService) Messages(ctx context.Context, sess *session.Session, conversationID int64) ([]models.Message, error) {
	messages, err := s.client.Messages(ctx, sess, conversationID)
	if err != nil {
		return nil, err
	}

	for i := range messages {
		if !messages[i].NeedsReadMark(sess.User) {
			continue
		}
		s.markRead(sess, messages[i].ID)
	}
	return messages, nil
}

func (s *messagingService) markRead(sess *session.Session, messageID int64) {
	// у каждой задачи своя копия: транспорт может обновить токен в сессии
	own := sess.Clone()
	err := s.runner.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), markReadTimeout)
		defer cancel()

		if err := s.client.MarkRead(ctx, own, messageID); err != nil {
			s.logger.Debug().Err(err).Int64("message_id", messageID).Msg("Failed to mark message read")
		}
	})
	if err != nil {
		s.logger.Debug().Err(err).Int64("message_id", messageID).Msg("Mark read skipped")
	}
}

func (s *messagingService) Send(ctx context.Context, sess *session.Session, in models.MessageInput) (*models.Message, error) {
	in.Body = strings.TrimSpace(in.Body)
	if in.Conversation <= 0 {
		return nil, ErrNotFound
	}
	if in.Body == "" && in.Attachment == nil {
		return nil, models.NewValidationError("", models.FieldError{Field: "body", Message: "Write a message or attach a file."})
	}

	msg, err := s.client.SendMessage(ctx, sess, in)
	if err != nil {
		return nil, err
	}

	s.activity.Record(models.ActivityMessageSent, userID(sess.User), 0, in.Conversation)
	return msg, nil
}

// CreateConversation: курс обязателен, заголовок по умолчанию "<курс> Discussion",
// приглашение студентов курса доступно только преподавателю и админу.
func (s *messagingService) CreateConversation(ctx context.Context, sess *session.Session, in models.ConversationInput) (*models.Conversation, error) {
	if in.CourseID <= 0 {
		return nil, models.NewValidationError("", models.FieldError{Field: "course_id", Message: "Please select a course to start a conversation."})
	}

	options, err := s.CourseOptions(ctx, sess)
	if err != nil {
		return nil, err
	}
	var course *models.Course
	for i := range options {
		if options[i].ID == in.CourseID {
			course = &options[i]
			break
		}
	}
	if course == nil {
		return nil, models.NewValidationError("", models.FieldError{Field: "course_id", Message: "You cannot start a conversation for this course."})
	}

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		in.Title = course.Title + " Discussion"
	}
	if !sess.User.CanTeach() {
		in.IncludeCourseStudents = false
	}

	conv, err := s.client.CreateConversation(ctx, sess, in)
	if err != nil {
		return nil, err
	}

	if body := strings.TrimSpace(in.InitialMessage); body != "" {
		if _, err := s.Send(ctx, sess, models.MessageInput{Conversation: conv.ID, Body: body}); err != nil {
			return conv, fmt.Errorf("conversation created but the first message failed: %w", err)
		}
	}

	s.logger.Info().Int64("conversation_id", conv.ID).Int64("course_id", in.CourseID).Msg("Conversation created")
	return conv, nil
}

func (s *messagingService) AddParticipant(ctx context.Context, sess *session.Session, conversationID, userID int64) error {
	if userID <= 0 {
		return models.NewValidationError("", models.FieldError{Field: "user_id", Message: "Enter a user id."})
	}
	return s.client.AddParticipant(ctx, sess, conversationID, userID)
}

func (s *messagingService) RemoveParticipant(ctx context.Context, sess *session.Session, conversationID, userID int64) error {
	if userID <= 0 {
		return models.NewValidationError("", models.FieldError{Field: "user_id", Message: "Enter a user id."})
	}
	return s.client.RemoveParticipant(ctx, sess, conversationID, userID)
}

// CourseOptions: студенту - курсы, на которые он записан; преподавателю - свои; админу - все.
func (s *messagingService) CourseOptions(ctx context.Context, sess *session.Session) ([]models.Course, error) {
	if sess.User.CanTeach() {
		all, err := s.courses.List(ctx, sess, models.CourseFilter{})
		if err != nil {
			return nil, err
		}
		out := make([]models.Course, 0, len(all))
		for _, c := range all {
			if c.OwnedBy(sess.User) {
				out = append(out, c)
			}
		}
		return out, nil
	}

	enrollments, err := s.courses.Enrollments(ctx, sess)
	if err != nil {
		return nil, err
	}
	out := make([]models.Course, 0, len(enrollments))
	for _, e := range enrollments {
		if e.Course != nil {
			out = append(out, *e.Course)
		}
	}
	return out, nil
}
