package httpd

import (
	"fmt"
	"net/http"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/workspace"
	"github.com/rs/zerolog"
)

type messagesPage struct {
	Conversations []models.Conversation
	Courses       []models.Course
	Selected      *models.Conversation
	Messages      []models.Message
	PollSeconds   int
}

func conversationURL(conversationID int64) string {
	return fmt.Sprintf("/messages/%d", conversationID)
}

// messagesPage собирает список диалогов и, если задан id, сам диалог с сообщениями.
func (h *Handler) messagesPage(w http.ResponseWriter, r *http.Request, conversationID int64) {
	sess := currentSession(r)

	conversations, err := h.services.Messaging.Conversations(r.Context(), sess)
	if err != nil {
		h.handleReadError(w, r, err, "/")
		return
	}

	data := messagesPage{
		Conversations: conversations,
		PollSeconds:   int(h.opts.PollInterval.Seconds()),
	}

	courses, err := h.services.Messaging.CourseOptions(r.Context(), sess)
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Failed to load conversation courses")
	}
	data.Courses = courses

	title := "Messages"
	if conversationID > 0 {
		conv, err := h.services.Messaging.Conversation(r.Context(), sess, conversationID)
		if err != nil {
			h.handleReadError(w, r, err, "/messages")
			return
		}
		messages, err := h.services.Messaging.Messages(r.Context(), sess, conversationID)
		if err != nil {
			h.handleReadError(w, r, err, "/messages")
			return
		}
		data.Selected = conv
		data.Messages = messages
		title = conv.DisplayTitle(sess.User)
	}

	h.page(w, r, "messages", title, data)
}

func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	h.messagesPage(w, r, 0)
}

func (h *Handler) Conversation(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := urlID(r, "conversationID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.messagesPage(w, r, conversationID)
}

func (h *Handler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	in := models.ConversationInput{
		Title:                 r.PostFormValue("title"),
		CourseID:              formInt64(r, "course_id"),
		IncludeCourseStudents: formBool(r, "include_course_students"),
		InitialMessage:        r.PostFormValue("initial_message"),
	}

	v, err := h.once(r, "conversation.create", in.CourseID, func() (interface{}, error) {
		return h.services.Messaging.CreateConversation(r.Context(), currentSession(r), in)
	})
	conv, _ := v.(*models.Conversation)
	if err != nil {
		back := "/messages"
		if conv != nil {
			back = conversationURL(conv.ID)
		}
		h.handleActionError(w, r, err, back)
		return
	}

	h.flash(r, workspace.FlashSuccess, "Conversation started.")
	redirect(w, r, conversationURL(conv.ID))
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := urlID(r, "conversationID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	back := conversationURL(conversationID)

	if err := parseForm(r); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	attachment, closeFile, err := formFile(r, "attachment")
	if err != nil {
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return
	}
	defer closeFile()

	_, err = h.once(r, "message.send", conversationID, func() (interface{}, error) {
		return h.services.Messaging.Send(r.Context(), currentSession(r), models.MessageInput{
			Conversation: conversationID,
			Body:         r.PostFormValue("body"),
			Attachment:   attachment,
		})
	})
	if err != nil {
		h.handleActionError(w, r, err, back)
		return
	}
	redirect(w, r, back+"#latest")
}

func (h *Handler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := urlID(r, "conversationID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	userID := formInt64(r, "user_id")
	h.participantAction(w, r, conversationID, "participant.add", userID, "Participant added.", func() error {
		return h.services.Messaging.AddParticipant(r.Context(), currentSession(r), conversationID, userID)
	})
}

func (h *Handler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	conversationID, ok1 := urlID(r, "conversationID")
	userID, ok2 := urlID(r, "userID")
	if !ok1 || !ok2 {
		http.NotFound(w, r)
		return
	}
	h.participantAction(w, r, conversationID, "participant.remove", userID, "Participant removed.", func() error {
		return h.services.Messaging.RemoveParticipant(r.Context(), currentSession(r), conversationID, userID)
	})
}

func (h *Handler) participantAction(
	w http.ResponseWriter,
	r *http.Request,
	conversationID int64,
	action string,
	userID int64,
	success string,
	fn func() error,
) {
	back := conversationURL(conversationID)
	_, err := h.once(r, fmt.Sprintf("%s.%d", action, conversationID), userID, func() (interface{}, error) {
		return nil, fn()
	})
	if err != nil {
		h.handleActionError(w, r, err, back)
		return
	}

	h.flash(r, workspace.FlashSuccess, success)
	redirect(w, r, back)
}
