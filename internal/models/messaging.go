package models

import "time"

type CourseSummary struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Thumbnail *string `json:"thumbnail"`
}

type Conversation struct {
	ID           int64                     `json:"id"`
	Title        string                    `json:"title"`
	Course       *CourseSummary            `json:"course"`
	CreatedBy    *User                     `json:"created_by"`
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at"`
	Participants []ConversationParticipant `json:"participants"`
	LastMessage  *Message                  `json:"last_message"`
	UnreadCount  int                       `json:"unread_count"`
}

// DisplayTitle повторяет логику списка бесед: заголовок, затем курс, затем участники.
func (c *Conversation) DisplayTitle(me *User) string {
	if c.Title != "" {
		return c.Title
	}
	if c.Course != nil && c.Course.Title != "" {
		return c.Course.Title
	}
	for _, p := range c.Participants {
		if p.User != nil && (me == nil || p.User.ID != me.ID) {
			return p.User.Name()
		}
	}
	return "Conversation"
}

type ConversationParticipant struct {
	ID         int64      `json:"id"`
	User       *User      `json:"user"`
	JoinedAt   time.Time  `json:"joined_at"`
	LastReadAt *time.Time `json:"last_read_at"`
}

type Message struct {
	ID            int64     `json:"id"`
	Conversation  int64     `json:"conversation"`
	Sender        *User     `json:"sender"`
	Body          string    `json:"body"`
	Attachment    *string   `json:"attachment"`
	AttachmentURL *string   `json:"attachment_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	IsEdited      bool      `json:"is_edited"`
	IsRead        bool      `json:"is_read"`
}

// NeedsReadMark - входящее непрочитанное сообщение.
func (m *Message) NeedsReadMark(me *User) bool {
	if m.IsRead || me == nil {
		return false
	}
	return m.Sender == nil || m.Sender.ID != me.ID
}
