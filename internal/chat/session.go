package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Message is one entry of a transcript. It has no identity beyond its position.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session is the state of one chat view from mount to navigation-away.
// Messages[0] is always the seed greeting.
type Session struct {
	ID            uuid.UUID `json:"id"`
	VisitorID     uuid.UUID `json:"visitor_id"`
	Messages      []Message `json:"messages"`
	InitialQuery  string    `json:"initial_query,omitempty"`
	AutoSubmitted bool      `json:"auto_submitted"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewSession(visitorID uuid.UUID, greeting, initialQuery string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:           uuid.New(),
		VisitorID:    visitorID,
		Messages:     []Message{{Role: RoleBot, Content: greeting}},
		InitialQuery: initialQuery,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// EchoReply is the canned bot answer to text.
func EchoReply(text string) string {
	return fmt.Sprintf("You said: \"%s\" — I'm a demo bot.", text)
}

// SubmitQuery appends the user entry and its bot reply, returning both.
// Blank input is ignored and returns nil.
func (s *Session) SubmitQuery(text string) []Message {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	pair := []Message{
		{Role: RoleUser, Content: text},
		{Role: RoleBot, Content: EchoReply(text)},
	}
	s.Messages = append(s.Messages, pair...)
	s.UpdatedAt = time.Now().UTC()
	return pair
}

// AutoSubmit submits the navigation query the first time it is called.
// Every later call is a no-op, so it is safe to run on each render.
func (s *Session) AutoSubmit() []Message {
	if s.InitialQuery == "" || s.AutoSubmitted {
		return nil
	}
	s.AutoSubmitted = true
	return s.SubmitQuery(s.InitialQuery)
}

func (s *Session) IsEmptyState() bool {
	return len(s.Messages) <= 1
}

func (s *Session) LatestUserMessage() (Message, bool) {
	return s.lastOf(RoleUser)
}

func (s *Session) CurrentBotMessage() (Message, bool) {
	return s.lastOf(RoleBot)
}

func (s *Session) lastOf(role Role) (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == role {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

func (s *Session) Clone() *Session {
	c := *s
	c.Messages = append([]Message(nil), s.Messages...)
	return &c
}
