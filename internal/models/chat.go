package models

import (
	"time"

	"github.com/google/uuid"

	"portfolio-chat/internal/chat"
	"portfolio-chat/internal/content"
)

// StartChatRequest opens a chat view, optionally with the navigation query.
type StartChatRequest struct {
	Query string `json:"query"`
}

// ChatRequest is the payload sent to the message endpoint and over the WebSocket.
type ChatRequest struct {
	Message string `json:"message"`
}

// SessionView is what a chat view renders.
type SessionView struct {
	ID                uuid.UUID      `json:"id"`
	Messages          []chat.Message `json:"messages"`
	EmptyState        bool           `json:"empty_state"`
	LatestUserMessage *chat.Message  `json:"latest_user_message,omitempty"`
	CurrentBotMessage *chat.Message  `json:"current_bot_message,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

type SubmitResponse struct {
	Appended []chat.Message `json:"appended"`
	Session  SessionView    `json:"session"`
}

const (
	EventSnapshot = "snapshot"
	EventMessages = "messages"
	EventError    = "error"
)

// SessionEvent is pushed to live transcript subscribers. Total is the
// transcript length once Messages are applied, so a client can drop events
// its snapshot already covers.
type SessionEvent struct {
	Type       string         `json:"type"`
	SessionID  uuid.UUID      `json:"session_id"`
	Messages   []chat.Message `json:"messages,omitempty"`
	Total      int            `json:"total"`
	EmptyState bool           `json:"empty_state"`
	Error      *APIError      `json:"error,omitempty"`
}

// PresetLink is a preset prompt together with the chat URL it navigates to.
type PresetLink struct {
	content.Preset
	URL string `json:"url"`
}

type SiteResponse struct {
	Name       string           `json:"name"`
	Headline   string           `json:"headline"`
	Title      string           `json:"title"`
	Tagline    []string         `json:"tagline"`
	GitHubRepo string           `json:"github_repo"`
	Metadata   content.Metadata `json:"metadata"`
	Shortcut   PresetLink       `json:"shortcut"`
	Presets    []PresetLink     `json:"presets"`
}
