package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"portfolio-chat/internal/chat"
	"portfolio-chat/internal/models"
	"portfolio-chat/internal/repository"
)

// Notifier receives every change to a session's transcript.
type Notifier interface {
	Publish(ctx context.Context, sessionID uuid.UUID, event models.SessionEvent)
}

type ChatService struct {
	store    repository.SessionStore
	notifier Notifier
	greeting string
	logger   *zap.Logger
}

func NewChatService(store repository.SessionStore, notifier Notifier, greeting string, logger *zap.Logger) *ChatService {
	return &ChatService{
		store:    store,
		notifier: notifier,
		greeting: greeting,
		logger:   logger,
	}
}

// Start mounts a new chat view. A non-blank initialQuery is submitted once.
func (s *ChatService) Start(ctx context.Context, visitorID uuid.UUID, initialQuery string) (*chat.Session, error) {
	session := chat.NewSession(visitorID, s.greeting, initialQuery)
	session.AutoSubmit()

	if err := s.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create chat session: %w", err)
	}

	s.logger.Info("chat session started",
		zap.String("session_id", session.ID.String()),
		zap.Bool("auto_submitted", session.AutoSubmitted))
	return session, nil
}

// Get loads a session for rendering. The pending navigation query, if any,
// is submitted here at most once.
func (s *ChatService) Get(ctx context.Context, visitorID, id uuid.UUID) (*chat.Session, error) {
	var appended []chat.Message

	session, err := s.store.Update(ctx, id, func(session *chat.Session) (bool, error) {
		if session.VisitorID != visitorID {
			return false, repository.ErrSessionNotFound
		}
		before := session.AutoSubmitted
		appended = session.AutoSubmit()
		return session.AutoSubmitted != before, nil
	})
	if err != nil {
		return nil, s.mapStoreError(err)
	}

	if len(appended) > 0 {
		s.publish(ctx, session, appended)
	}
	return session, nil
}

// Transcript loads a session without changing it or publishing anything.
func (s *ChatService) Transcript(ctx context.Context, visitorID, id uuid.UUID) (*chat.Session, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.mapStoreError(err)
	}
	if session.VisitorID != visitorID {
		return nil, &NotFoundError{Message: "Chat session not found"}
	}
	return session, nil
}

// Submit appends the user text and its reply. Blank text is ignored: no
// error, nothing appended, nothing published.
func (s *ChatService) Submit(ctx context.Context, visitorID, id uuid.UUID, text string) ([]chat.Message, *chat.Session, error) {
	var appended []chat.Message

	session, err := s.store.Update(ctx, id, func(session *chat.Session) (bool, error) {
		if session.VisitorID != visitorID {
			return false, repository.ErrSessionNotFound
		}
		appended = session.SubmitQuery(text)
		return appended != nil, nil
	})
	if err != nil {
		return nil, nil, s.mapStoreError(err)
	}

	if len(appended) > 0 {
		s.publish(ctx, session, appended)
	}
	return appended, session, nil
}

// Reset ends a session.
func (s *ChatService) Reset(ctx context.Context, visitorID, id uuid.UUID) error {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return s.mapStoreError(err)
	}
	if session.VisitorID != visitorID {
		return &NotFoundError{Message: "Chat session not found"}
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return s.mapStoreError(err)
	}

	s.logger.Info("chat session reset", zap.String("session_id", id.String()))
	return nil
}

// View builds the render model of a session.
func View(session *chat.Session) models.SessionView {
	view := models.SessionView{
		ID:         session.ID,
		Messages:   session.Messages,
		EmptyState: session.IsEmptyState(),
		CreatedAt:  session.CreatedAt,
		UpdatedAt:  session.UpdatedAt,
	}
	if m, ok := session.LatestUserMessage(); ok {
		view.LatestUserMessage = &m
	}
	if m, ok := session.CurrentBotMessage(); ok {
		view.CurrentBotMessage = &m
	}
	return view
}

// Snapshot is the event sent to a subscriber when it first connects.
func Snapshot(session *chat.Session) models.SessionEvent {
	return models.SessionEvent{
		Type:       models.EventSnapshot,
		SessionID:  session.ID,
		Messages:   session.Messages,
		Total:      len(session.Messages),
		EmptyState: session.IsEmptyState(),
	}
}

func (s *ChatService) publish(ctx context.Context, session *chat.Session, appended []chat.Message) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(ctx, session.ID, models.SessionEvent{
		Type:       models.EventMessages,
		SessionID:  session.ID,
		Messages:   appended,
		Total:      len(session.Messages),
		EmptyState: session.IsEmptyState(),
	})
}

func (s *ChatService) mapStoreError(err error) error {
	if errors.Is(err, repository.ErrSessionNotFound) {
		return &NotFoundError{Message: "Chat session not found"}
	}
	s.logger.Error("session store failure", zap.Error(err))
	return err
}
