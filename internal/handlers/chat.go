package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"portfolio-chat/internal/chat"
	"portfolio-chat/internal/middleware"
	"portfolio-chat/internal/models"
	"portfolio-chat/internal/services"
	"portfolio-chat/internal/websocket"
)

type ChatHandler struct {
	chatService *services.ChatService
	hub         *websocket.Hub
	limiter     *middleware.RateLimiter
}

// NewChatHandler wires the API. limiter is the one guarding the message
// routes, so typing over the WebSocket draws from the same budget.
func NewChatHandler(chatService *services.ChatService, hub *websocket.Hub, limiter *middleware.RateLimiter) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		hub:         hub,
		limiter:     limiter,
	}
}

// Start opens a chat view, submitting the optional query once.
func (h *ChatHandler) Start(w http.ResponseWriter, r *http.Request) {
	// the body is optional
	var req models.StartChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	visitorID := middleware.GetVisitorID(r.Context())
	session, err := h.chatService.Start(r.Context(), visitorID, req.Query)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, services.View(session))
}

func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, err := sessionIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	session, err := h.chatService.Get(r.Context(), middleware.GetVisitorID(r.Context()), sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, services.View(session))
}

// SendMessage appends a user message and its reply. Blank messages are
// accepted and ignored.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID, err := sessionIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	visitorID := middleware.GetVisitorID(r.Context())
	appended, session, err := h.chatService.Submit(r.Context(), visitorID, sessionID, req.Message)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if appended == nil {
		appended = []chat.Message{}
	}
	writeJSON(w, http.StatusOK, models.SubmitResponse{
		Appended: appended,
		Session:  services.View(session),
	})
}

func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID, err := sessionIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	if err := h.chatService.Reset(r.Context(), middleware.GetVisitorID(r.Context()), sessionID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Chat session ended"})
}

// Live streams the transcript over a WebSocket.
func (h *ChatHandler) Live(w http.ResponseWriter, r *http.Request) {
	sessionID, err := sessionIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	// ownership is checked before the upgrade, while a 404 can still be sent
	visitorID := middleware.GetVisitorID(r.Context())
	if _, err := h.chatService.Get(r.Context(), visitorID, sessionID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	snapshot := func(ctx context.Context) (models.SessionEvent, error) {
		current, err := h.chatService.Transcript(ctx, visitorID, sessionID)
		if err != nil {
			return models.SessionEvent{}, err
		}
		return services.Snapshot(current), nil
	}

	h.hub.Serve(w, r, sessionID, snapshot, func(ctx context.Context, text string) error {
		if !h.limiter.Allow(visitorID.String()) {
			return &websocket.RejectedError{Code: "RATE_LIMITED", Message: "Too many requests. Please try again later."}
		}
		_, _, err := h.chatService.Submit(ctx, visitorID, sessionID, text)
		return err
	})
}
