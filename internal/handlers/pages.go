package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"portfolio-chat/internal/middleware"
	"portfolio-chat/internal/services"
	"portfolio-chat/internal/web"
)

// PageHandler serves the server-rendered landing and chat pages. Every
// form submission answers with a 303 so reloading never resubmits.
type PageHandler struct {
	landing     *services.LandingService
	chatService *services.ChatService
	renderer    *web.Renderer
	logger      *zap.Logger
}

func NewPageHandler(landing *services.LandingService, chatService *services.ChatService, renderer *web.Renderer, logger *zap.Logger) *PageHandler {
	return &PageHandler{
		landing:     landing,
		chatService: chatService,
		renderer:    renderer,
		logger:      logger,
	}
}

func chatPath(id uuid.UUID) string {
	return "/chat/" + id.String()
}

func (h *PageHandler) Landing(w http.ResponseWriter, r *http.Request) {
	err := h.renderer.Landing(w, web.LandingPage{
		Profile:  h.landing.Profile(),
		Shortcut: h.landing.Shortcut(),
		Presets:  h.landing.Presets(),
	})
	if err != nil {
		h.renderFailed(w, err)
	}
}

// Ask handles the landing form. Blank input goes back to the landing page.
func (h *PageHandler) Ask(w http.ResponseWriter, r *http.Request) {
	target, err := h.landing.ChatURL(r.FormValue("query"))
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *PageHandler) Preset(w http.ResponseWriter, r *http.Request) {
	target, err := h.landing.PresetURL(chi.URLParam(r, "preset"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Mount opens a new chat view with the navigation query, which is read once
// here and submitted by the session.
func (h *PageHandler) Mount(w http.ResponseWriter, r *http.Request) {
	visitorID := middleware.GetVisitorID(r.Context())
	session, err := h.chatService.Start(r.Context(), visitorID, r.URL.Query().Get("query"))
	if err != nil {
		h.logger.Error("failed to start chat", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, chatPath(session.ID), http.StatusSeeOther)
}

func (h *PageHandler) Chat(w http.ResponseWriter, r *http.Request) {
	sessionID, err := sessionIDParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	session, err := h.chatService.Get(r.Context(), middleware.GetVisitorID(r.Context()), sessionID)
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	profile := h.landing.Profile()
	err = h.renderer.Chat(w, web.ChatPage{
		Profile:      profile,
		View:         services.View(session),
		Presets:      profile.Presets,
		SubmitURL:    chatPath(session.ID) + "/messages",
		ResetURL:     chatPath(session.ID) + "/reset",
		WebSocketURL: "/api/v1/chat/sessions/" + session.ID.String() + "/ws",
	})
	if err != nil {
		h.renderFailed(w, err)
	}
}

func (h *PageHandler) Send(w http.ResponseWriter, r *http.Request) {
	sessionID, err := sessionIDParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	visitorID := middleware.GetVisitorID(r.Context())
	if _, _, err := h.chatService.Submit(r.Context(), visitorID, sessionID, r.FormValue("message")); err != nil {
		h.pageError(w, r, err)
		return
	}
	http.Redirect(w, r, chatPath(sessionID), http.StatusSeeOther)
}

func (h *PageHandler) Reset(w http.ResponseWriter, r *http.Request) {
	sessionID, err := sessionIDParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	err = h.chatService.Reset(r.Context(), middleware.GetVisitorID(r.Context()), sessionID)
	if err != nil && !isNotFound(err) {
		h.pageError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// pageError sends visitors with an expired or foreign session back home.
func (h *PageHandler) pageError(w http.ResponseWriter, r *http.Request, err error) {
	if isNotFound(err) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.logger.Error("chat page failed", zap.String("path", r.URL.Path), zap.Error(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *PageHandler) renderFailed(w http.ResponseWriter, err error) {
	h.logger.Error("failed to render page", zap.Error(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func isNotFound(err error) bool {
	var nf *services.NotFoundError
	return errors.As(err, &nf)
}
