package handlers

import (
	"net/http"

	"portfolio-chat/internal/services"
)

type SiteHandler struct {
	landing *services.LandingService
}

func NewSiteHandler(landing *services.LandingService) *SiteHandler {
	return &SiteHandler{landing: landing}
}

// Get returns the profile, page metadata and preset prompts.
func (h *SiteHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.landing.Site())
}
