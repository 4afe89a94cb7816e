package services

import (
	"net/url"
	"strings"

	"portfolio-chat/internal/content"
	"portfolio-chat/internal/models"
)

const chatPath = "/chat"

// LandingService turns landing page input into navigations to the chat view.
type LandingService struct {
	profile *content.Profile
}

func NewLandingService(profile *content.Profile) *LandingService {
	return &LandingService{profile: profile}
}

func (s *LandingService) Profile() *content.Profile {
	return s.profile
}

// ChatURL trims free text and encodes it as the chat view's query parameter.
func (s *LandingService) ChatURL(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", &ValidationError{Fields: map[string]string{"query": "Query is required"}}
	}
	return chatURL(query), nil
}

// PresetURL returns the chat URL for a preset key.
func (s *LandingService) PresetURL(key string) (string, error) {
	preset, ok := s.profile.Preset(key)
	if !ok {
		return "", &NotFoundError{Message: "Preset not found"}
	}
	return chatURL(preset.Prompt), nil
}

func (s *LandingService) Presets() []models.PresetLink {
	links := make([]models.PresetLink, 0, len(s.profile.Presets))
	for _, p := range s.profile.Presets {
		links = append(links, models.PresetLink{Preset: p, URL: chatURL(p.Prompt)})
	}
	return links
}

func (s *LandingService) Shortcut() models.PresetLink {
	sc := s.profile.Shortcut
	return models.PresetLink{
		Preset: content.Preset{Key: sc.Label, Prompt: sc.Prompt},
		URL:    chatURL(sc.Prompt),
	}
}

func (s *LandingService) Site() models.SiteResponse {
	p := s.profile
	return models.SiteResponse{
		Name:       p.Name,
		Headline:   p.Headline,
		Title:      p.Title,
		Tagline:    p.Tagline,
		GitHubRepo: p.GitHubRepo,
		Metadata:   p.Metadata,
		Shortcut:   s.Shortcut(),
		Presets:    s.Presets(),
	}
}

func chatURL(query string) string {
	return chatPath + "?" + url.Values{"query": {query}}.Encode()
}
