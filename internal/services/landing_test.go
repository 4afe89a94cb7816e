package services

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-chat/internal/content"
)

func newTestLandingService(t *testing.T) *LandingService {
	t.Helper()
	profile, err := content.Load("")
	require.NoError(t, err)
	return NewLandingService(profile)
}

func queryOf(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/chat", u.Path)
	return u.Query().Get("query")
}

func TestLandingService_ChatURL(t *testing.T) {
	svc := newTestLandingService(t)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Hello", "Hello"},
		{"trimmed", "   Hello there  ", "Hello there"},
		{"special characters", "a&b=c?d#e/f", "a&b=c?d#e/f"},
		{"unicode", "What’s up? 👋", "What’s up? 👋"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.ChatURL(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, queryOf(t, got))
		})
	}
}

func TestLandingService_ChatURL_Blank(t *testing.T) {
	svc := newTestLandingService(t)

	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := svc.ChatURL(in)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Fields, "query")
	}
}

func TestLandingService_PresetURL(t *testing.T) {
	svc := newTestLandingService(t)

	got, err := svc.PresetURL("Projects")
	require.NoError(t, err)
	assert.Equal(t, "What are your projects? What are you working on right now?", queryOf(t, got))

	_, err = svc.PresetURL("Nope")
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestLandingService_Presets(t *testing.T) {
	svc := newTestLandingService(t)

	presets := svc.Presets()
	require.Len(t, presets, 5)
	for _, p := range presets {
		assert.Equal(t, p.Prompt, queryOf(t, p.URL))
	}

	shortcut := svc.Shortcut()
	assert.Equal(t, "need an intern?", shortcut.Key)
	assert.Equal(t, "Are you looking for an internship?", queryOf(t, shortcut.URL))
}

func TestLandingService_Site(t *testing.T) {
	svc := newTestLandingService(t)

	site := svc.Site()
	assert.Equal(t, "Deepika", site.Name)
	assert.Equal(t, "DEEPU AI", site.Title)
	assert.Len(t, site.Presets, 5)
	assert.Equal(t, "Deepika Portfolio", site.Metadata.Title)
}
