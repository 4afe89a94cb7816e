package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed site.yaml
var defaultSite []byte

type Author struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

type OpenGraph struct {
	Type        string `yaml:"type" json:"type"`
	URL         string `yaml:"url" json:"url"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	SiteName    string `yaml:"site_name" json:"site_name"`
}

// Metadata is rendered into the <head> of every page.
type Metadata struct {
	Title       string    `yaml:"title" json:"title"`
	Description string    `yaml:"description" json:"description"`
	Keywords    []string  `yaml:"keywords" json:"keywords"`
	Locale      string    `yaml:"locale" json:"locale"`
	Authors     []Author  `yaml:"authors" json:"authors"`
	OpenGraph   OpenGraph `yaml:"open_graph" json:"open_graph"`
}

// Preset is a quick question offered on the landing page and in the chat view.
type Preset struct {
	Key    string `yaml:"key" json:"key"`
	Prompt string `yaml:"prompt" json:"prompt"`
	Color  string `yaml:"color" json:"color"`
	Icon   string `yaml:"icon" json:"icon"`
}

type Shortcut struct {
	Label  string `yaml:"label" json:"label"`
	Prompt string `yaml:"prompt" json:"prompt"`
}

type Profile struct {
	Name       string   `yaml:"name" json:"name"`
	Headline   string   `yaml:"headline" json:"headline"`
	Title      string   `yaml:"title" json:"title"`
	Tagline    []string `yaml:"tagline" json:"tagline"`
	Greeting   string   `yaml:"greeting" json:"greeting"`
	GitHubRepo string   `yaml:"github_repo" json:"github_repo"`
	Metadata   Metadata `yaml:"metadata" json:"metadata"`
	Shortcut   Shortcut `yaml:"shortcut" json:"shortcut"`
	Presets    []Preset `yaml:"presets" json:"presets"`
}

// Load reads the profile from path, or the embedded default when path is empty.
func Load(path string) (*Profile, error) {
	data := defaultSite
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read site file: %w", err)
		}
		data = b
	}
	return Parse(data)
}

func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse site file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Profile) Validate() error {
	var errs []error
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if strings.TrimSpace(p.Greeting) == "" {
		errs = append(errs, errors.New("greeting is required"))
	}
	if len(p.Presets) == 0 {
		errs = append(errs, errors.New("at least one preset is required"))
	}

	seen := make(map[string]bool, len(p.Presets))
	for i, preset := range p.Presets {
		if preset.Key == "" || strings.TrimSpace(preset.Prompt) == "" {
			errs = append(errs, fmt.Errorf("preset %d needs a key and a prompt", i))
			continue
		}
		if seen[preset.Key] {
			errs = append(errs, fmt.Errorf("duplicate preset key %q", preset.Key))
		}
		seen[preset.Key] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid site profile: %w", errors.Join(errs...))
	}
	return nil
}

// Preset looks up a preset by key.
func (p *Profile) Preset(key string) (Preset, bool) {
	for _, preset := range p.Presets {
		if preset.Key == key {
			return preset, true
		}
	}
	return Preset{}, false
}
