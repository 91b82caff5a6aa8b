// Package prompts holds the prompt catalogue used for report analysis and
// chat. The catalogue is embedded and can be replaced with PROMPTS_FILE.
package prompts

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultCatalogue []byte

// Catalogue is the parsed prompt file.
type Catalogue struct {
	Version   int    `yaml:"version"`
	Analysis  string `yaml:"analysis"`
	Chat      string `yaml:"chat"`
	NoReports string `yaml:"no_reports"`

	chatTmpl *template.Template
}

// ChatData fills the chat template.
type ChatData struct {
	History string
	Context string
	UserID  string
	Message string
}

// Default returns the embedded catalogue.
func Default() (*Catalogue, error) {
	return Parse(defaultCatalogue)
}

// Load reads the catalogue at path, or the embedded one when path is empty.
func Load(path string) (*Catalogue, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalogue.
func Parse(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode prompts: %w", err)
	}
	if strings.TrimSpace(c.Analysis) == "" {
		return nil, errors.New("prompts: analysis prompt is empty")
	}
	if strings.TrimSpace(c.Chat) == "" {
		return nil, errors.New("prompts: chat template is empty")
	}
	if strings.TrimSpace(c.NoReports) == "" {
		return nil, errors.New("prompts: no_reports sentence is empty")
	}

	tmpl, err := template.New("chat").Option("missingkey=error").Parse(c.Chat)
	if err != nil {
		return nil, fmt.Errorf("parse chat template: %w", err)
	}
	c.chatTmpl = tmpl
	return &c, nil
}

// RenderChat fills the chat template.
func (c *Catalogue) RenderChat(data ChatData) (string, error) {
	var buf bytes.Buffer
	if err := c.chatTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render chat prompt: %w", err)
	}
	return buf.String(), nil
}
