// Package templates provides embedded prompt templates.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

// Prompts contains the completion prompt templates.
//
//go:embed prompts/*.md
var Prompts embed.FS

// RoadmapTemplate is the default checklist dialect description, sent to the
// completion provider when no template file is configured.
//
//go:embed roadmap_template.md
var RoadmapTemplate string

// SystemPrompt frames every roadmap completion request.
const SystemPrompt = "You are an assistant that produces strictly formatted roadmaps that an application can parse."

// Render executes the named prompt template from Prompts with data.
func Render(name string, data any) (string, error) {
	content, err := Prompts.ReadFile("prompts/" + name)
	if err != nil {
		return "", fmt.Errorf("read prompt template %s: %w", name, err)
	}

	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.String(), nil
}
