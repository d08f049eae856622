package chat

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
)

// DefaultPrompt is the system prompt used when no prompt file is configured.
const DefaultPrompt = `You are a helpful assistant that answers questions using the documents below.
When a document has a "Read more here" link, include it in your answer.
If the documents do not contain the answer, say that you could not find it.

Documents:
{{.Context}}`

// promptData is the template input.
type promptData struct {
	Context string
	Input   string
}

// LoadPrompt reads a prompt template file, or returns DefaultPrompt for an empty path.
func LoadPrompt(path string) (string, error) {
	if path == "" {
		return DefaultPrompt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt file: %w", err)
	}
	return string(data), nil
}

func parsePrompt(text string) (*template.Template, error) {
	tmpl, err := template.New("chat").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return tmpl, nil
}

func renderPrompt(tmpl *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}
