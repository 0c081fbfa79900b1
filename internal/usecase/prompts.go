package usecase

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

var prompts = template.Must(template.New("prompts").Funcs(templateFuncs()).ParseFS(promptTemplates, "templates/*.txt"))

func renderPrompt(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.String(), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"join": strings.Join,
		"inc":  func(i int) int { return i + 1 },
		"toJSON": func(v any) string {
			data, err := json.Marshal(v)
			if err != nil {
				return "{}"
			}
			return string(data)
		},
	}
}
