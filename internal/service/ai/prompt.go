package ai

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"
)

//go:embed prompts/extract.tmpl
var extractTemplateText string

var extractTemplate = template.Must(template.New("extract").Parse(extractTemplateText))

var weekdays = [...]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}

type promptData struct {
	Today   string
	Weekday string
	Text    string
}

// BuildPrompt renders the extraction instructions around the user's raw text.
func BuildPrompt(text string, today time.Time) (string, error) {
	var sb strings.Builder
	err := extractTemplate.Execute(&sb, promptData{
		Today:   today.Format("2006-01-02"),
		Weekday: weekdays[today.Weekday()],
		Text:    text,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return sb.String(), nil
}
