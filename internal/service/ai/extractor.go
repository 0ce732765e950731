package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"jadwalku/internal/models"
)

// ErrEmptyText is returned before any model call when the input is blank.
var ErrEmptyText = errors.New("empty text")

// Extractor turns free text into schedule candidates with a chat model.
type Extractor struct {
	chatModel model.BaseChatModel
}

func NewExtractor(chatModel model.BaseChatModel) *Extractor {
	return &Extractor{chatModel: chatModel}
}

// Extract asks the model for a JSON array of items describing text. There is
// no retry or repair: a malformed answer is returned as an error.
func (e *Extractor) Extract(ctx context.Context, text string, today time.Time) ([]models.ExtractedItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	prompt, err := BuildPrompt(text, today)
	if err != nil {
		return nil, err
	}
	resp, err := e.chatModel.Generate(ctx, []*schema.Message{
		{
			Role:    schema.User,
			Content: prompt,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("generate jadwal failed: %w", err)
	}
	if resp == nil {
		return nil, errors.New("generate jadwal failed: empty response")
	}
	return ParseItems(resp.Content)
}

// CleanResponse drops surrounding whitespace and markdown code fences.
func CleanResponse(raw string) string {
	out := strings.TrimSpace(raw)
	out = strings.ReplaceAll(out, "```json", "")
	out = strings.ReplaceAll(out, "```", "")
	return strings.TrimSpace(out)
}

// ParseItems decodes the model answer as a JSON array of extracted items.
func ParseItems(raw string) ([]models.ExtractedItem, error) {
	var items []models.ExtractedItem
	if err := json.Unmarshal([]byte(CleanResponse(raw)), &items); err != nil {
		return nil, fmt.Errorf("parse jadwal json: %w", err)
	}
	if items == nil {
		items = make([]models.ExtractedItem, 0)
	}
	return items, nil
}
