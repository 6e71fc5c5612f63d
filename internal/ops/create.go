package ops

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hpungsan/sieve/internal/errors"
	"github.com/hpungsan/sieve/internal/item"
	"github.com/hpungsan/sieve/internal/store"
)

// MaxTitleChars bounds a captured title.
const MaxTitleChars = 500

// CreateInput contains parameters for the Create operation.
type CreateInput struct {
	Type      string // default: Task
	Title     string // required
	Body      string
	Tags      []string
	Source    string  // default: set by the transport
	Certainty *string // optional: certain|uncertain
}

// CreateOutput contains the result of the Create operation.
type CreateOutput struct {
	ID   string     `json:"id"`
	Item *item.Item `json:"item"`
}

// Create captures a new inbox item.
func Create(ctx context.Context, st *store.Store, input CreateInput) (*CreateOutput, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errors.NewInvalidRequest("title is required")
	}
	if len([]rune(title)) > MaxTitleChars {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("title exceeds maximum length of %d characters", MaxTitleChars))
	}

	typ := item.TypeTask
	if strings.TrimSpace(input.Type) != "" {
		t, ok := item.ParseType(input.Type)
		if !ok {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("type must be one of: Task, Idea, Note, Media (got %q)", input.Type))
		}
		typ = t
	}

	var certainty *item.Certainty
	if c := cleanOptionalString(input.Certainty); c != nil {
		v, ok := item.ParseCertainty(*c)
		if !ok {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("certainty must be one of: certain, uncertain (got %q)", *c))
		}
		certainty = &v
	}

	it, err := st.Create(ctx, item.Draft{
		Type:      typ,
		Title:     title,
		Body:      input.Body,
		Tags:      input.Tags,
		Source:    strings.TrimSpace(input.Source),
		Certainty: certainty,
	})
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "item captured", "id", it.ID, "type", it.Type)
	return &CreateOutput{ID: it.ID, Item: it}, nil
}
