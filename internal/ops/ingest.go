package ops

import (
	"context"
	"strings"
	"time"

	"github.com/hpungsan/sift/internal/db"
	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/item"
)

// IngestInput contains parameters for the Ingest operation.
type IngestInput struct {
	Text       string // required
	Source     string // e.g. "email", "note"
	DomainHint string
	SkipDedupe bool
	NoClarify  bool
}

// IngestOutput contains the result of the Ingest operation.
type IngestOutput struct {
	ItemID       string         `json:"item_id,omitempty"`
	WasDuplicate bool           `json:"was_duplicate"`
	DuplicateOf  *string        `json:"duplicate_of,omitempty"`
	Similarity   float64        `json:"similarity,omitempty"`
	Decision     *item.Decision `json:"decision,omitempty"`
	Warning      string         `json:"warning,omitempty"`
}

// Ingest runs the full intake pipeline: duplicate check, routing, then
// item creation. Duplicates are dropped before anything is persisted.
// A low-confidence decision still creates the item with the best
// candidate assignment, linked from the clarification question so the
// answer can correct it later.
func (r *Router) Ingest(ctx context.Context, input IngestInput) (*IngestOutput, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, errors.NewInvalidRequest("text is required")
	}

	out := &IngestOutput{}

	if !input.SkipDedupe {
		dup, err := r.CheckDuplicate(ctx, DedupeInput{Text: text})
		if err != nil {
			return nil, err
		}
		out.Warning = dup.Warning
		if dup.IsDuplicate {
			out.WasDuplicate = true
			out.DuplicateOf = dup.DuplicateOf
			out.Similarity = dup.Similarity
			return out, nil
		}
	}

	decision, keywordSignal, err := r.decide(ctx, text, input.DomainHint)
	if err != nil {
		return nil, err
	}
	out.Decision = decision

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	now := time.Now().Unix()
	it := &item.Item{
		ID:        id,
		Text:      text,
		Status:    item.StatusOpen,
		Domain:    &decision.Domain,
		ProjectID: decision.ProjectID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.Source != "" {
		it.Source = &input.Source
	}
	if err := db.InsertItem(r.db, it); err != nil {
		return nil, err
	}
	out.ItemID = id

	if !input.NoClarify {
		if err := r.maybeEscalate(text, decision, keywordSignal, &id); err != nil {
			return nil, err
		}
	}
	return out, nil
}
