package ops

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/sift/internal/db"
	"github.com/hpungsan/sift/internal/embedding"
	"github.com/hpungsan/sift/internal/errors"
)

// DedupeInput contains parameters for the CheckDuplicate operation.
type DedupeInput struct {
	Text string // required
}

// DedupeOutput contains the result of the CheckDuplicate operation.
type DedupeOutput struct {
	IsDuplicate bool    `json:"is_duplicate"`
	DuplicateOf *string `json:"duplicate_of,omitempty"`
	Similarity  float64 `json:"similarity"`
	Compared    int     `json:"compared"`

	// Warning is set when the embedding provider was unavailable and
	// the check failed open.
	Warning string `json:"warning,omitempty"`
}

// CheckDuplicate compares text against recent open items by embedding
// similarity. The comparison pool is open items created inside the
// dedupe window; an empty pool skips the provider call entirely. When
// several items tie on similarity the earliest created wins. Provider
// failures never block intake: the check reports non-duplicate with a
// warning.
func (r *Router) CheckDuplicate(ctx context.Context, input DedupeInput) (*DedupeOutput, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, errors.NewInvalidRequest("text is required")
	}

	simMin, err := ThresholdValue(r.db, "dedupe_confidence_min")
	if err != nil {
		return nil, err
	}
	windowDays, err := ThresholdValue(r.db, "dedupe_window_days")
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-time.Duration(windowDays) * 24 * time.Hour).Unix()
	pool, err := db.OpenItemsSince(r.db, cutoff)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return &DedupeOutput{}, nil
	}

	if r.embedder == nil {
		return &DedupeOutput{Compared: len(pool), Warning: "dedupe skipped: no embedding engine configured"}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.embedTimeout())
	defer cancel()

	queryVec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		r.log.Warn("dedupe embedding failed, continuing without check", zap.Error(err))
		return &DedupeOutput{Compared: len(pool), Warning: "dedupe skipped: " + err.Error()}, nil
	}

	texts := make([]string, len(pool))
	for i, it := range pool {
		texts[i] = it.Text
	}
	poolVecs, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		r.log.Warn("dedupe batch embedding failed, continuing without check", zap.Error(err))
		return &DedupeOutput{Compared: len(pool), Warning: "dedupe skipped: " + err.Error()}, nil
	}

	out := &DedupeOutput{Compared: len(pool)}

	// Pool is ordered oldest first; a strict > keeps the earliest item
	// on similarity ties.
	for i, vec := range poolVecs {
		sim := embedding.CosineSimilarity(queryVec, vec)
		if sim > out.Similarity {
			out.Similarity = sim
			if sim >= simMin {
				out.IsDuplicate = true
				out.DuplicateOf = &pool[i].ID
			}
		}
	}
	return out, nil
}
