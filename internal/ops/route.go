package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/sift/internal/db"
	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/item"
)

// RouteInput contains parameters for the Route operation.
type RouteInput struct {
	Text       string // required
	DomainHint string // optional: caller-asserted domain, matched by prefix

	// NoClarify suppresses question creation for low-confidence
	// decisions; the best candidate is returned as-is.
	NoClarify bool
}

// Route classifies text without persisting an item. Decisions below the
// routing confidence floor enqueue a clarification question unless
// NoClarify is set.
func (r *Router) Route(ctx context.Context, input RouteInput) (*item.Decision, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, errors.NewInvalidRequest("text is required")
	}

	decision, keywordSignal, err := r.decide(ctx, text, input.DomainHint)
	if err != nil {
		return nil, err
	}

	if !input.NoClarify {
		if err := r.maybeEscalate(text, decision, keywordSignal, nil); err != nil {
			return nil, err
		}
	}
	return decision, nil
}

// maybeEscalate enqueues a clarification question when the decision
// confidence is below the routing floor, and marks the decision.
func (r *Router) maybeEscalate(text string, decision *item.Decision, keywordSignal bool, itemID *string) error {
	minFloor, err := ThresholdValue(r.db, "routing_confidence_min")
	if err != nil {
		return err
	}
	if decision.Confidence >= minFloor {
		return nil
	}

	domains, err := db.ActiveDomains(r.db)
	if err != nil {
		return err
	}
	paths := make([]string, len(domains))
	for i, d := range domains {
		paths[i] = d.Path
	}

	questionID, err := askRouting(r.db, text, decision, keywordSignal, paths, itemID)
	if err != nil {
		return err
	}
	decision.NeedsClarification = true
	decision.QuestionID = &questionID
	return nil
}
