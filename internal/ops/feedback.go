package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/sift/internal/db"
	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/item"
)

// FeedbackInput contains parameters for the RecordFeedback operation:
// the user's confirmed or corrected assignment for an item.
type FeedbackInput struct {
	ItemID    string // required
	Domain    string // required: the correct domain
	ProjectID string // optional: the correct project
}

// FeedbackOutput contains the result of the RecordFeedback operation.
type FeedbackOutput struct {
	WasCorrect bool     `json:"was_correct"`
	Signature  string   `json:"signature"`
	Learned    []string `json:"learned,omitempty"`
}

// RecordFeedback applies a routing correction: the confidence record
// for the item's keyword signature is updated for both the old and new
// targets, the chosen domain learns keywords from the item text, and
// the item is reassigned, all in one transaction. Confirming the
// existing assignment just reinforces it.
func RecordFeedback(ctx context.Context, database *sql.DB, input FeedbackInput) (*FeedbackOutput, error) {
	if input.ItemID == "" {
		return nil, errors.NewInvalidRequest("item_id is required")
	}
	domain := item.Normalize(input.Domain)
	if domain == "" {
		return nil, errors.NewInvalidRequest("domain is required")
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback()

	it, err := db.GetItem(tx, input.ItemID)
	if err != nil {
		return nil, err
	}
	d, err := db.GetDomain(tx, domain)
	if err != nil {
		return nil, err
	}

	var projectID *string
	if input.ProjectID != "" {
		p, err := db.GetProject(tx, input.ProjectID)
		if err != nil {
			return nil, err
		}
		if p.Domain != domain {
			return nil, errors.NewInvalidRequest("project does not belong to domain " + domain)
		}
		projectID = &p.ID
	}

	signature := item.Signature(it.Text)
	wasCorrect := it.Domain != nil && *it.Domain == domain

	if signature != "" {
		if !wasCorrect && it.Domain != nil {
			if err := db.RecordConfidence(tx, signature, *it.Domain, false); err != nil {
				return nil, err
			}
		}
		if err := db.RecordConfidence(tx, signature, domain, true); err != nil {
			return nil, err
		}
		if projectID != nil {
			if err := db.RecordConfidence(tx, signature, *projectID, true); err != nil {
				return nil, err
			}
		}
	}

	learned := item.LearnableKeywords(it.Text)
	if len(learned) > 0 {
		merged := item.MergeKeywords(d.Keywords, learned)
		if err := db.SetDomainKeywords(tx, domain, merged); err != nil {
			return nil, err
		}
		if projectID != nil {
			p, err := db.GetProject(tx, *projectID)
			if err != nil {
				return nil, err
			}
			if err := db.SetProjectKeywords(tx, p.ID, item.MergeKeywords(p.Keywords, learned)); err != nil {
				return nil, err
			}
		}
	}

	if err := db.UpdateItemAssignment(tx, it.ID, &domain, projectID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return &FeedbackOutput{WasCorrect: wasCorrect, Signature: signature, Learned: learned}, nil
}
