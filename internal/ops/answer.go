package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/sift/internal/db"
	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/item"
)

// AnswerInput contains parameters for the Answer operation.
type AnswerInput struct {
	QuestionID string // required
	Answer     string // required
}

// AnswerOutput contains the result of the Answer operation.
type AnswerOutput struct {
	// Applied is false when the question had already been answered; the
	// call is then a no-op.
	Applied bool `json:"applied"`

	// MaterializedItemID is set when answering a task_clarification
	// question produced a new item.
	MaterializedItemID *string `json:"materialized_item_id,omitempty"`

	// UpdatedItemID is set when the answer corrected an existing item's
	// assignment.
	UpdatedItemID *string `json:"updated_item_id,omitempty"`
}

// Answer records the answer to a pending question and applies its side
// effects in one transaction. The pending -> answered transition fires
// exactly once: answering an already-answered question is a no-op, not
// an error.
//
// Side effects by type:
//   - task_clarification: a new item is materialized from the question
//     context plus the answer, assigned to the question's recorded
//     targets.
//   - domain_routing: when the answer names a known domain, the linked
//     item (if any) is reassigned, the routing confidence record is
//     updated, and the domain learns keywords from the original text.
func Answer(ctx context.Context, database *sql.DB, input AnswerInput) (*AnswerOutput, error) {
	if strings.TrimSpace(input.QuestionID) == "" {
		return nil, errors.NewInvalidRequest("question_id is required")
	}
	answer := strings.TrimSpace(input.Answer)
	if answer == "" {
		return nil, errors.NewInvalidRequest("answer is required")
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback()

	question, err := db.GetQuestion(tx, input.QuestionID)
	if err != nil {
		return nil, err
	}

	n, err := db.MarkAnswered(tx, question.ID, answer)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Already answered; the first answer stands.
		return &AnswerOutput{Applied: false}, nil
	}

	out := &AnswerOutput{Applied: true}

	switch question.Type {
	case item.QuestionTaskClarification:
		id, err := materializeItem(tx, question, answer)
		if err != nil {
			return nil, err
		}
		out.MaterializedItemID = &id
	case item.QuestionDomainRouting:
		updated, err := applyRoutingAnswer(tx, question, answer)
		if err != nil {
			return nil, err
		}
		out.UpdatedItemID = updated
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// materializeItem turns an answered clarification into a concrete item:
// the original context plus the user's answer, assigned to whatever the
// question suggested.
func materializeItem(tx db.DBTX, question *item.Question, answer string) (string, error) {
	text := answer
	if question.Context != nil && *question.Context != "" {
		sourceText := *question.Context
		// The context carries the suggestion banner appended at escalation
		// time; only the original text belongs in the item.
		if idx := strings.Index(sourceText, "\n\nSuggested:"); idx >= 0 {
			sourceText = sourceText[:idx]
		}
		text = sourceText + "\n\nClarification: " + answer
	}

	id, err := generateULID()
	if err != nil {
		return "", errors.NewInternal(err)
	}
	now := time.Now().Unix()
	source := "clarification"
	it := &item.Item{
		ID:        id,
		Text:      text,
		Status:    item.StatusOpen,
		Domain:    question.TargetDomain,
		ProjectID: question.TargetProjectID,
		Source:    &source,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.InsertItem(tx, it); err != nil {
		return "", err
	}
	return id, nil
}

// applyRoutingAnswer feeds a domain_routing answer back into the
// confidence store and, when the answer names a known domain, corrects
// the linked item. Answers that are not domain paths (free-text
// explanations) only close the question.
func applyRoutingAnswer(tx db.DBTX, question *item.Question, answer string) (*string, error) {
	chosen := item.Normalize(answer)
	if _, err := db.GetDomain(tx, chosen); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var sourceText string
	if question.Context != nil {
		sourceText = *question.Context
	}
	if idx := strings.Index(sourceText, "\n\nSuggested:"); idx >= 0 {
		sourceText = sourceText[:idx]
	}

	if sourceText != "" {
		signature := item.Signature(sourceText)
		if question.TargetDomain != nil && *question.TargetDomain != chosen {
			if err := db.RecordConfidence(tx, signature, *question.TargetDomain, false); err != nil {
				return nil, err
			}
		}
		if err := db.RecordConfidence(tx, signature, chosen, true); err != nil {
			return nil, err
		}
		d, err := db.GetDomain(tx, chosen)
		if err != nil {
			return nil, err
		}
		merged := item.MergeKeywords(d.Keywords, item.LearnableKeywords(sourceText))
		if err := db.SetDomainKeywords(tx, chosen, merged); err != nil {
			return nil, err
		}
	}

	if question.ItemID == nil {
		return nil, nil
	}
	if err := db.UpdateItemAssignment(tx, *question.ItemID, &chosen, nil); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return question.ItemID, nil
}
