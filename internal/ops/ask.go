package ops

import (
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/sift/internal/db"
	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/item"
)

// AskInput contains parameters for the Ask operation: an explicit
// request to queue a question for the user.
type AskInput struct {
	Type    string // one of the question type constants
	Text    string // required: the question itself
	Context string
	Options []string
}

// AskOutput contains the result of the Ask operation.
type AskOutput struct {
	QuestionID string `json:"question_id"`
}

// Ask queues a question of any type. Routing escalation uses the
// specialized helpers below; this is the general entry point for
// entity and priority questions.
func Ask(q db.DBTX, input AskInput) (*AskOutput, error) {
	switch input.Type {
	case item.QuestionDomainRouting, item.QuestionTaskClarification,
		item.QuestionEntity, item.QuestionPriority:
	default:
		return nil, errors.NewInvalidRequest("unknown question type: " + input.Type)
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, errors.NewInvalidRequest("text is required")
	}

	question := &item.Question{
		Type:    input.Type,
		Text:    input.Text,
		Options: input.Options,
	}
	if input.Context != "" {
		question.Context = &input.Context
	}
	id, err := insertQuestion(q, question)
	if err != nil {
		return nil, err
	}
	return &AskOutput{QuestionID: id}, nil
}

// AskEntity queues a "who or what is X" question.
func AskEntity(q db.DBTX, name, context string) (*AskOutput, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}
	return Ask(q, AskInput{
		Type:    item.QuestionEntity,
		Text:    fmt.Sprintf("Who or what is %q?", name),
		Context: context,
	})
}

// AskPriority queues a priority question for an item's text.
func AskPriority(q db.DBTX, taskText string) (*AskOutput, error) {
	if strings.TrimSpace(taskText) == "" {
		return nil, errors.NewInvalidRequest("text is required")
	}
	return Ask(q, AskInput{
		Type:    item.QuestionPriority,
		Text:    fmt.Sprintf("How urgent is: %q?", truncate(taskText, 120)),
		Context: taskText,
		Options: []string{"high", "medium", "low"},
	})
}

// askRouting queues the escalation question for a low-confidence
// decision. Keyword evidence makes it a domain_routing question with
// the domain list as options; no evidence at all means the text itself
// is unclear, which is a task_clarification.
func askRouting(q db.DBTX, text string, decision *item.Decision, keywordSignal bool, domains []string, itemID *string) (string, error) {
	context := fmt.Sprintf("%s\n\nSuggested: %s (confidence: %.0f%%), below the routing confidence floor",
		text, decision.Domain, decision.Confidence*100)

	question := &item.Question{
		Context:         &context,
		TargetDomain:    &decision.Domain,
		TargetProjectID: decision.ProjectID,
		ItemID:          itemID,
		Confidence:      decision.Confidence,
	}

	if keywordSignal {
		question.Type = item.QuestionDomainRouting
		question.Text = fmt.Sprintf("Where does this belong: %q?", truncate(text, 120))
		question.Options = domains
	} else {
		question.Type = item.QuestionTaskClarification
		question.Text = fmt.Sprintf("What should happen with: %q?", truncate(text, 120))
	}

	return insertQuestion(q, question)
}

func insertQuestion(q db.DBTX, question *item.Question) (string, error) {
	id, err := generateULID()
	if err != nil {
		return "", errors.NewInternal(err)
	}
	question.ID = id
	question.Status = item.QuestionPending
	question.CreatedAt = time.Now().Unix()
	if err := db.InsertQuestion(q, question); err != nil {
		return "", err
	}
	return id, nil
}
