package ops

import (
	"github.com/hpungsan/sift/internal/db"
	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/item"
)

// ListQuestionsInput contains parameters for the ListQuestions operation.
type ListQuestionsInput struct {
	Status string // default: pending
	Limit  int
	Offset int
}

// ListQuestionsOutput contains the result of the ListQuestions operation.
type ListQuestionsOutput struct {
	Questions  []*item.Question `json:"questions"`
	Pagination Pagination       `json:"pagination"`
}

// ListQuestions returns questions by status, pending first by default,
// oldest first.
func ListQuestions(q db.DBTX, input ListQuestionsInput) (*ListQuestionsOutput, error) {
	status := input.Status
	if status == "" {
		status = item.QuestionPending
	}
	if status != item.QuestionPending && status != item.QuestionAnswered {
		return nil, errors.NewInvalidRequest("status must be one of: pending, answered")
	}

	limit := clampLimit(input.Limit)
	offset := max(input.Offset, 0)

	questions, err := db.QuestionsByStatus(q, status, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := db.CountQuestions(q, status)
	if err != nil {
		return nil, err
	}
	if questions == nil {
		questions = []*item.Question{}
	}

	return &ListQuestionsOutput{
		Questions: questions,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(questions) < total,
			Total:   total,
		},
	}, nil
}

// GetQuestion returns one question by ID.
func GetQuestion(q db.DBTX, id string) (*item.Question, error) {
	if id == "" {
		return nil, errors.NewInvalidRequest("question_id is required")
	}
	return db.GetQuestion(q, id)
}
