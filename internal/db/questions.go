package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/item"
)

// InsertQuestion stores a new clarification question.
func InsertQuestion(q DBTX, question *item.Question) error {
	var optionsJSON sql.NullString
	if len(question.Options) > 0 {
		data, err := json.Marshal(question.Options)
		if err != nil {
			return errors.NewInternal(err)
		}
		optionsJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err := q.Exec(`
		INSERT INTO questions (
			id, question_type, question_text, context, options_json,
			status, answer, target_domain, target_project_id, item_id,
			confidence, created_at, answered_at
		) VALUES (?, ?, ?, ?, ?, ?, NULL, ?, ?, ?, ?, ?, NULL)
	`,
		question.ID, question.Type, question.Text,
		toNullString(question.Context), optionsJSON,
		question.Status,
		toNullString(question.TargetDomain), toNullString(question.TargetProjectID),
		toNullString(question.ItemID),
		question.Confidence, question.CreatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetQuestion retrieves a question by ID.
func GetQuestion(q DBTX, id string) (*item.Question, error) {
	row := q.QueryRow(`
		SELECT id, question_type, question_text, context, options_json,
			status, answer, target_domain, target_project_id, item_id,
			confidence, created_at, answered_at
		FROM questions
		WHERE id = ?
	`, id)

	question, err := scanQuestion(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("question", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return question, nil
}

// QuestionsByStatus returns questions with the given status, oldest first.
// An empty status returns all questions.
func QuestionsByStatus(q DBTX, status string, limit, offset int) ([]*item.Question, error) {
	query := `
		SELECT id, question_type, question_text, context, options_json,
			status, answer, target_domain, target_project_id, item_id,
			confidence, created_at, answered_at
		FROM questions
	`
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var questions []*item.Question
	for rows.Next() {
		question, err := scanQuestionRows(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return questions, nil
}

// CountQuestions returns the number of questions with the given status.
// An empty status counts all questions.
func CountQuestions(q DBTX, status string) (int, error) {
	query := "SELECT COUNT(*) FROM questions"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	var n int
	if err := q.QueryRow(query, args...).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// MarkAnswered records the answer and flips status to answered, but
// only for a still-pending question. Returns the number of rows
// changed: 0 means the question was already answered, which callers
// treat as the idempotent no-op.
func MarkAnswered(q DBTX, id, answer string) (int, error) {
	result, err := q.Exec(`
		UPDATE questions
		SET answer = ?, status = ?, answered_at = ?
		WHERE id = ? AND status = ?
	`, answer, item.QuestionAnswered, time.Now().Unix(), id, item.QuestionPending)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

func scanQuestion(row *sql.Row) (*item.Question, error) {
	var question item.Question
	var context, optionsJSON, answer, targetDomain, targetProjectID, itemID sql.NullString
	var answeredAt sql.NullInt64
	err := row.Scan(
		&question.ID, &question.Type, &question.Text, &context, &optionsJSON,
		&question.Status, &answer, &targetDomain, &targetProjectID, &itemID,
		&question.Confidence, &question.CreatedAt, &answeredAt,
	)
	if err != nil {
		return nil, err
	}
	return hydrateQuestion(&question, context, optionsJSON, answer, targetDomain, targetProjectID, itemID, answeredAt)
}

func scanQuestionRows(rows *sql.Rows) (*item.Question, error) {
	var question item.Question
	var context, optionsJSON, answer, targetDomain, targetProjectID, itemID sql.NullString
	var answeredAt sql.NullInt64
	err := rows.Scan(
		&question.ID, &question.Type, &question.Text, &context, &optionsJSON,
		&question.Status, &answer, &targetDomain, &targetProjectID, &itemID,
		&question.Confidence, &question.CreatedAt, &answeredAt,
	)
	if err != nil {
		return nil, err
	}
	return hydrateQuestion(&question, context, optionsJSON, answer, targetDomain, targetProjectID, itemID, answeredAt)
}

func hydrateQuestion(
	question *item.Question,
	context, optionsJSON, answer, targetDomain, targetProjectID, itemID sql.NullString,
	answeredAt sql.NullInt64,
) (*item.Question, error) {
	question.Context = fromNullString(context)
	question.Answer = fromNullString(answer)
	question.TargetDomain = fromNullString(targetDomain)
	question.TargetProjectID = fromNullString(targetProjectID)
	question.ItemID = fromNullString(itemID)
	if answeredAt.Valid {
		question.AnsweredAt = &answeredAt.Int64
	}
	if optionsJSON.Valid && optionsJSON.String != "" {
		if err := json.Unmarshal([]byte(optionsJSON.String), &question.Options); err != nil {
			return nil, err
		}
	}
	return question, nil
}
