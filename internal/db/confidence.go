package db

import (
	"database/sql"
	"time"

	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/item"
)

// GetConfidence retrieves the confidence record for a
// (signature, target) pair. Returns a zero-count record when no
// feedback has been recorded yet, so callers always get the 0.5 prior.
func GetConfidence(q DBTX, signature, target string) (*item.ConfidenceRecord, error) {
	row := q.QueryRow(`
		SELECT signature, target, correct_count, incorrect_count, updated_at
		FROM routing_confidence
		WHERE signature = ? AND target = ?
	`, signature, target)

	var r item.ConfidenceRecord
	err := row.Scan(&r.Signature, &r.Target, &r.CorrectCount, &r.IncorrectCount, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return &item.ConfidenceRecord{Signature: signature, Target: target}, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &r, nil
}

// RecordConfidence increments the correct or incorrect count for a
// (signature, target) pair. Counts only ever grow.
func RecordConfidence(q DBTX, signature, target string, correct bool) error {
	correctDelta, incorrectDelta := 0, 1
	if correct {
		correctDelta, incorrectDelta = 1, 0
	}

	_, err := q.Exec(`
		INSERT INTO routing_confidence (signature, target, correct_count, incorrect_count, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(signature, target) DO UPDATE SET
			correct_count = correct_count + excluded.correct_count,
			incorrect_count = incorrect_count + excluded.incorrect_count,
			updated_at = excluded.updated_at
	`, signature, target, correctDelta, incorrectDelta, time.Now().Unix())
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
