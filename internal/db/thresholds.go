package db

import (
	"database/sql"
	"time"

	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/item"
)

// SeedThreshold inserts a threshold default if the name is not present.
// Existing learned values are never overwritten.
func SeedThreshold(q DBTX, name string, value float64) error {
	_, err := q.Exec(`
		INSERT OR IGNORE INTO learned_thresholds (name, value, confidence, adjustment_count, updated_at)
		VALUES (?, ?, 0.5, 0, ?)
	`, name, value, time.Now().Unix())
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetThreshold retrieves a threshold by name.
func GetThreshold(q DBTX, name string) (*item.Threshold, error) {
	row := q.QueryRow(`
		SELECT name, value, confidence, adjustment_count, updated_at
		FROM learned_thresholds
		WHERE name = ?
	`, name)

	var t item.Threshold
	err := row.Scan(&t.Name, &t.Value, &t.Confidence, &t.AdjustmentCount, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("threshold", name)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &t, nil
}

// AllThresholds returns every stored threshold, by name.
func AllThresholds(q DBTX) ([]*item.Threshold, error) {
	rows, err := q.Query(`
		SELECT name, value, confidence, adjustment_count, updated_at
		FROM learned_thresholds
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var thresholds []*item.Threshold
	for rows.Next() {
		var t item.Threshold
		if err := rows.Scan(&t.Name, &t.Value, &t.Confidence, &t.AdjustmentCount, &t.UpdatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		thresholds = append(thresholds, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return thresholds, nil
}

// UpdateThreshold stores a new value and meta-confidence and bumps the
// adjustment count.
func UpdateThreshold(q DBTX, name string, value, confidence float64) error {
	result, err := q.Exec(`
		UPDATE learned_thresholds
		SET value = ?, confidence = ?, adjustment_count = adjustment_count + 1, updated_at = ?
		WHERE name = ?
	`, value, confidence, time.Now().Unix(), name)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireRow(result, "threshold", name)
}
