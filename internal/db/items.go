package db

import (
	"database/sql"
	"time"

	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/item"
)

// InsertItem stores a new item.
func InsertItem(q DBTX, it *item.Item) error {
	query := `
		INSERT INTO items (id, text, status, domain, project_id, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.Exec(query,
		it.ID, it.Text, it.Status,
		toNullString(it.Domain), toNullString(it.ProjectID), toNullString(it.Source),
		it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetItem retrieves an item by ID.
func GetItem(q DBTX, id string) (*item.Item, error) {
	query := `
		SELECT id, text, status, domain, project_id, source, created_at, updated_at
		FROM items
		WHERE id = ?
	`
	it, err := scanItem(q.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("item", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return it, nil
}

// OpenItemsSince returns open items created on or after the cutoff,
// oldest first. This ordering makes the dedup tie-break (earliest
// created candidate wins) fall out of index position.
func OpenItemsSince(q DBTX, cutoff int64) ([]*item.Item, error) {
	query := `
		SELECT id, text, status, domain, project_id, source, created_at, updated_at
		FROM items
		WHERE status = ? AND created_at >= ?
		ORDER BY created_at ASC, id ASC
	`
	rows, err := q.Query(query, item.StatusOpen, cutoff)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var items []*item.Item
	for rows.Next() {
		it, err := scanItemRows(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return items, nil
}

// ListItems returns items filtered by optional status, domain and project.
func ListItems(q DBTX, status, domain, projectID string, limit, offset int) ([]*item.Item, error) {
	query := `
		SELECT id, text, status, domain, project_id, source, created_at, updated_at
		FROM items
		WHERE 1=1
	`
	var args []any
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	if domain != "" {
		query += " AND domain = ?"
		args = append(args, domain)
	}
	if projectID != "" {
		query += " AND project_id = ?"
		args = append(args, projectID)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var items []*item.Item
	for rows.Next() {
		it, err := scanItemRows(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return items, nil
}

// CountItems returns the number of items matching the same filters as
// ListItems.
func CountItems(q DBTX, status, domain, projectID string) (int, error) {
	query := "SELECT COUNT(*) FROM items WHERE 1=1"
	var args []any
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	if domain != "" {
		query += " AND domain = ?"
		args = append(args, domain)
	}
	if projectID != "" {
		query += " AND project_id = ?"
		args = append(args, projectID)
	}
	var n int
	if err := q.QueryRow(query, args...).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// UpdateItemStatus sets an item's lifecycle status.
func UpdateItemStatus(q DBTX, id, status string) error {
	result, err := q.Exec(
		"UPDATE items SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().Unix(), id,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireRow(result, "item", id)
}

// UpdateItemAssignment sets an item's domain and project.
func UpdateItemAssignment(q DBTX, id string, domain, projectID *string) error {
	result, err := q.Exec(
		"UPDATE items SET domain = ?, project_id = ?, updated_at = ? WHERE id = ?",
		toNullString(domain), toNullString(projectID), time.Now().Unix(), id,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireRow(result, "item", id)
}

// MoveItemsToProject reassigns every item under fromProjectID to
// toProjectID and returns the number of items moved.
func MoveItemsToProject(q DBTX, fromProjectID, toProjectID string) (int, error) {
	result, err := q.Exec(
		"UPDATE items SET project_id = ?, updated_at = ? WHERE project_id = ?",
		toProjectID, time.Now().Unix(), fromProjectID,
	)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

// CountItemsByProject returns the number of items referencing a project.
func CountItemsByProject(q DBTX, projectID string) (int, error) {
	var n int
	err := q.QueryRow("SELECT COUNT(*) FROM items WHERE project_id = ?", projectID).Scan(&n)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

func scanItem(row *sql.Row) (*item.Item, error) {
	var it item.Item
	var domain, projectID, source sql.NullString
	err := row.Scan(&it.ID, &it.Text, &it.Status, &domain, &projectID, &source, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	it.Domain = fromNullString(domain)
	it.ProjectID = fromNullString(projectID)
	it.Source = fromNullString(source)
	return &it, nil
}

func scanItemRows(rows *sql.Rows) (*item.Item, error) {
	var it item.Item
	var domain, projectID, source sql.NullString
	err := rows.Scan(&it.ID, &it.Text, &it.Status, &domain, &projectID, &source, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	it.Domain = fromNullString(domain)
	it.ProjectID = fromNullString(projectID)
	it.Source = fromNullString(source)
	return &it, nil
}

// requireRow converts a zero-row update into a not-found error.
func requireRow(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if n == 0 {
		return errors.NewNotFound(kind, id)
	}
	return nil
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
