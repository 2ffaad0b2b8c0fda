package db

import (
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/item"
)

// InsertDomain stores a new domain profile. Existing paths are ignored
// so onboarding can be re-run safely.
func InsertDomain(q DBTX, d *item.DomainProfile) error {
	keywordsJSON, err := marshalKeywords(d.Keywords)
	if err != nil {
		return err
	}
	_, err = q.Exec(`
		INSERT OR IGNORE INTO domains (path, display_name, target_percent, keywords_json, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, d.Path, d.DisplayName, d.TargetPercent, keywordsJSON, boolToInt(d.Active), d.CreatedAt)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetDomain retrieves a domain profile by path.
func GetDomain(q DBTX, path string) (*item.DomainProfile, error) {
	row := q.QueryRow(`
		SELECT path, display_name, target_percent, keywords_json, active, created_at
		FROM domains
		WHERE path = ?
	`, path)

	d, err := scanDomain(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("domain", path)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return d, nil
}

// ActiveDomains returns all active domains, highest target allocation first.
func ActiveDomains(q DBTX) ([]*item.DomainProfile, error) {
	rows, err := q.Query(`
		SELECT path, display_name, target_percent, keywords_json, active, created_at
		FROM domains
		WHERE active = 1
		ORDER BY target_percent DESC, path ASC
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var domains []*item.DomainProfile
	for rows.Next() {
		var d item.DomainProfile
		var keywordsJSON sql.NullString
		var active int
		if err := rows.Scan(&d.Path, &d.DisplayName, &d.TargetPercent, &keywordsJSON, &active, &d.CreatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		d.Active = active != 0
		d.Keywords, err = unmarshalKeywords(keywordsJSON)
		if err != nil {
			return nil, err
		}
		domains = append(domains, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return domains, nil
}

// SetDomainKeywords replaces a domain's learned keyword set.
func SetDomainKeywords(q DBTX, path string, keywords []string) error {
	keywordsJSON, err := marshalKeywords(keywords)
	if err != nil {
		return err
	}
	result, err := q.Exec("UPDATE domains SET keywords_json = ? WHERE path = ?", keywordsJSON, path)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireRow(result, "domain", path)
}

// InsertProject stores a new project profile.
func InsertProject(q DBTX, p *item.ProjectProfile) error {
	keywordsJSON, err := marshalKeywords(p.Keywords)
	if err != nil {
		return err
	}
	_, err = q.Exec(`
		INSERT INTO projects (id, name, name_norm, domain, description, status, keywords_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.NameNorm, p.Domain, toNullString(p.Description), p.Status, keywordsJSON, p.CreatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewConflict("project already exists in domain: " + p.Name)
		}
		return errors.NewInternal(err)
	}
	return nil
}

// GetProject retrieves a project by ID.
func GetProject(q DBTX, id string) (*item.ProjectProfile, error) {
	row := q.QueryRow(`
		SELECT id, name, name_norm, domain, description, status, keywords_json, created_at
		FROM projects
		WHERE id = ?
	`, id)

	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("project", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return p, nil
}

// ProjectsForDomain returns the active projects under a domain.
func ProjectsForDomain(q DBTX, domain string) ([]*item.ProjectProfile, error) {
	rows, err := q.Query(`
		SELECT id, name, name_norm, domain, description, status, keywords_json, created_at
		FROM projects
		WHERE domain = ? AND status = 'active'
		ORDER BY name_norm ASC
	`, domain)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()
	return collectProjects(rows)
}

// AllProjects returns every active project grouped by domain then name.
func AllProjects(q DBTX) ([]*item.ProjectProfile, error) {
	rows, err := q.Query(`
		SELECT id, name, name_norm, domain, description, status, keywords_json, created_at
		FROM projects
		WHERE status = 'active'
		ORDER BY domain ASC, name_norm ASC
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()
	return collectProjects(rows)
}

// RenameProject changes a project's display and normalized name.
func RenameProject(q DBTX, id, name string) error {
	result, err := q.Exec(
		"UPDATE projects SET name = ?, name_norm = ? WHERE id = ?",
		name, item.Normalize(name), id,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewConflict("project name already taken: " + name)
		}
		return errors.NewInternal(err)
	}
	return requireRow(result, "project", id)
}

// SetProjectKeywords replaces a project's learned keyword set.
func SetProjectKeywords(q DBTX, id string, keywords []string) error {
	keywordsJSON, err := marshalKeywords(keywords)
	if err != nil {
		return err
	}
	result, err := q.Exec("UPDATE projects SET keywords_json = ? WHERE id = ?", keywordsJSON, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireRow(result, "project", id)
}

// DeleteProject removes a project row. Callers must reassign items
// first; consolidation runs both steps in one transaction.
func DeleteProject(q DBTX, id string) error {
	result, err := q.Exec("DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireRow(result, "project", id)
}

func collectProjects(rows *sql.Rows) ([]*item.ProjectProfile, error) {
	var projects []*item.ProjectProfile
	for rows.Next() {
		var p item.ProjectProfile
		var description, keywordsJSON sql.NullString
		err := rows.Scan(&p.ID, &p.Name, &p.NameNorm, &p.Domain, &description, &p.Status, &keywordsJSON, &p.CreatedAt)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		p.Description = fromNullString(description)
		p.Keywords, err = unmarshalKeywords(keywordsJSON)
		if err != nil {
			return nil, err
		}
		projects = append(projects, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return projects, nil
}

func scanDomain(row *sql.Row) (*item.DomainProfile, error) {
	var d item.DomainProfile
	var keywordsJSON sql.NullString
	var active int
	err := row.Scan(&d.Path, &d.DisplayName, &d.TargetPercent, &keywordsJSON, &active, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	d.Active = active != 0
	d.Keywords, err = unmarshalKeywords(keywordsJSON)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanProject(row *sql.Row) (*item.ProjectProfile, error) {
	var p item.ProjectProfile
	var description, keywordsJSON sql.NullString
	err := row.Scan(&p.ID, &p.Name, &p.NameNorm, &p.Domain, &description, &p.Status, &keywordsJSON, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Description = fromNullString(description)
	p.Keywords, err = unmarshalKeywords(keywordsJSON)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func marshalKeywords(keywords []string) (sql.NullString, error) {
	if len(keywords) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(keywords)
	if err != nil {
		return sql.NullString{}, errors.NewInternal(err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalKeywords(ns sql.NullString) ([]string, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var keywords []string
	if err := json.Unmarshal([]byte(ns.String), &keywords); err != nil {
		return nil, errors.NewInternal(err)
	}
	return keywords, nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
