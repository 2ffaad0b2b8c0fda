package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/sift/internal/db"
	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/item"
)

// Consolidation modes.
const (
	ConsolidateMerge  = "merge"
	ConsolidateRename = "rename"
)

// ConsolidateInput contains parameters for the Consolidate operation.
type ConsolidateInput struct {
	Domain        string   // required
	Variants      []string // names of the duplicate projects to fold in
	CanonicalName string   // required: the surviving name
	Mode          string   // merge (default) | rename
}

// ConsolidateOutput contains the result of the Consolidate operation.
type ConsolidateOutput struct {
	TargetProjectID string   `json:"target_project_id"`
	TargetName      string   `json:"target_name"`
	ItemsMoved      int      `json:"items_moved"`
	Removed         []string `json:"removed,omitempty"`
}

// Consolidate folds duplicate project name variants into one canonical
// project. In merge mode every variant's items move to the canonical
// project before the variant rows are deleted, all inside one
// transaction, so no item can be orphaned. Rename mode only changes the
// surviving project's name.
func Consolidate(ctx context.Context, database *sql.DB, input ConsolidateInput) (*ConsolidateOutput, error) {
	domain := item.Normalize(input.Domain)
	if domain == "" {
		return nil, errors.NewInvalidRequest("domain is required")
	}
	canonical := strings.TrimSpace(input.CanonicalName)
	if canonical == "" {
		return nil, errors.NewInvalidRequest("canonical_name is required")
	}
	mode := input.Mode
	if mode == "" {
		mode = ConsolidateMerge
	}
	if mode != ConsolidateMerge && mode != ConsolidateRename {
		return nil, errors.NewInvalidRequest("mode must be one of: merge, rename")
	}
	if len(input.Variants) == 0 {
		return nil, errors.NewInvalidRequest("variants must not be empty")
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback()

	if _, err := db.GetDomain(tx, domain); err != nil {
		return nil, err
	}

	projects, err := db.ProjectsForDomain(tx, domain)
	if err != nil {
		return nil, err
	}
	byNorm := make(map[string]*item.ProjectProfile, len(projects))
	for _, p := range projects {
		byNorm[p.NameNorm] = p
	}

	canonicalNorm := item.Normalize(canonical)
	target := byNorm[canonicalNorm]

	var variants []*item.ProjectProfile
	for _, name := range input.Variants {
		norm := item.Normalize(name)
		if norm == "" || norm == canonicalNorm {
			continue
		}
		p, ok := byNorm[norm]
		if !ok {
			return nil, errors.NewNotFound("project", name)
		}
		variants = append(variants, p)
	}
	if target == nil && len(variants) == 0 {
		return nil, errors.NewNotFound("project", canonical)
	}

	out := &ConsolidateOutput{TargetName: canonical}

	if mode == ConsolidateRename {
		// Rename the first variant to the canonical name; nothing moves.
		if target != nil {
			return nil, errors.NewConflict("project already exists: " + canonical)
		}
		p := variants[0]
		if err := db.RenameProject(tx, p.ID, canonical); err != nil {
			return nil, err
		}
		out.TargetProjectID = p.ID
		if err := tx.Commit(); err != nil {
			return nil, errors.NewInternal(err)
		}
		return out, nil
	}

	// Merge: pick the survivor, then move items off each variant before
	// its row is deleted.
	if target == nil {
		target = variants[0]
		if err := db.RenameProject(tx, target.ID, canonical); err != nil {
			return nil, err
		}
		variants = variants[1:]
	}
	out.TargetProjectID = target.ID

	keywords := target.Keywords
	for _, p := range variants {
		moved, err := db.MoveItemsToProject(tx, p.ID, target.ID)
		if err != nil {
			return nil, err
		}
		out.ItemsMoved += moved
		keywords = item.MergeKeywords(keywords, p.Keywords)
		if err := db.DeleteProject(tx, p.ID); err != nil {
			return nil, err
		}
		out.Removed = append(out.Removed, p.Name)
	}
	if len(keywords) > len(target.Keywords) {
		if err := db.SetProjectKeywords(tx, target.ID, keywords); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}
