package ops

import (
	"strings"
	"time"

	"github.com/hpungsan/sift/internal/db"
	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/item"
)

// CreateProjectInput contains parameters for the CreateProject operation.
type CreateProjectInput struct {
	Name        string // required
	Domain      string // required, must exist
	Description *string
	Keywords    []string
}

// CreateProjectOutput contains the result of the CreateProject operation.
type CreateProjectOutput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateProject registers a new project under a domain. Project names
// are unique per domain after normalization; a collision with an active
// project is a conflict.
func CreateProject(q db.DBTX, input CreateProjectInput) (*CreateProjectOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}
	domain := item.Normalize(input.Domain)
	if domain == "" {
		return nil, errors.NewInvalidRequest("domain is required")
	}
	if _, err := db.GetDomain(q, domain); err != nil {
		return nil, err
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	p := &item.ProjectProfile{
		ID:          id,
		Name:        name,
		NameNorm:    item.Normalize(name),
		Domain:      domain,
		Description: input.Description,
		Status:      "active",
		Keywords:    normalizeKeywords(input.Keywords),
		CreatedAt:   time.Now().Unix(),
	}
	if err := db.InsertProject(q, p); err != nil {
		return nil, err
	}
	return &CreateProjectOutput{ID: id, Name: name}, nil
}

// ListProjectsInput contains parameters for the ListProjects operation.
type ListProjectsInput struct {
	Domain string // optional filter
}

// ListProjectsOutput contains the result of the ListProjects operation.
type ListProjectsOutput struct {
	Projects []*item.ProjectProfile `json:"projects"`
}

// ListProjects returns active projects, optionally filtered by domain.
func ListProjects(q db.DBTX, input ListProjectsInput) (*ListProjectsOutput, error) {
	var (
		projects []*item.ProjectProfile
		err      error
	)
	if input.Domain != "" {
		projects, err = db.ProjectsForDomain(q, item.Normalize(input.Domain))
	} else {
		projects, err = db.AllProjects(q)
	}
	if err != nil {
		return nil, err
	}
	return &ListProjectsOutput{Projects: projects}, nil
}

// LearnKeywordsInput contains parameters for the LearnKeywords operation.
// Exactly one of Domain or ProjectID selects the profile to teach.
type LearnKeywordsInput struct {
	Domain    string
	ProjectID string
	Text      string // required: source text to extract keywords from
}

// LearnKeywordsOutput contains the result of the LearnKeywords operation.
type LearnKeywordsOutput struct {
	Learned  []string `json:"learned"`
	Keywords []string `json:"keywords"`
}

// LearnKeywords extracts learnable keywords from text and unions them
// into a domain or project keyword set.
func LearnKeywords(q db.DBTX, input LearnKeywordsInput) (*LearnKeywordsOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, errors.NewInvalidRequest("text is required")
	}
	hasDomain := input.Domain != ""
	hasProject := input.ProjectID != ""
	if hasDomain == hasProject {
		return nil, errors.NewInvalidRequest("specify exactly one of domain or project_id")
	}

	learned := item.LearnableKeywords(input.Text)

	var merged []string
	if hasDomain {
		d, err := db.GetDomain(q, item.Normalize(input.Domain))
		if err != nil {
			return nil, err
		}
		merged = item.MergeKeywords(d.Keywords, learned)
		if err := db.SetDomainKeywords(q, d.Path, merged); err != nil {
			return nil, err
		}
	} else {
		p, err := db.GetProject(q, input.ProjectID)
		if err != nil {
			return nil, err
		}
		merged = item.MergeKeywords(p.Keywords, learned)
		if err := db.SetProjectKeywords(q, p.ID, merged); err != nil {
			return nil, err
		}
	}

	return &LearnKeywordsOutput{Learned: learned, Keywords: merged}, nil
}
