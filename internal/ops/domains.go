package ops

import (
	"strings"
	"time"

	"github.com/hpungsan/sift/internal/db"
	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/item"
)

// defaultDomains are seeded when the registry is empty so routing always
// has at least one target.
var defaultDomains = []struct {
	Path    string
	Name    string
	Percent float64
}{
	{"personal", "Personal", 40},
	{"learning", "Learning", 30},
	{"admin", "Admin", 30},
}

// EnsureDefaultDomains seeds the standard domain set. Existing rows are
// left untouched, so calling it repeatedly is safe.
func EnsureDefaultDomains(q db.DBTX) error {
	now := time.Now().Unix()
	for _, d := range defaultDomains {
		err := db.InsertDomain(q, &item.DomainProfile{
			Path:          d.Path,
			DisplayName:   d.Name,
			TargetPercent: d.Percent,
			Active:        true,
			CreatedAt:     now,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// CreateDomainInput contains parameters for the CreateDomain operation.
type CreateDomainInput struct {
	Path          string // required, e.g. "work/acme"
	DisplayName   string // default: derived from path
	TargetPercent float64
	Keywords      []string
}

// CreateDomainOutput contains the result of the CreateDomain operation.
type CreateDomainOutput struct {
	Path string `json:"path"`
}

// CreateDomain registers a new routing domain.
func CreateDomain(q db.DBTX, input CreateDomainInput) (*CreateDomainOutput, error) {
	path := item.Normalize(input.Path)
	if path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if strings.Contains(path, " ") {
		return nil, errors.NewInvalidRequest("path must not contain whitespace")
	}
	if _, err := db.GetDomain(q, path); err == nil {
		return nil, errors.NewConflict("domain already exists: " + path)
	} else if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	display := strings.TrimSpace(input.DisplayName)
	if display == "" {
		display = path
	}

	err := db.InsertDomain(q, &item.DomainProfile{
		Path:          path,
		DisplayName:   display,
		TargetPercent: input.TargetPercent,
		Keywords:      normalizeKeywords(input.Keywords),
		Active:        true,
		CreatedAt:     time.Now().Unix(),
	})
	if err != nil {
		return nil, err
	}
	return &CreateDomainOutput{Path: path}, nil
}

// ListDomainsOutput contains the result of the ListDomains operation.
type ListDomainsOutput struct {
	Domains []*item.DomainProfile `json:"domains"`
}

// ListDomains returns active domains ordered by target percent.
func ListDomains(q db.DBTX) (*ListDomainsOutput, error) {
	domains, err := db.ActiveDomains(q)
	if err != nil {
		return nil, err
	}
	return &ListDomainsOutput{Domains: domains}, nil
}

// activeDomainsSeeded loads active domains, seeding the defaults first
// when the registry is empty.
func activeDomainsSeeded(q db.DBTX) ([]*item.DomainProfile, error) {
	domains, err := db.ActiveDomains(q)
	if err != nil {
		return nil, err
	}
	if len(domains) > 0 {
		return domains, nil
	}
	if err := EnsureDefaultDomains(q); err != nil {
		return nil, err
	}
	return db.ActiveDomains(q)
}

func normalizeKeywords(keywords []string) []string {
	return item.MergeKeywords(nil, keywords)
}
