package web

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/hpungsan/sift/internal/config"
	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/item"
	"github.com/hpungsan/sift/internal/ops"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

// HandleQuestions handles GET /questions — the clarification queue.
func (h *Handlers) HandleQuestions(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = item.QuestionPending
	}

	result, err := ops.ListQuestions(h.db, ops.ListQuestionsInput{
		Status: status,
		Limit:  parseIntParam(r, "limit", 20),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "questions", QuestionsPageData{
		PageData: PageData{
			Title:   "Questions",
			Version: h.renderer.version,
			Nav:     "questions",
		},
		Questions:  result.Questions,
		Pagination: result.Pagination,
		Status:     status,
		Answered:   status == item.QuestionAnswered,
	})
}

// HandleAnswer handles POST /questions/{id}/answer — resolve a pending
// question with a free-text or option answer.
func (h *Handlers) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("question ID is required"))
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	// The answer form submits both an option button and a free-text field
	// under the same name; the last non-empty value wins.
	var answer string
	for _, v := range r.Form["answer"] {
		if s := strings.TrimSpace(v); s != "" {
			answer = s
		}
	}
	if answer == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("answer is required"))
		return
	}

	result, err := ops.Answer(r.Context(), h.db, ops.AnswerInput{
		QuestionID: id,
		Answer:     answer,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// HTMX request: redirect via HX-Redirect header
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/questions")
		w.WriteHeader(http.StatusOK)
		return
	}

	// JSON request
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, result)
		return
	}

	// Default: redirect back to the queue
	http.Redirect(w, r, "/questions", http.StatusFound)
}

// HandleItems handles GET /items — list tracked items with filters.
func (h *Handlers) HandleItems(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	domain := r.URL.Query().Get("domain")

	result, err := ops.ListItems(h.db, ops.ListItemsInput{
		Status: status,
		Domain: domain,
		Limit:  parseIntParam(r, "limit", 20),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// Domain list feeds the filter dropdown.
	domains, err := ops.ListDomains(h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "items", ItemsPageData{
		PageData: PageData{
			Title:   "Items",
			Version: h.renderer.version,
			Nav:     "items",
		},
		Items:      result.Items,
		Pagination: result.Pagination,
		Status:     status,
		Domain:     domain,
		Domains:    domains.Domains,
	})
}

// HandleDomains handles GET /domains — domain and project overview.
func (h *Handlers) HandleDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := ops.ListDomains(h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	overviews := make([]DomainOverview, 0, len(domains.Domains))
	for _, d := range domains.Domains {
		projects, err := ops.ListProjects(h.db, ops.ListProjectsInput{Domain: d.Path})
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		open, err := ops.ListItems(h.db, ops.ListItemsInput{
			Status: item.StatusOpen,
			Domain: d.Path,
			Limit:  1,
		})
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		overviews = append(overviews, DomainOverview{
			Domain:    d,
			Projects:  projects.Projects,
			OpenItems: open.Pagination.Total,
		})
	}

	h.renderer.renderPage(w, r, "domains", DomainsPageData{
		PageData: PageData{
			Title:   "Domains",
			Version: h.renderer.version,
			Nav:     "domains",
		},
		Overviews: overviews,
	})
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
