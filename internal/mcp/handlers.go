package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/sift/internal/config"
	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db     *sql.DB
	cfg    *config.Config
	router *ops.Router
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config, router *ops.Router) *Handlers {
	return &Handlers{db: db, cfg: cfg, router: router}
}

// Request types for each tool

// RouteRequest represents the arguments for route.
type RouteRequest struct {
	Text       string `json:"text"`
	DomainHint string `json:"domain_hint,omitempty"`
	NoClarify  bool   `json:"no_clarify,omitempty"`
}

// IngestRequest represents the arguments for ingest.
type IngestRequest struct {
	Text       string `json:"text"`
	Source     string `json:"source,omitempty"`
	DomainHint string `json:"domain_hint,omitempty"`
	SkipDedupe bool   `json:"skip_dedupe,omitempty"`
	NoClarify  bool   `json:"no_clarify,omitempty"`
}

// DedupeRequest represents the arguments for dedupe.
type DedupeRequest struct {
	Text string `json:"text"`
}

// AskRequest represents the arguments for ask.
type AskRequest struct {
	Type    string   `json:"type"`
	Text    string   `json:"text"`
	Context string   `json:"context,omitempty"`
	Options []string `json:"options,omitempty"`
}

// AnswerRequest represents the arguments for answer.
type AnswerRequest struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// QuestionsRequest represents the arguments for questions.
type QuestionsRequest struct {
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// AdjustThresholdRequest represents the arguments for adjust_threshold.
type AdjustThresholdRequest struct {
	Name     string `json:"name"`
	Feedback string `json:"feedback"`
}

// ThresholdsRequest represents the arguments for thresholds.
type ThresholdsRequest struct {
	Name string `json:"name,omitempty"`
}

// FeedbackRequest represents the arguments for feedback.
type FeedbackRequest struct {
	ItemID    string `json:"item_id"`
	Domain    string `json:"domain"`
	ProjectID string `json:"project_id,omitempty"`
}

// ConsolidateRequest represents the arguments for consolidate.
type ConsolidateRequest struct {
	Domain        string   `json:"domain"`
	Variants      []string `json:"variants"`
	CanonicalName string   `json:"canonical_name"`
	Mode          string   `json:"mode,omitempty"`
}

// CreateDomainRequest represents the arguments for create_domain.
type CreateDomainRequest struct {
	Path          string   `json:"path"`
	DisplayName   string   `json:"display_name,omitempty"`
	TargetPercent float64  `json:"target_percent,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
}

// ProjectsRequest represents the arguments for projects.
type ProjectsRequest struct {
	Domain string `json:"domain,omitempty"`
}

// CreateProjectRequest represents the arguments for create_project.
type CreateProjectRequest struct {
	Name        string   `json:"name"`
	Domain      string   `json:"domain"`
	Description *string  `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// LearnKeywordsRequest represents the arguments for learn_keywords.
type LearnKeywordsRequest struct {
	Domain    string `json:"domain,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
	Text      string `json:"text"`
}

// ItemsRequest represents the arguments for items.
type ItemsRequest struct {
	Status    string `json:"status,omitempty"`
	Domain    string `json:"domain,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// ItemStatusRequest represents the arguments for item_status.
type ItemStatusRequest struct {
	ItemID string `json:"item_id"`
	Status string `json:"status"`
}

// HandleRoute handles the route tool call.
func (h *Handlers) HandleRoute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RouteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.router.Route(ctx, ops.RouteInput{
		Text:       input.Text,
		DomainHint: input.DomainHint,
		NoClarify:  input.NoClarify,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleIngest handles the ingest tool call.
func (h *Handlers) HandleIngest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IngestRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.router.Ingest(ctx, ops.IngestInput{
		Text:       input.Text,
		Source:     input.Source,
		DomainHint: input.DomainHint,
		SkipDedupe: input.SkipDedupe,
		NoClarify:  input.NoClarify,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDedupe handles the dedupe tool call.
func (h *Handlers) HandleDedupe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DedupeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.router.CheckDuplicate(ctx, ops.DedupeInput{Text: input.Text})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleAsk handles the ask tool call.
func (h *Handlers) HandleAsk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AskRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Ask(h.db, ops.AskInput{
		Type:    input.Type,
		Text:    input.Text,
		Context: input.Context,
		Options: input.Options,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleAnswer handles the answer tool call.
func (h *Handlers) HandleAnswer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AnswerRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Answer(ctx, h.db, ops.AnswerInput{
		QuestionID: input.QuestionID,
		Answer:     input.Answer,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleQuestions handles the questions tool call.
func (h *Handlers) HandleQuestions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[QuestionsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListQuestions(h.db, ops.ListQuestionsInput{
		Status: input.Status,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleAdjustThreshold handles the adjust_threshold tool call.
func (h *Handlers) HandleAdjustThreshold(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AdjustThresholdRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.AdjustThreshold(h.db, ops.AdjustInput{
		Name:     input.Name,
		Feedback: input.Feedback,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleThresholds handles the thresholds tool call.
func (h *Handlers) HandleThresholds(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ThresholdsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if input.Name != "" {
		result, err := ops.GetThresholdValue(h.db, input.Name)
		if err != nil {
			return errorResult(err), nil
		}
		return successResult(result)
	}

	result, err := ops.ListThresholds(h.db)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFeedback handles the feedback tool call.
func (h *Handlers) HandleFeedback(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FeedbackRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.RecordFeedback(ctx, h.db, ops.FeedbackInput{
		ItemID:    input.ItemID,
		Domain:    input.Domain,
		ProjectID: input.ProjectID,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleConsolidate handles the consolidate tool call.
func (h *Handlers) HandleConsolidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ConsolidateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Consolidate(ctx, h.db, ops.ConsolidateInput{
		Domain:        input.Domain,
		Variants:      input.Variants,
		CanonicalName: input.CanonicalName,
		Mode:          input.Mode,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDomains handles the domains tool call.
func (h *Handlers) HandleDomains(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.ListDomains(h.db)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCreateDomain handles the create_domain tool call.
func (h *Handlers) HandleCreateDomain(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateDomainRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.CreateDomain(h.db, ops.CreateDomainInput{
		Path:          input.Path,
		DisplayName:   input.DisplayName,
		TargetPercent: input.TargetPercent,
		Keywords:      input.Keywords,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleProjects handles the projects tool call.
func (h *Handlers) HandleProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ProjectsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListProjects(h.db, ops.ListProjectsInput{Domain: input.Domain})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCreateProject handles the create_project tool call.
func (h *Handlers) HandleCreateProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateProjectRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.CreateProject(h.db, ops.CreateProjectInput{
		Name:        input.Name,
		Domain:      input.Domain,
		Description: input.Description,
		Keywords:    input.Keywords,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleLearnKeywords handles the learn_keywords tool call.
func (h *Handlers) HandleLearnKeywords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LearnKeywordsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.LearnKeywords(h.db, ops.LearnKeywordsInput{
		Domain:    input.Domain,
		ProjectID: input.ProjectID,
		Text:      input.Text,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleItems handles the items tool call.
func (h *Handlers) HandleItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ItemsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListItems(h.db, ops.ListItemsInput{
		Status:    input.Status,
		Domain:    input.Domain,
		ProjectID: input.ProjectID,
		Limit:     input.Limit,
		Offset:    input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleItemStatus handles the item_status tool call.
func (h *Handlers) HandleItemStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ItemStatusRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.SetItemStatus(h.db, ops.SetItemStatusInput{
		ItemID: input.ItemID,
		Status: input.Status,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// errorResult creates an error result with a structured JSON payload.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if siftErr, ok := err.(*errors.SiftError); ok {
		errorObj := map[string]any{
			"code":    siftErr.Code,
			"message": siftErr.Message,
			"status":  siftErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if siftErr.Code != errors.ErrInternal && siftErr.Details != nil {
			errorObj["details"] = siftErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates a success result with JSON content.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
