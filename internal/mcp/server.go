package mcp

import (
	"context"
	"database/sql"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/sift/internal/config"
	"github.com/hpungsan/sift/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"sift_route": {
		def:     routeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRoute },
	},
	"sift_ingest": {
		def:     ingestToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleIngest },
	},
	"sift_dedupe": {
		def:     dedupeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDedupe },
	},
	"sift_ask": {
		def:     askToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAsk },
	},
	"sift_answer": {
		def:     answerToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAnswer },
	},
	"sift_questions": {
		def:     questionsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuestions },
	},
	"sift_adjust_threshold": {
		def:     adjustThresholdToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAdjustThreshold },
	},
	"sift_thresholds": {
		def:     thresholdsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleThresholds },
	},
	"sift_feedback": {
		def:     feedbackToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFeedback },
	},
	"sift_consolidate": {
		def:     consolidateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleConsolidate },
	},
	"sift_domains": {
		def:     domainsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDomains },
	},
	"sift_create_domain": {
		def:     createDomainToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCreateDomain },
	},
	"sift_projects": {
		def:     projectsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleProjects },
	},
	"sift_create_project": {
		def:     createProjectToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCreateProject },
	},
	"sift_learn_keywords": {
		def:     learnKeywordsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLearnKeywords },
	},
	"sift_items": {
		def:     itemsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleItems },
	},
	"sift_item_status": {
		def:     itemStatusToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleItemStatus },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with Sift tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(database *sql.DB, cfg *config.Config, router *ops.Router, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"sift",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(database, cfg, router)

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	// Register tools (skip disabled)
	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(database *sql.DB, cfg *config.Config, router *ops.Router, version string) error {
	s := NewServer(database, cfg, router, version)
	return server.ServeStdio(s)
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
