package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var stringItems = map[string]any{"type": "string"}

var routeToolDef = mcp.NewTool("sift_route",
	mcp.WithDescription("Classify text into a domain and project without creating an item. Low-confidence decisions queue a clarification question."),
	mcp.WithString("text", mcp.Required(), mcp.Description("The text to classify")),
	mcp.WithString("domain_hint", mcp.Description("Caller-asserted domain; exact or prefix match against registered domain paths")),
	mcp.WithBoolean("no_clarify", mcp.Description("Suppress clarification questions and return the best candidate as-is")),
)

var ingestToolDef = mcp.NewTool("sift_ingest",
	mcp.WithDescription("Run the full intake pipeline: duplicate check, routing, item creation. Duplicates are dropped before anything is persisted."),
	mcp.WithString("text", mcp.Required(), mcp.Description("The item text")),
	mcp.WithString("source", mcp.Description("Where the item came from, e.g. email or note")),
	mcp.WithString("domain_hint", mcp.Description("Caller-asserted domain")),
	mcp.WithBoolean("skip_dedupe", mcp.Description("Skip the duplicate check")),
	mcp.WithBoolean("no_clarify", mcp.Description("Suppress clarification questions")),
)

var dedupeToolDef = mcp.NewTool("sift_dedupe",
	mcp.WithDescription("Check whether text duplicates a recent open item by embedding similarity. Fails open when the embedding provider is unavailable."),
	mcp.WithString("text", mcp.Required(), mcp.Description("The text to check")),
)

var askToolDef = mcp.NewTool("sift_ask",
	mcp.WithDescription("Queue a question for the user to answer later."),
	mcp.WithString("type", mcp.Required(), mcp.Description("Question type: domain_routing, task_clarification, entity, or priority")),
	mcp.WithString("text", mcp.Required(), mcp.Description("The question to ask")),
	mcp.WithString("context", mcp.Description("Background the answerer needs")),
	mcp.WithArray("options", mcp.Description("Candidate answers, if enumerable"), mcp.Items(stringItems)),
)

var answerToolDef = mcp.NewTool("sift_answer",
	mcp.WithDescription("Answer a pending question. Answering twice is a no-op; the first answer stands. Answering a task_clarification question creates the clarified item."),
	mcp.WithString("question_id", mcp.Required(), mcp.Description("The question ULID")),
	mcp.WithString("answer", mcp.Required(), mcp.Description("The answer text")),
)

var questionsToolDef = mcp.NewTool("sift_questions",
	mcp.WithDescription("List questions by status, oldest first."),
	mcp.WithString("status", mcp.Description("pending (default) or answered")),
	mcp.WithNumber("limit", mcp.Description("Max results (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Pagination offset")),
)

var adjustThresholdToolDef = mcp.NewTool("sift_adjust_threshold",
	mcp.WithDescription("Nudge an adaptive threshold in response to feedback about system behavior."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Threshold name, e.g. routing_confidence_min")),
	mcp.WithString("feedback", mcp.Required(), mcp.Description("too_sensitive or not_sensitive")),
)

var thresholdsToolDef = mcp.NewTool("sift_thresholds",
	mcp.WithDescription("Show adaptive thresholds with their learned values and defaults."),
	mcp.WithString("name", mcp.Description("Show one threshold instead of all")),
)

var feedbackToolDef = mcp.NewTool("sift_feedback",
	mcp.WithDescription("Record the correct assignment for an item. Updates routing confidence and teaches the chosen domain its keywords."),
	mcp.WithString("item_id", mcp.Required(), mcp.Description("The item ULID")),
	mcp.WithString("domain", mcp.Required(), mcp.Description("The correct domain path")),
	mcp.WithString("project_id", mcp.Description("The correct project ULID, if any")),
)

var consolidateToolDef = mcp.NewTool("sift_consolidate",
	mcp.WithDescription("Fold duplicate project name variants into one canonical project. Merge mode moves every variant's items before deleting the variants."),
	mcp.WithString("domain", mcp.Required(), mcp.Description("The domain the projects live in")),
	mcp.WithArray("variants", mcp.Required(), mcp.Description("Names of the duplicate projects"), mcp.Items(stringItems)),
	mcp.WithString("canonical_name", mcp.Required(), mcp.Description("The surviving project name")),
	mcp.WithString("mode", mcp.Description("merge (default) or rename")),
)

var domainsToolDef = mcp.NewTool("sift_domains",
	mcp.WithDescription("List active routing domains with their learned keywords."),
)

var createDomainToolDef = mcp.NewTool("sift_create_domain",
	mcp.WithDescription("Register a new routing domain."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Canonical domain path, e.g. work/acme")),
	mcp.WithString("display_name", mcp.Description("Human-readable name")),
	mcp.WithNumber("target_percent", mcp.Description("Desired allocation weight")),
	mcp.WithArray("keywords", mcp.Description("Seed keywords"), mcp.Items(stringItems)),
)

var projectsToolDef = mcp.NewTool("sift_projects",
	mcp.WithDescription("List active projects, optionally one domain's."),
	mcp.WithString("domain", mcp.Description("Filter by domain path")),
)

var createProjectToolDef = mcp.NewTool("sift_create_project",
	mcp.WithDescription("Register a new project under a domain. Names are unique per domain."),
	mcp.WithString("name", mcp.Required(), mcp.Description("The project name")),
	mcp.WithString("domain", mcp.Required(), mcp.Description("The parent domain path")),
	mcp.WithString("description", mcp.Description("Optional free text")),
	mcp.WithArray("keywords", mcp.Description("Seed keywords"), mcp.Items(stringItems)),
)

var learnKeywordsToolDef = mcp.NewTool("sift_learn_keywords",
	mcp.WithDescription("Teach a domain or project keywords extracted from sample text."),
	mcp.WithString("domain", mcp.Description("Target domain path (exactly one of domain or project_id)")),
	mcp.WithString("project_id", mcp.Description("Target project ULID")),
	mcp.WithString("text", mcp.Required(), mcp.Description("Text to extract keywords from")),
)

var itemsToolDef = mcp.NewTool("sift_items",
	mcp.WithDescription("List items newest first, filtered by status, domain, or project."),
	mcp.WithString("status", mcp.Description("open, completed, or ignored")),
	mcp.WithString("domain", mcp.Description("Filter by domain path")),
	mcp.WithString("project_id", mcp.Description("Filter by project ULID")),
	mcp.WithNumber("limit", mcp.Description("Max results (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Pagination offset")),
)

var itemStatusToolDef = mcp.NewTool("sift_item_status",
	mcp.WithDescription("Move an item through its lifecycle."),
	mcp.WithString("item_id", mcp.Required(), mcp.Description("The item ULID")),
	mcp.WithString("status", mcp.Required(), mcp.Description("open, completed, or ignored")),
)
