package item

// Item statuses.
const (
	StatusOpen      = "open"
	StatusCompleted = "completed"
	StatusIgnored   = "ignored"
)

// Question types.
const (
	QuestionDomainRouting     = "domain_routing"
	QuestionTaskClarification = "task_clarification"
	QuestionEntity            = "entity"
	QuestionPriority          = "priority"
)

// Question statuses. The transition pending -> answered fires once and
// is irreversible.
const (
	QuestionPending  = "pending"
	QuestionAnswered = "answered"
)

// Item represents one tracked unit of work: a free-text note, an
// extracted task, or an email-derived action item.
type Item struct {
	// ID is a ULID that uniquely identifies this item
	ID string

	// Text is the primary free-text content
	Text string

	// Status is one of open, completed, ignored
	Status string

	// Domain is the assigned domain path (nullable until routed)
	Domain *string

	// ProjectID references the assigned project (nullable)
	ProjectID *string

	// Source indicates where the item originated (e.g., "email", "note", "clarification")
	Source *string

	// CreatedAt is the Unix timestamp when the item was created
	CreatedAt int64

	// UpdatedAt is the Unix timestamp when the item was last updated
	UpdatedAt int64
}

// DomainProfile is a top-level routing target with a learned keyword set.
type DomainProfile struct {
	// Path is the canonical domain path (e.g., "work/acme", "personal")
	Path string

	// DisplayName is the human-readable name
	DisplayName string

	// TargetPercent is the desired allocation weight for this domain
	TargetPercent float64

	// Keywords is the learned keyword set, lowercase, unordered
	Keywords []string

	// Active marks whether the domain participates in routing
	Active bool

	CreatedAt int64
}

// ProjectProfile is a named sub-grouping of items within a domain.
type ProjectProfile struct {
	// ID is a ULID
	ID string

	// Name is the project name as entered
	Name string

	// NameNorm is the normalized name used for uniqueness within a domain
	NameNorm string

	// Domain is the parent domain path
	Domain string

	// Description is optional free text
	Description *string

	// Status is "active" or "archived"
	Status string

	// Keywords is the learned keyword set, lowercase, unordered
	Keywords []string

	CreatedAt int64
}

// ConfidenceRecord accumulates routing feedback for one
// (keyword signature, target) pair. Counts never decrease.
type ConfidenceRecord struct {
	Signature      string
	Target         string
	CorrectCount   int
	IncorrectCount int
	UpdatedAt      int64
}

// Confidence returns the historical success rate for this record,
// or 0.5 when there is no history yet.
func (r ConfidenceRecord) Confidence() float64 {
	total := r.CorrectCount + r.IncorrectCount
	if total == 0 {
		return 0.5
	}
	return float64(r.CorrectCount) / float64(total)
}

// Threshold is a named adaptive numeric parameter.
type Threshold struct {
	Name  string
	Value float64

	// Confidence is the meta-confidence in the learned value versus the
	// hardcoded default; it rises with adjustment count.
	Confidence float64

	AdjustmentCount int
	UpdatedAt       int64
}

// Question is a deferred routing or clarification decision awaiting
// human input.
type Question struct {
	// ID is a ULID
	ID string

	// Type is one of the Question* type constants
	Type string

	// Text is the question presented to the user
	Text string

	// Context carries enough of the original signal to resolve the
	// question without re-reading the source item
	Context *string

	// Options lists candidate answers, if enumerable
	Options []string

	// Status is pending or answered
	Status string

	// Answer is the recorded free-text answer (nil while pending)
	Answer *string

	// TargetDomain / TargetProjectID record the candidate decision the
	// question was raised about; task_clarification uses them to
	// materialize the answered item
	TargetDomain    *string
	TargetProjectID *string

	// ItemID links back to the originating item, when one exists
	ItemID *string

	// Confidence is the classifier confidence that triggered escalation
	Confidence float64

	CreatedAt  int64
	AnsweredAt *int64
}

// Decision is the outcome of routing one item.
type Decision struct {
	// Domain is the selected domain path
	Domain string `json:"domain"`

	// ProjectID / ProjectName identify the selected project within the
	// domain, when one was chosen
	ProjectID   *string `json:"project_id,omitempty"`
	ProjectName *string `json:"project_name,omitempty"`

	// SuggestedProject is a proposed name for a new project when no
	// existing one fit the text
	SuggestedProject *string `json:"suggested_project,omitempty"`

	// Confidence is in [0, 1]
	Confidence float64 `json:"confidence"`

	// Reasoning explains the decision ("keyword matching", LLM output, ...)
	Reasoning string `json:"reasoning"`

	// NeedsClarification is set when confidence fell below the routing
	// floor and a question was enqueued
	NeedsClarification bool `json:"needs_clarification"`

	// QuestionID references the enqueued question, if any
	QuestionID *string `json:"question_id,omitempty"`
}
