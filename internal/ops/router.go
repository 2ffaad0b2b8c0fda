package ops

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/sift/internal/config"
	"github.com/hpungsan/sift/internal/db"
	"github.com/hpungsan/sift/internal/embedding"
	"github.com/hpungsan/sift/internal/item"
	"github.com/hpungsan/sift/internal/llm"
)

// Router routes item text to a domain and project. Resolution is
// layered: a keyword fast path first, blended with historical routing
// confidence, then the semantic classifier for anything the fast path
// is not sure about.
type Router struct {
	db         *sql.DB
	cfg        *config.Config
	embedder   embedding.Engine
	classifier llm.Client
	log        *zap.Logger
}

// NewRouter builds a Router. embedder and classifier may be nil, in
// which case deduplication and semantic classification degrade to
// no-ops (fail-open).
func NewRouter(database *sql.DB, cfg *config.Config, embedder embedding.Engine, classifier llm.Client, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{db: database, cfg: cfg, embedder: embedder, classifier: classifier, log: log}
}

// profileRef is one keyword-matchable routing target.
type profileRef struct {
	Target   string // domain path or project ID
	Name     string
	Keywords []string
}

// keywordMatch is a fast-path hit against one profile.
type keywordMatch struct {
	Target     string
	Name       string
	Fraction   float64 // matched keywords / profile keywords
	Confidence float64 // min(fraction*2, 1.0)
}

// bestKeywordMatch scores every profile by the fraction of its keyword
// set present in the token set and returns the strongest hit, or nil
// when no profile keyword appears at all.
func bestKeywordMatch(tokens map[string]bool, profiles []profileRef) *keywordMatch {
	var best *keywordMatch
	for _, p := range profiles {
		if len(p.Keywords) == 0 {
			continue
		}
		matched := 0
		for _, kw := range p.Keywords {
			if tokens[kw] {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		fraction := float64(matched) / float64(len(p.Keywords))
		confidence := fraction * 2
		if confidence > 1.0 {
			confidence = 1.0
		}
		if best == nil || fraction > best.Fraction {
			best = &keywordMatch{Target: p.Target, Name: p.Name, Fraction: fraction, Confidence: confidence}
		}
	}
	return best
}

// blendWithHistory raises a keyword confidence to the historical
// success rate for this (signature, target) pair when history has been
// better than the keywords suggest.
func blendWithHistory(q db.DBTX, signature, target string, keywordConf float64) (float64, error) {
	rec, err := db.GetConfidence(q, signature, target)
	if err != nil {
		return 0, err
	}
	if hist := rec.Confidence(); hist > keywordConf {
		return hist, nil
	}
	return keywordConf, nil
}

func tokenSet(text string) map[string]bool {
	tokens := item.Tokenize(text)
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// decide runs the full routing pipeline for one text and returns the
// decision plus whether any keyword evidence was seen. Escalation to a
// clarification question is the caller's job.
func (r *Router) decide(ctx context.Context, text, domainHint string) (*item.Decision, bool, error) {
	domains, err := activeDomainsSeeded(r.db)
	if err != nil {
		return nil, false, err
	}

	fastFloor, err := ThresholdValue(r.db, "routing_confidence_fast")
	if err != nil {
		return nil, false, err
	}

	tokens := tokenSet(text)
	signature := item.Signature(text)
	keywordSignal := false

	decision := &item.Decision{}

	// Domain layer.
	if hinted := resolveDomainHint(domains, domainHint); hinted != "" {
		decision.Domain = hinted
		decision.Confidence = 1.0
		decision.Reasoning = "domain hint"
	} else {
		if domainHint != "" {
			r.log.Warn("ignoring unknown domain hint", zap.String("hint", domainHint))
		}
		profiles := domainProfiles(domains)
		match := bestKeywordMatch(tokens, profiles)
		if match != nil {
			keywordSignal = true
			conf, err := blendWithHistory(r.db, signature, match.Target, match.Confidence)
			if err != nil {
				return nil, false, err
			}
			decision.Domain = match.Target
			decision.Confidence = conf
			decision.Reasoning = "keyword matching"
		}
		if match == nil || decision.Confidence < fastFloor {
			semantic := r.classifyDomain(ctx, text, domains, decision.Domain)
			if match == nil || semantic.Confidence > decision.Confidence {
				decision.Domain = semantic.Target
				decision.Confidence = semantic.Confidence
				decision.Reasoning = semantic.Reasoning
			}
		}
	}

	// Project layer within the chosen domain.
	projects, err := db.ProjectsForDomain(r.db, decision.Domain)
	if err != nil {
		return nil, false, err
	}
	if len(projects) > 0 {
		match := bestKeywordMatch(tokens, projectProfiles(projects))
		if match != nil {
			keywordSignal = true
			conf, err := blendWithHistory(r.db, signature, match.Target, match.Confidence)
			if err != nil {
				return nil, false, err
			}
			if conf >= fastFloor {
				r.selectProject(decision, projects, match.Target, conf)
			} else if sem := r.classifyProject(ctx, text, projects); sem != nil && sem.Confidence > conf {
				r.selectProject(decision, projects, sem.Target, sem.Confidence)
			} else {
				r.selectProject(decision, projects, match.Target, conf)
			}
		} else if sem := r.classifyProject(ctx, text, projects); sem != nil {
			r.selectProject(decision, projects, sem.Target, sem.Confidence)
		}
	}
	if decision.ProjectID == nil {
		decision.SuggestedProject = r.suggestProject(ctx, text)
	}

	return decision, keywordSignal, nil
}

// suggestProject asks the classifier to name a new project for text
// that fit no existing one. Returns nil when the classifier is
// unavailable or fails; the suggestion is advisory only.
func (r *Router) suggestProject(ctx context.Context, text string) *string {
	if r.classifier == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.classifyTimeout())
	defer cancel()

	name, err := r.classifier.SuggestName(ctx, text)
	if err != nil {
		r.log.Warn("project name suggestion failed", zap.Error(err))
		return nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return &name
}

// selectProject records a project choice on the decision. The decision
// confidence becomes the project confidence: the project layer saw the
// same text with more specific candidates.
func (r *Router) selectProject(decision *item.Decision, projects []*item.ProjectProfile, projectID string, confidence float64) {
	for _, p := range projects {
		if p.ID == projectID {
			decision.ProjectID = &p.ID
			decision.ProjectName = &p.Name
			decision.Confidence = confidence
			return
		}
	}
}

// classifyDomain asks the semantic classifier to pick a domain. It
// never fails: classifier errors fall back to the keyword candidate or
// the first registered domain at neutral confidence.
func (r *Router) classifyDomain(ctx context.Context, text string, domains []*item.DomainProfile, candidate string) *llm.Classification {
	fallback := candidate
	if fallback == "" {
		fallback = domains[0].Path
	}

	if r.classifier == nil {
		return &llm.Classification{Target: fallback, Confidence: 0.5, Reasoning: "fallback due to error: no classifier configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, r.classifyTimeout())
	defer cancel()

	result, err := r.classifier.Classify(ctx, text, domainCandidates(domains))
	if err != nil {
		r.log.Warn("domain classification failed", zap.Error(err))
		return &llm.Classification{Target: fallback, Confidence: 0.5, Reasoning: fmt.Sprintf("fallback due to error: %v", err)}
	}

	if !validDomain(domains, result.Target) {
		r.log.Warn("classifier returned unknown domain",
			zap.String("target", result.Target))
		result.Target = fallback
		result.Reasoning = "invalid target corrected"
	}
	return result
}

// classifyProject asks the semantic classifier to pick a project, with
// "none" as an explicit out. Returns nil when no project applies or the
// classifier is unavailable.
func (r *Router) classifyProject(ctx context.Context, text string, projects []*item.ProjectProfile) *llm.Classification {
	if r.classifier == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.classifyTimeout())
	defer cancel()

	candidates := make([]llm.Candidate, 0, len(projects)+1)
	for _, p := range projects {
		desc := p.Name
		if p.Description != nil && *p.Description != "" {
			desc = p.Name + ": " + *p.Description
		}
		candidates = append(candidates, llm.Candidate{ID: p.ID, Description: desc})
	}
	candidates = append(candidates, llm.Candidate{ID: "none", Description: "no existing project fits"})

	result, err := r.classifier.Classify(ctx, text, candidates)
	if err != nil {
		r.log.Warn("project classification failed", zap.Error(err))
		return nil
	}
	if result.Target == "none" {
		return nil
	}
	for _, p := range projects {
		if p.ID == result.Target {
			return result
		}
	}
	r.log.Warn("classifier returned unknown project", zap.String("target", result.Target))
	return nil
}

func (r *Router) classifyTimeout() time.Duration {
	secs := 60
	if r.cfg != nil && r.cfg.ClassifyTimeoutSecs > 0 {
		secs = r.cfg.ClassifyTimeoutSecs
	}
	return time.Duration(secs) * time.Second
}

func (r *Router) embedTimeout() time.Duration {
	secs := 30
	if r.cfg != nil && r.cfg.EmbedTimeoutSecs > 0 {
		secs = r.cfg.EmbedTimeoutSecs
	}
	return time.Duration(secs) * time.Second
}

// resolveDomainHint matches a hint against registered domains, allowing
// path prefixes ("work" matches "work/acme").
func resolveDomainHint(domains []*item.DomainProfile, hint string) string {
	hint = item.Normalize(hint)
	if hint == "" {
		return ""
	}
	for _, d := range domains {
		if d.Path == hint {
			return d.Path
		}
	}
	for _, d := range domains {
		if strings.HasPrefix(d.Path, hint+"/") {
			return d.Path
		}
	}
	return ""
}

func domainProfiles(domains []*item.DomainProfile) []profileRef {
	refs := make([]profileRef, 0, len(domains))
	for _, d := range domains {
		refs = append(refs, profileRef{Target: d.Path, Name: d.DisplayName, Keywords: d.Keywords})
	}
	return refs
}

func projectProfiles(projects []*item.ProjectProfile) []profileRef {
	refs := make([]profileRef, 0, len(projects))
	for _, p := range projects {
		refs = append(refs, profileRef{Target: p.ID, Name: p.Name, Keywords: p.Keywords})
	}
	return refs
}

func domainCandidates(domains []*item.DomainProfile) []llm.Candidate {
	candidates := make([]llm.Candidate, 0, len(domains))
	for _, d := range domains {
		desc := d.DisplayName
		if len(d.Keywords) > 0 {
			desc += " (keywords: " + strings.Join(d.Keywords, ", ") + ")"
		}
		candidates = append(candidates, llm.Candidate{ID: d.Path, Description: desc})
	}
	return candidates
}

func validDomain(domains []*item.DomainProfile, path string) bool {
	for _, d := range domains {
		if d.Path == path {
			return true
		}
	}
	return false
}
