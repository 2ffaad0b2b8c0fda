package ops

import (
	"context"
	"testing"

	"github.com/hpungsan/sift/internal/db"
	sifterrors "github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/item"
	"github.com/hpungsan/sift/internal/llm"
)

func TestRoute_HighConfidenceNoQuestion(t *testing.T) {
	database := testDB(t)
	seedDomain(t, database, "admin", "pepco", "bill")
	router := testRouter(t, database, nil, nil)

	decision, err := router.Route(context.Background(), RouteInput{Text: "pay pepco bill $187.43"})
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if decision.NeedsClarification {
		t.Error("NeedsClarification = true, want false")
	}
	if decision.QuestionID != nil {
		t.Errorf("QuestionID = %v, want nil", decision.QuestionID)
	}

	pending, err := db.QuestionsByStatus(database, item.QuestionPending, 10, 0)
	if err != nil {
		t.Fatalf("QuestionsByStatus failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending questions = %d, want 0", len(pending))
	}
}

func TestRoute_LowConfidenceNoKeywordSignal_TaskClarification(t *testing.T) {
	database := testDB(t)
	seedDomain(t, database, "admin")
	seedDomain(t, database, "personal")
	classifier := &fakeClassifier{result: &llm.Classification{Target: "admin", Confidence: 0.4, Reasoning: "weak semantic match"}}
	router := testRouter(t, database, nil, classifier)

	decision, err := router.Route(context.Background(), RouteInput{Text: "merge the output files"})
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if !decision.NeedsClarification {
		t.Fatal("NeedsClarification = false, want true")
	}
	if decision.QuestionID == nil {
		t.Fatal("QuestionID = nil, want a question")
	}

	question, err := db.GetQuestion(database, *decision.QuestionID)
	if err != nil {
		t.Fatalf("GetQuestion failed: %v", err)
	}
	if question.Type != item.QuestionTaskClarification {
		t.Errorf("Type = %q, want %q", question.Type, item.QuestionTaskClarification)
	}
	if question.Status != item.QuestionPending {
		t.Errorf("Status = %q, want pending", question.Status)
	}
	if question.Confidence != 0.4 {
		t.Errorf("Confidence = %v, want 0.4", question.Confidence)
	}
	if question.TargetDomain == nil || *question.TargetDomain != "admin" {
		t.Errorf("TargetDomain = %v, want admin", question.TargetDomain)
	}
	if question.Context == nil {
		t.Fatal("Context = nil, want the original text with the confidence note")
	}
}

func TestRoute_LowConfidenceWithKeywordSignal_DomainRouting(t *testing.T) {
	database := testDB(t)
	// One of four keywords matches: fraction 0.25, confidence 0.5,
	// below both floors even after the neutral history blend.
	seedDomain(t, database, "admin", "invoice", "pepco", "utility", "dmv")
	seedDomain(t, database, "personal")
	classifier := &fakeClassifier{result: &llm.Classification{Target: "admin", Confidence: 0.45, Reasoning: "weak"}}
	router := testRouter(t, database, nil, classifier)

	decision, err := router.Route(context.Background(), RouteInput{Text: "the invoice arrived"})
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if !decision.NeedsClarification {
		t.Fatal("NeedsClarification = false, want true")
	}

	question, err := db.GetQuestion(database, *decision.QuestionID)
	if err != nil {
		t.Fatalf("GetQuestion failed: %v", err)
	}
	if question.Type != item.QuestionDomainRouting {
		t.Errorf("Type = %q, want %q", question.Type, item.QuestionDomainRouting)
	}
	if len(question.Options) != 2 {
		t.Errorf("Options = %v, want the two domain paths", question.Options)
	}
}

func TestRoute_NoClarifySuppressesQuestion(t *testing.T) {
	database := testDB(t)
	seedDomain(t, database, "admin")
	classifier := &fakeClassifier{result: &llm.Classification{Target: "admin", Confidence: 0.3, Reasoning: "guess"}}
	router := testRouter(t, database, nil, classifier)

	decision, err := router.Route(context.Background(), RouteInput{Text: "merge the output files", NoClarify: true})
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if decision.NeedsClarification {
		t.Error("NeedsClarification = true, want false with NoClarify")
	}

	pending, err := db.QuestionsByStatus(database, item.QuestionPending, 10, 0)
	if err != nil {
		t.Fatalf("QuestionsByStatus failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending questions = %d, want 0", len(pending))
	}
}

func TestRoute_EmptyText(t *testing.T) {
	database := testDB(t)
	router := testRouter(t, database, nil, nil)

	_, err := router.Route(context.Background(), RouteInput{Text: ""})
	if !sifterrors.Is(err, sifterrors.ErrInvalidRequest) {
		t.Fatalf("err = %v, want INVALID_REQUEST", err)
	}
}
