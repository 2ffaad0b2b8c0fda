package ops

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/hpungsan/sift/internal/db"
	sifterrors "github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/item"
)

func TestAnswer_MarksAnswered(t *testing.T) {
	database := testDB(t)
	id, err := insertQuestion(database, &item.Question{
		Type: item.QuestionPriority,
		Text: "How urgent is this?",
	})
	if err != nil {
		t.Fatalf("insertQuestion failed: %v", err)
	}

	out, err := Answer(context.Background(), database, AnswerInput{QuestionID: id, Answer: "high"})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if !out.Applied {
		t.Fatal("Applied = false, want true")
	}

	question, err := db.GetQuestion(database, id)
	if err != nil {
		t.Fatalf("GetQuestion failed: %v", err)
	}
	if question.Status != item.QuestionAnswered {
		t.Errorf("Status = %q, want answered", question.Status)
	}
	if question.Answer == nil || *question.Answer != "high" {
		t.Errorf("Answer = %v, want high", question.Answer)
	}
	if question.AnsweredAt == nil {
		t.Error("AnsweredAt = nil, want a timestamp")
	}
}

func TestAnswer_SecondAnswerIsNoOp(t *testing.T) {
	database := testDB(t)
	id, err := insertQuestion(database, &item.Question{
		Type: item.QuestionPriority,
		Text: "How urgent is this?",
	})
	if err != nil {
		t.Fatalf("insertQuestion failed: %v", err)
	}

	if _, err := Answer(context.Background(), database, AnswerInput{QuestionID: id, Answer: "high"}); err != nil {
		t.Fatalf("first Answer failed: %v", err)
	}
	out, err := Answer(context.Background(), database, AnswerInput{QuestionID: id, Answer: "low"})
	if err != nil {
		t.Fatalf("second Answer failed: %v", err)
	}
	if out.Applied {
		t.Error("Applied = true, want false on the second answer")
	}

	question, err := db.GetQuestion(database, id)
	if err != nil {
		t.Fatalf("GetQuestion failed: %v", err)
	}
	if question.Answer == nil || *question.Answer != "high" {
		t.Errorf("Answer = %v, want the first answer to stand", question.Answer)
	}
}

func TestAnswer_TaskClarificationMaterializesItem(t *testing.T) {
	database := testDB(t)
	seedDomain(t, database, "admin")
	questionContext := "merge the output files\n\nSuggested: admin (confidence: 40%), below the routing confidence floor"
	domain := "admin"
	id, err := insertQuestion(database, &item.Question{
		Type:         item.QuestionTaskClarification,
		Text:         "What should happen with this?",
		Context:      &questionContext,
		TargetDomain: &domain,
		Confidence:   0.4,
	})
	if err != nil {
		t.Fatalf("insertQuestion failed: %v", err)
	}

	out, err := Answer(context.Background(), database, AnswerInput{
		QuestionID: id,
		Answer:     "combine the CSV exports into one report",
	})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if out.MaterializedItemID == nil {
		t.Fatal("MaterializedItemID = nil, want a new item")
	}

	it, err := db.GetItem(database, *out.MaterializedItemID)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	want := "merge the output files\n\nClarification: combine the CSV exports into one report"
	if it.Text != want {
		t.Errorf("Text = %q, want %q", it.Text, want)
	}
	// The suggestion banner must not leak into the item, where keyword
	// learning and the dedupe signature would pick it up.
	if strings.Contains(it.Text, "Suggested:") {
		t.Errorf("Text = %q, want the suggestion banner stripped", it.Text)
	}
	if kws := item.LearnableKeywords(it.Text); slices.Contains(kws, "suggested") || slices.Contains(kws, "confidence") {
		t.Errorf("LearnableKeywords = %v, want no banner vocabulary", kws)
	}
	if it.Domain == nil || *it.Domain != "admin" {
		t.Errorf("Domain = %v, want the question's recorded target", it.Domain)
	}
	if it.Source == nil || *it.Source != "clarification" {
		t.Errorf("Source = %v, want clarification", it.Source)
	}
	if it.Status != item.StatusOpen {
		t.Errorf("Status = %q, want open", it.Status)
	}
}

func TestAnswer_DomainRoutingCorrectsItemAndLearns(t *testing.T) {
	database := testDB(t)
	seedDomain(t, database, "admin")
	seedDomain(t, database, "personal")
	itemID := seedItem(t, database, "schedule dentist appointment", item.StatusOpen, 1700000000)

	suggested := "admin"
	questionContext := "schedule dentist appointment\n\nSuggested: admin (confidence: 45%), below the routing confidence floor"
	id, err := insertQuestion(database, &item.Question{
		Type:         item.QuestionDomainRouting,
		Text:         "Where does this belong?",
		Context:      &questionContext,
		Options:      []string{"admin", "personal"},
		TargetDomain: &suggested,
		ItemID:       &itemID,
		Confidence:   0.45,
	})
	if err != nil {
		t.Fatalf("insertQuestion failed: %v", err)
	}

	out, err := Answer(context.Background(), database, AnswerInput{QuestionID: id, Answer: "personal"})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if out.UpdatedItemID == nil || *out.UpdatedItemID != itemID {
		t.Fatalf("UpdatedItemID = %v, want %q", out.UpdatedItemID, itemID)
	}

	it, err := db.GetItem(database, itemID)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if it.Domain == nil || *it.Domain != "personal" {
		t.Errorf("Domain = %v, want personal", it.Domain)
	}

	// The correction counts against the suggestion and for the answer.
	signature := item.Signature("schedule dentist appointment")
	rec, err := db.GetConfidence(database, signature, "personal")
	if err != nil {
		t.Fatalf("GetConfidence failed: %v", err)
	}
	if rec.CorrectCount != 1 {
		t.Errorf("personal CorrectCount = %d, want 1", rec.CorrectCount)
	}
	rec, err = db.GetConfidence(database, signature, "admin")
	if err != nil {
		t.Fatalf("GetConfidence failed: %v", err)
	}
	if rec.IncorrectCount != 1 {
		t.Errorf("admin IncorrectCount = %d, want 1", rec.IncorrectCount)
	}

	// The chosen domain learned keywords from the original text.
	d, err := db.GetDomain(database, "personal")
	if err != nil {
		t.Fatalf("GetDomain failed: %v", err)
	}
	wantKeywords := map[string]bool{"schedule": true, "dentist": true, "appointment": true}
	for _, kw := range d.Keywords {
		delete(wantKeywords, kw)
	}
	if len(wantKeywords) != 0 {
		t.Errorf("domain keywords missing %v (got %v)", wantKeywords, d.Keywords)
	}
}

func TestAnswer_FreeTextAnswerOnRoutingQuestionOnlyCloses(t *testing.T) {
	database := testDB(t)
	seedDomain(t, database, "admin")
	suggested := "admin"
	id, err := insertQuestion(database, &item.Question{
		Type:         item.QuestionDomainRouting,
		Text:         "Where does this belong?",
		TargetDomain: &suggested,
	})
	if err != nil {
		t.Fatalf("insertQuestion failed: %v", err)
	}

	out, err := Answer(context.Background(), database, AnswerInput{QuestionID: id, Answer: "not sure, ask me later"})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if !out.Applied {
		t.Error("Applied = false, want true")
	}
	if out.UpdatedItemID != nil {
		t.Errorf("UpdatedItemID = %v, want nil for a free-text answer", out.UpdatedItemID)
	}
}

func TestAnswer_UnknownQuestion(t *testing.T) {
	database := testDB(t)

	_, err := Answer(context.Background(), database, AnswerInput{QuestionID: "01J0000000000000000000000", Answer: "x"})
	if !sifterrors.Is(err, sifterrors.ErrNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}
