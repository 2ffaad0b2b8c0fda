package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/item"
)

// TestFullWorkflow exercises the complete item lifecycle:
// ingest → routing question → answer → feedback → consolidate →
// repeat ingest routed by learned keywords → complete.
func TestFullWorkflow(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	require.NoError(t, SeedThresholds(database))
	require.NoError(t, EnsureDefaultDomains(database))

	// Seed a small vocabulary so the first ingest has weak keyword
	// evidence: 1 of 4 keywords matched gives confidence 0.5, below the
	// routing floor.
	_, err := LearnKeywords(database, LearnKeywordsInput{
		Domain: "admin",
		Text:   "registration license insurance renewal",
	})
	require.NoError(t, err)

	router := testRouter(t, database, nil, nil)

	// 1. Ingest: weak keyword match routes to admin but queues a
	// routing question.
	ingestOut, err := router.Ingest(ctx, IngestInput{
		Text:   "renew the registration before friday",
		Source: "note",
	})
	require.NoError(t, err)
	require.NotEmpty(t, ingestOut.ItemID)
	require.False(t, ingestOut.WasDuplicate)
	require.Equal(t, "admin", ingestOut.Decision.Domain)
	require.True(t, ingestOut.Decision.NeedsClarification)
	require.NotNil(t, ingestOut.Decision.QuestionID)

	// 2. The question is pending, linked to the item, and offers the
	// active domains as options.
	questions, err := ListQuestions(database, ListQuestionsInput{})
	require.NoError(t, err)
	require.Len(t, questions.Questions, 1)
	question := questions.Questions[0]
	require.Equal(t, *ingestOut.Decision.QuestionID, question.ID)
	require.Equal(t, item.QuestionDomainRouting, question.Type)
	require.NotNil(t, question.ItemID)
	require.Equal(t, ingestOut.ItemID, *question.ItemID)
	require.Contains(t, question.Options, "admin")

	// 3. Answering confirms the assignment and grows the vocabulary.
	answerOut, err := Answer(ctx, database, AnswerInput{
		QuestionID: question.ID,
		Answer:     "admin",
	})
	require.NoError(t, err)
	require.True(t, answerOut.Applied)
	require.NotNil(t, answerOut.UpdatedItemID)
	require.Equal(t, ingestOut.ItemID, *answerOut.UpdatedItemID)

	got, err := GetItem(database, ingestOut.ItemID)
	require.NoError(t, err)
	require.NotNil(t, got.Domain)
	require.Equal(t, "admin", *got.Domain)

	// 4. Feedback confirms the routing and reports the learned keywords.
	feedbackOut, err := RecordFeedback(ctx, database, FeedbackInput{
		ItemID: ingestOut.ItemID,
		Domain: "admin",
	})
	require.NoError(t, err)
	require.True(t, feedbackOut.WasCorrect)
	require.NotEmpty(t, feedbackOut.Learned)

	// 5. Duplicate project names consolidate into one canonical project.
	first := seedProject(t, database, "admin", "taxes")
	seedProject(t, database, "admin", "tax stuff")
	consolidateOut, err := Consolidate(ctx, database, ConsolidateInput{
		Domain:        "admin",
		CanonicalName: "taxes",
		Variants:      []string{"tax stuff"},
	})
	require.NoError(t, err)
	require.Equal(t, first, consolidateOut.TargetProjectID)
	require.Len(t, consolidateOut.Removed, 1)

	// 6. A second ingest with the grown vocabulary clears the fast
	// floor on keywords alone: 3 of 7 keywords matched.
	repeatOut, err := router.Ingest(ctx, IngestInput{
		Text:       "schedule license renewal registration appointment",
		SkipDedupe: true,
	})
	require.NoError(t, err)
	require.Equal(t, "admin", repeatOut.Decision.Domain)
	require.False(t, repeatOut.Decision.NeedsClarification)
	require.GreaterOrEqual(t, repeatOut.Decision.Confidence, 0.8)

	// 7. Complete the original item and verify the open listing shrinks.
	_, err = SetItemStatus(database, SetItemStatusInput{
		ItemID: ingestOut.ItemID,
		Status: item.StatusCompleted,
	})
	require.NoError(t, err)

	open, err := ListItems(database, ListItemsInput{Status: item.StatusOpen})
	require.NoError(t, err)
	require.Len(t, open.Items, 1)
	require.Equal(t, repeatOut.ItemID, open.Items[0].ID)

	// 8. Answering the same question again is a no-op.
	answerOut, err = Answer(ctx, database, AnswerInput{
		QuestionID: question.ID,
		Answer:     "personal",
	})
	require.NoError(t, err)
	require.False(t, answerOut.Applied)

	// Unknown questions surface NOT_FOUND.
	_, err = Answer(ctx, database, AnswerInput{QuestionID: "NONEXISTENT", Answer: "x"})
	var siftErr *errors.SiftError
	require.ErrorAs(t, err, &siftErr)
	require.Equal(t, errors.ErrNotFound, siftErr.Code)
}
