package ops

import (
	"math"
	"testing"

	"github.com/hpungsan/sift/internal/db"
	sifterrors "github.com/hpungsan/sift/internal/errors"
)

func TestAdjustThreshold_ConfidenceCategory(t *testing.T) {
	database := testDB(t)

	out, err := AdjustThreshold(database, AdjustInput{
		Name:     "routing_confidence_min",
		Feedback: FeedbackTooSensitive,
	})
	if err != nil {
		t.Fatalf("AdjustThreshold failed: %v", err)
	}
	if out.OldValue != 0.7 {
		t.Errorf("OldValue = %v, want 0.7", out.OldValue)
	}
	if math.Abs(out.NewValue-0.65) > 1e-9 {
		t.Errorf("NewValue = %v, want 0.65", out.NewValue)
	}
	if out.AdjustmentCount != 1 {
		t.Errorf("AdjustmentCount = %d, want 1", out.AdjustmentCount)
	}
	if math.Abs(out.Confidence-0.55) > 1e-9 {
		t.Errorf("Confidence = %v, want 0.55", out.Confidence)
	}
}

func TestAdjustThreshold_ConfidenceClamps(t *testing.T) {
	database := testDB(t)

	// Push down far past the lower clamp.
	for range 20 {
		if _, err := AdjustThreshold(database, AdjustInput{
			Name:     "routing_confidence_min",
			Feedback: FeedbackTooSensitive,
		}); err != nil {
			t.Fatalf("AdjustThreshold failed: %v", err)
		}
	}
	value, err := ThresholdValue(database, "routing_confidence_min")
	if err != nil {
		t.Fatalf("ThresholdValue failed: %v", err)
	}
	if math.Abs(value-0.1) > 1e-9 {
		t.Errorf("value = %v, want clamped to 0.1", value)
	}

	// And back up past the upper clamp.
	for range 30 {
		if _, err := AdjustThreshold(database, AdjustInput{
			Name:     "routing_confidence_min",
			Feedback: FeedbackNotSensitiveEnough,
		}); err != nil {
			t.Fatalf("AdjustThreshold failed: %v", err)
		}
	}
	value, err = ThresholdValue(database, "routing_confidence_min")
	if err != nil {
		t.Fatalf("ThresholdValue failed: %v", err)
	}
	if math.Abs(value-0.95) > 1e-9 {
		t.Errorf("value = %v, want clamped to 0.95", value)
	}
}

func TestAdjustThreshold_DaysCategory(t *testing.T) {
	database := testDB(t)

	out, err := AdjustThreshold(database, AdjustInput{
		Name:     "old_task_days",
		Feedback: FeedbackTooSensitive,
	})
	if err != nil {
		t.Fatalf("AdjustThreshold failed: %v", err)
	}
	if out.NewValue != 5 {
		t.Errorf("NewValue = %v, want 5 (3 + 2)", out.NewValue)
	}

	// Days never drop below one.
	for range 5 {
		if _, err := AdjustThreshold(database, AdjustInput{
			Name:     "old_task_days",
			Feedback: FeedbackNotSensitiveEnough,
		}); err != nil {
			t.Fatalf("AdjustThreshold failed: %v", err)
		}
	}
	value, err := ThresholdValue(database, "old_task_days")
	if err != nil {
		t.Fatalf("ThresholdValue failed: %v", err)
	}
	if value != 1 {
		t.Errorf("value = %v, want floor of 1", value)
	}
}

func TestAdjustThreshold_RatioCategory(t *testing.T) {
	database := testDB(t)

	out, err := AdjustThreshold(database, AdjustInput{
		Name:     "task_overload_ratio",
		Feedback: FeedbackTooSensitive,
	})
	if err != nil {
		t.Fatalf("AdjustThreshold failed: %v", err)
	}
	if out.NewValue != 2.5 {
		t.Errorf("NewValue = %v, want 2.5", out.NewValue)
	}

	for range 5 {
		if _, err := AdjustThreshold(database, AdjustInput{
			Name:     "task_overload_ratio",
			Feedback: FeedbackNotSensitiveEnough,
		}); err != nil {
			t.Fatalf("AdjustThreshold failed: %v", err)
		}
	}
	value, err := ThresholdValue(database, "task_overload_ratio")
	if err != nil {
		t.Fatalf("ThresholdValue failed: %v", err)
	}
	if value != 1.2 {
		t.Errorf("value = %v, want floor of 1.2", value)
	}
}

func TestAdjustThreshold_UncategorizedScalesMultiplicatively(t *testing.T) {
	database := testDB(t)

	out, err := AdjustThreshold(database, AdjustInput{
		Name:     "quick_win_minutes",
		Feedback: FeedbackTooSensitive,
	})
	if err != nil {
		t.Fatalf("AdjustThreshold failed: %v", err)
	}
	if math.Abs(out.NewValue-33) > 1e-9 {
		t.Errorf("NewValue = %v, want 33 (30 * 1.1)", out.NewValue)
	}
}

func TestAdjustThreshold_MetaConfidenceCaps(t *testing.T) {
	database := testDB(t)

	var last float64
	for range 12 {
		out, err := AdjustThreshold(database, AdjustInput{
			Name:     "task_overload_ratio",
			Feedback: FeedbackTooSensitive,
		})
		if err != nil {
			t.Fatalf("AdjustThreshold failed: %v", err)
		}
		last = out.Confidence
	}
	if last != 0.95 {
		t.Errorf("Confidence = %v, want capped at 0.95", last)
	}
}

func TestAdjustThreshold_SurvivesAcrossCalls(t *testing.T) {
	database := testDB(t)

	if _, err := AdjustThreshold(database, AdjustInput{
		Name:     "routing_confidence_fast",
		Feedback: FeedbackTooSensitive,
	}); err != nil {
		t.Fatalf("AdjustThreshold failed: %v", err)
	}

	stored, err := db.GetThreshold(database, "routing_confidence_fast")
	if err != nil {
		t.Fatalf("GetThreshold failed: %v", err)
	}
	if math.Abs(stored.Value-0.75) > 1e-9 {
		t.Errorf("stored value = %v, want 0.75", stored.Value)
	}
	if stored.AdjustmentCount != 1 {
		t.Errorf("AdjustmentCount = %d, want 1", stored.AdjustmentCount)
	}
}

func TestAdjustThreshold_FeedbackForms(t *testing.T) {
	database := testDB(t)

	// Both the short form and the long alias step in the same direction.
	out, err := AdjustThreshold(database, AdjustInput{
		Name:     "routing_confidence_min",
		Feedback: FeedbackNotSensitive,
	})
	if err != nil {
		t.Fatalf("AdjustThreshold(%s) failed: %v", FeedbackNotSensitive, err)
	}
	if math.Abs(out.NewValue-0.75) > 1e-9 {
		t.Errorf("NewValue = %v, want 0.75", out.NewValue)
	}

	out, err = AdjustThreshold(database, AdjustInput{
		Name:     "routing_confidence_min",
		Feedback: FeedbackNotSensitiveEnough,
	})
	if err != nil {
		t.Fatalf("AdjustThreshold(%s) failed: %v", FeedbackNotSensitiveEnough, err)
	}
	if math.Abs(out.NewValue-0.8) > 1e-9 {
		t.Errorf("NewValue = %v, want 0.8", out.NewValue)
	}
}

func TestAdjustThreshold_Errors(t *testing.T) {
	database := testDB(t)

	_, err := AdjustThreshold(database, AdjustInput{Name: "", Feedback: FeedbackTooSensitive})
	if !sifterrors.Is(err, sifterrors.ErrInvalidRequest) {
		t.Errorf("empty name: err = %v, want INVALID_REQUEST", err)
	}

	_, err = AdjustThreshold(database, AdjustInput{Name: "routing_confidence_min", Feedback: "sideways"})
	if !sifterrors.Is(err, sifterrors.ErrInvalidRequest) {
		t.Errorf("bad feedback: err = %v, want INVALID_REQUEST", err)
	}

	_, err = AdjustThreshold(database, AdjustInput{Name: "no_such_threshold", Feedback: FeedbackTooSensitive})
	if !sifterrors.Is(err, sifterrors.ErrNotFound) {
		t.Errorf("unknown name: err = %v, want NOT_FOUND", err)
	}
}
