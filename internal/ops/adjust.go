package ops

import (
	"fmt"
	"strings"

	"github.com/hpungsan/sift/internal/db"
	"github.com/hpungsan/sift/internal/errors"
)

// Feedback directions for AdjustThreshold.
const (
	FeedbackTooSensitive = "too_sensitive"
	FeedbackNotSensitive = "not_sensitive"

	// FeedbackNotSensitiveEnough is an accepted alias for FeedbackNotSensitive.
	FeedbackNotSensitiveEnough = "not_sensitive_enough"
)

// AdjustInput contains parameters for the AdjustThreshold operation.
type AdjustInput struct {
	Name     string // required
	Feedback string // too_sensitive | not_sensitive
}

// AdjustOutput contains the result of the AdjustThreshold operation.
type AdjustOutput struct {
	Name            string  `json:"name"`
	OldValue        float64 `json:"old_value"`
	NewValue        float64 `json:"new_value"`
	Confidence      float64 `json:"confidence"`
	AdjustmentCount int     `json:"adjustment_count"`
}

// AdjustThreshold nudges a named threshold in response to user feedback.
// The step size and clamping range depend on what the threshold measures,
// inferred from its name. Meta-confidence in the learned value grows with
// each adjustment.
func AdjustThreshold(q db.DBTX, input AdjustInput) (*AdjustOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}
	feedback := strings.TrimSpace(input.Feedback)
	if feedback == FeedbackNotSensitiveEnough {
		feedback = FeedbackNotSensitive
	}
	if feedback != FeedbackTooSensitive && feedback != FeedbackNotSensitive {
		return nil, errors.NewInvalidRequest(fmt.Sprintf(
			"feedback must be one of: %s, %s", FeedbackTooSensitive, FeedbackNotSensitive))
	}

	def, known := DefaultThresholds[name]
	current, err := db.GetThreshold(q, name)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
		if !known {
			return nil, errors.NewNotFound("threshold", name)
		}
		// First adjustment of a never-stored threshold starts from the default.
		if err := db.SeedThreshold(q, name, def); err != nil {
			return nil, errors.NewInternal(err)
		}
		current, err = db.GetThreshold(q, name)
		if err != nil {
			return nil, err
		}
	}

	newValue := stepThreshold(name, current.Value, feedback == FeedbackTooSensitive)
	count := current.AdjustmentCount + 1
	confidence := metaConfidence(count)

	if err := db.UpdateThreshold(q, name, newValue, confidence); err != nil {
		return nil, err
	}

	return &AdjustOutput{
		Name:            name,
		OldValue:        current.Value,
		NewValue:        newValue,
		Confidence:      confidence,
		AdjustmentCount: count,
	}, nil
}

// stepThreshold applies one category-specific adjustment step.
// "Too sensitive" means the threshold currently fires too often, so
// confidence floors drop while day windows and ratios widen.
func stepThreshold(name string, value float64, tooSensitive bool) float64 {
	switch {
	case strings.Contains(name, "confidence"):
		if tooSensitive {
			value -= 0.05
		} else {
			value += 0.05
		}
		return clamp(value, 0.1, 0.95)
	case strings.Contains(name, "days"):
		if tooSensitive {
			value += 2
		} else {
			value -= 2
		}
		if value < 1 {
			value = 1
		}
		return value
	case strings.Contains(name, "ratio"):
		if tooSensitive {
			value += 0.5
		} else {
			value -= 0.5
		}
		if value < 1.2 {
			value = 1.2
		}
		return value
	default:
		if tooSensitive {
			return value * 1.1
		}
		return value * 0.9
	}
}

// metaConfidence maps adjustment count to trust in the learned value.
func metaConfidence(adjustments int) float64 {
	c := 0.5 + 0.05*float64(adjustments)
	if c > 0.95 {
		c = 0.95
	}
	return c
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
