package ops

import (
	"sort"
	"strings"

	"github.com/hpungsan/sift/internal/db"
	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/item"
)

// DefaultThresholds maps threshold names to their hardcoded starting
// values. Names encode their category: "confidence" thresholds live in
// [0.1, 0.95], "days" thresholds are whole-day windows, "ratio"
// thresholds are load multipliers.
var DefaultThresholds = map[string]float64{
	"routing_confidence_fast": 0.8,
	"routing_confidence_min":  0.7,
	"dedupe_confidence_min":   0.85,
	"dedupe_window_days":      30,
	"domain_neglect_days":     7,
	"old_task_days":           3,
	"task_overload_ratio":     2.0,
	"quick_win_minutes":       30,
}

// SeedThresholds inserts default rows for every known threshold.
// Existing rows (and their learned values) are left untouched.
func SeedThresholds(q db.DBTX) error {
	for name, value := range DefaultThresholds {
		if err := db.SeedThreshold(q, name, value); err != nil {
			return errors.NewInternal(err)
		}
	}
	return nil
}

// ThresholdValue returns the learned value for name, falling back to
// the default when no row exists yet.
func ThresholdValue(q db.DBTX, name string) (float64, error) {
	t, err := db.GetThreshold(q, name)
	if err == nil {
		return t.Value, nil
	}
	if errors.Is(err, errors.ErrNotFound) {
		if def, ok := DefaultThresholds[name]; ok {
			return def, nil
		}
		return 0, err
	}
	return 0, err
}

// GetThresholdOutput contains one threshold with its provenance.
type GetThresholdOutput struct {
	Name            string  `json:"name"`
	Value           float64 `json:"value"`
	Default         float64 `json:"default"`
	Confidence      float64 `json:"confidence"`
	AdjustmentCount int     `json:"adjustment_count"`
	Learned         bool    `json:"learned"`
}

// GetThresholdValue returns one threshold by name.
func GetThresholdValue(q db.DBTX, name string) (*GetThresholdOutput, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}

	def, known := DefaultThresholds[name]
	t, err := db.GetThreshold(q, name)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) && known {
			return &GetThresholdOutput{Name: name, Value: def, Default: def, Confidence: 0.5}, nil
		}
		return nil, err
	}
	return thresholdOutput(t, def), nil
}

// ListThresholdsOutput contains the result of the ListThresholds operation.
type ListThresholdsOutput struct {
	Thresholds []*GetThresholdOutput `json:"thresholds"`
}

// ListThresholds returns every threshold, stored or default.
func ListThresholds(q db.DBTX) (*ListThresholdsOutput, error) {
	stored, err := db.AllThresholds(q)
	if err != nil {
		return nil, err
	}

	out := &ListThresholdsOutput{}
	seen := make(map[string]bool, len(stored))
	for _, t := range stored {
		seen[t.Name] = true
		out.Thresholds = append(out.Thresholds, thresholdOutput(t, DefaultThresholds[t.Name]))
	}
	for name, def := range DefaultThresholds {
		if !seen[name] {
			out.Thresholds = append(out.Thresholds, &GetThresholdOutput{
				Name: name, Value: def, Default: def, Confidence: 0.5,
			})
		}
	}
	sort.Slice(out.Thresholds, func(i, j int) bool {
		return out.Thresholds[i].Name < out.Thresholds[j].Name
	})
	return out, nil
}

func thresholdOutput(t *item.Threshold, def float64) *GetThresholdOutput {
	return &GetThresholdOutput{
		Name:            t.Name,
		Value:           t.Value,
		Default:         def,
		Confidence:      t.Confidence,
		AdjustmentCount: t.AdjustmentCount,
		Learned:         t.AdjustmentCount > 0,
	}
}
