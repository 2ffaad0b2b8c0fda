package item

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase", "TIP AI", "tip ai"},
		{"trim", "  Utilities  ", "utilities"},
		{"collapse whitespace", "tip \t ai", "tip ai"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Pay Pepco bill $187.43 due Nov 20")
	want := []string{"pay", "pepco", "bill", "187.43", "due", "nov", "20"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize() = %v, want %v", got, want)
	}
}

func TestTokenize_StripsPunctuation(t *testing.T) {
	got := Tokenize("Invoice, bill; (utilities)")
	want := []string{"invoice", "bill", "utilities"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize() = %v, want %v", got, want)
	}
}

func TestLearnableKeywords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			"keeps alphabetic tokens longer than 4 chars",
			"Schedule dentist appointment tomorrow",
			[]string{"schedule", "dentist", "appointment", "tomorrow"},
		},
		{
			"drops short and non-alphabetic tokens",
			"pay the $187.43 pepco bill now",
			[]string{"pepco"},
		},
		{
			"deduplicates",
			"review review reviews",
			[]string{"review", "reviews"},
		},
		{
			"nothing learnable",
			"do it now",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LearnableKeywords(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("LearnableKeywords(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSignature_StableAcrossOrder(t *testing.T) {
	a := Signature("merge output files tonight")
	b := Signature("tonight merge files output")
	if a != b {
		t.Errorf("Signature not stable: %q vs %q", a, b)
	}
	if a != "files merge output tonight" {
		t.Errorf("Signature = %q, want sorted keywords", a)
	}
}

func TestMergeKeywords(t *testing.T) {
	existing := []string{"pepco", "bill"}
	incoming := []string{"Bill", "UTILITY", "pepco", ""}

	got := MergeKeywords(existing, incoming)
	want := []string{"pepco", "bill", "utility"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeKeywords() = %v, want %v", got, want)
	}
}

func TestConfidenceRecord_Confidence(t *testing.T) {
	tests := []struct {
		name      string
		correct   int
		incorrect int
		want      float64
	}{
		{"no history", 0, 0, 0.5},
		{"all correct", 4, 0, 1.0},
		{"mixed", 3, 1, 0.75},
		{"all incorrect", 0, 5, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ConfidenceRecord{CorrectCount: tt.correct, IncorrectCount: tt.incorrect}
			if got := r.Confidence(); got != tt.want {
				t.Errorf("Confidence() = %v, want %v", got, tt.want)
			}
		})
	}
}
