package ops

import (
	"context"
	"testing"
	"time"

	"github.com/hpungsan/sift/internal/db"
	sifterrors "github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/item"
)

func TestConsolidate_MergeMovesItems(t *testing.T) {
	database := testDB(t)
	seedDomain(t, database, "work")
	canonical := seedProject(t, database, "work", "Website Redesign")
	variantA := seedProject(t, database, "work", "website")
	variantB := seedProject(t, database, "work", "Site Redesign")

	now := time.Now().Unix()
	for i, pid := range []string{variantA, variantA, variantB} {
		id := seedItem(t, database, "task", item.StatusOpen, now+int64(i))
		if err := db.UpdateItemAssignment(database, id, nil, &pid); err != nil {
			t.Fatalf("UpdateItemAssignment failed: %v", err)
		}
	}

	out, err := Consolidate(context.Background(), database, ConsolidateInput{
		Domain:        "work",
		Variants:      []string{"website", "Site Redesign"},
		CanonicalName: "Website Redesign",
	})
	if err != nil {
		t.Fatalf("Consolidate failed: %v", err)
	}
	if out.TargetProjectID != canonical {
		t.Errorf("TargetProjectID = %q, want %q", out.TargetProjectID, canonical)
	}
	if out.ItemsMoved != 3 {
		t.Errorf("ItemsMoved = %d, want 3", out.ItemsMoved)
	}
	if len(out.Removed) != 2 {
		t.Errorf("Removed = %v, want 2 projects", out.Removed)
	}

	// Every item now points at the canonical project.
	n, err := db.CountItemsByProject(database, canonical)
	if err != nil {
		t.Fatalf("CountItemsByProject failed: %v", err)
	}
	if n != 3 {
		t.Errorf("canonical project items = %d, want 3", n)
	}

	// The variant rows are gone.
	if _, err := db.GetProject(database, variantA); !sifterrors.Is(err, sifterrors.ErrNotFound) {
		t.Errorf("variantA still exists: %v", err)
	}
	if _, err := db.GetProject(database, variantB); !sifterrors.Is(err, sifterrors.ErrNotFound) {
		t.Errorf("variantB still exists: %v", err)
	}
}

func TestConsolidate_MergeWithoutExistingCanonicalPromotesFirstVariant(t *testing.T) {
	database := testDB(t)
	seedDomain(t, database, "work")
	variantA := seedProject(t, database, "work", "website")
	variantB := seedProject(t, database, "work", "site")

	out, err := Consolidate(context.Background(), database, ConsolidateInput{
		Domain:        "work",
		Variants:      []string{"website", "site"},
		CanonicalName: "Website Redesign",
	})
	if err != nil {
		t.Fatalf("Consolidate failed: %v", err)
	}
	if out.TargetProjectID != variantA {
		t.Errorf("TargetProjectID = %q, want promoted first variant %q", out.TargetProjectID, variantA)
	}

	p, err := db.GetProject(database, variantA)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if p.Name != "Website Redesign" {
		t.Errorf("Name = %q, want %q", p.Name, "Website Redesign")
	}
	if _, err := db.GetProject(database, variantB); !sifterrors.Is(err, sifterrors.ErrNotFound) {
		t.Errorf("variantB still exists: %v", err)
	}
}

func TestConsolidate_MergeUnionsKeywords(t *testing.T) {
	database := testDB(t)
	seedDomain(t, database, "work")
	canonical := seedProject(t, database, "work", "Website Redesign", "website")
	seedProject(t, database, "work", "site redesign", "redesign", "frontend")

	_, err := Consolidate(context.Background(), database, ConsolidateInput{
		Domain:        "work",
		Variants:      []string{"site redesign"},
		CanonicalName: "Website Redesign",
	})
	if err != nil {
		t.Fatalf("Consolidate failed: %v", err)
	}

	p, err := db.GetProject(database, canonical)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	want := map[string]bool{"website": true, "redesign": true, "frontend": true}
	for _, kw := range p.Keywords {
		delete(want, kw)
	}
	if len(want) != 0 {
		t.Errorf("keywords missing %v (got %v)", want, p.Keywords)
	}
}

func TestConsolidate_Rename(t *testing.T) {
	database := testDB(t)
	seedDomain(t, database, "work")
	id := seedProject(t, database, "work", "webste redesgin")

	out, err := Consolidate(context.Background(), database, ConsolidateInput{
		Domain:        "work",
		Variants:      []string{"webste redesgin"},
		CanonicalName: "Website Redesign",
		Mode:          ConsolidateRename,
	})
	if err != nil {
		t.Fatalf("Consolidate failed: %v", err)
	}
	if out.TargetProjectID != id {
		t.Errorf("TargetProjectID = %q, want %q", out.TargetProjectID, id)
	}
	if out.ItemsMoved != 0 {
		t.Errorf("ItemsMoved = %d, want 0", out.ItemsMoved)
	}

	p, err := db.GetProject(database, id)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if p.Name != "Website Redesign" {
		t.Errorf("Name = %q, want renamed", p.Name)
	}
}

func TestConsolidate_RenameOntoExistingNameConflicts(t *testing.T) {
	database := testDB(t)
	seedDomain(t, database, "work")
	seedProject(t, database, "work", "Website Redesign")
	seedProject(t, database, "work", "website")

	_, err := Consolidate(context.Background(), database, ConsolidateInput{
		Domain:        "work",
		Variants:      []string{"website"},
		CanonicalName: "Website Redesign",
		Mode:          ConsolidateRename,
	})
	if !sifterrors.Is(err, sifterrors.ErrConflict) {
		t.Fatalf("err = %v, want CONFLICT", err)
	}
}

func TestConsolidate_UnknownVariant(t *testing.T) {
	database := testDB(t)
	seedDomain(t, database, "work")
	seedProject(t, database, "work", "Website Redesign")

	_, err := Consolidate(context.Background(), database, ConsolidateInput{
		Domain:        "work",
		Variants:      []string{"no such project"},
		CanonicalName: "Website Redesign",
	})
	if !sifterrors.Is(err, sifterrors.ErrNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestConsolidate_UnknownDomain(t *testing.T) {
	database := testDB(t)

	_, err := Consolidate(context.Background(), database, ConsolidateInput{
		Domain:        "nowhere",
		Variants:      []string{"x"},
		CanonicalName: "y",
	})
	if !sifterrors.Is(err, sifterrors.ErrNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestConsolidate_Validation(t *testing.T) {
	database := testDB(t)
	seedDomain(t, database, "work")

	tests := []struct {
		name  string
		input ConsolidateInput
	}{
		{"missing domain", ConsolidateInput{CanonicalName: "x", Variants: []string{"a"}}},
		{"missing canonical", ConsolidateInput{Domain: "work", Variants: []string{"a"}}},
		{"no variants", ConsolidateInput{Domain: "work", CanonicalName: "x"}},
		{"bad mode", ConsolidateInput{Domain: "work", CanonicalName: "x", Variants: []string{"a"}, Mode: "split"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Consolidate(context.Background(), database, tt.input); !sifterrors.Is(err, sifterrors.ErrInvalidRequest) {
				t.Errorf("err = %v, want INVALID_REQUEST", err)
			}
		})
	}
}
