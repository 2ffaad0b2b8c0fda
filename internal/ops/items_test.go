package ops

import (
	"testing"
	"time"

	"github.com/hpungsan/sift/internal/db"
	sifterrors "github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/item"
)

func TestListItems_FiltersAndPagination(t *testing.T) {
	database := testDB(t)
	seedDomain(t, database, "admin")
	now := time.Now().Unix()
	domain := "admin"
	for i := range 5 {
		id := seedItem(t, database, "task", item.StatusOpen, now+int64(i))
		if err := db.UpdateItemAssignment(database, id, &domain, nil); err != nil {
			t.Fatalf("UpdateItemAssignment failed: %v", err)
		}
	}
	done := seedItem(t, database, "done task", item.StatusOpen, now)
	if _, err := SetItemStatus(database, SetItemStatusInput{ItemID: done, Status: item.StatusCompleted}); err != nil {
		t.Fatalf("SetItemStatus failed: %v", err)
	}

	out, err := ListItems(database, ListItemsInput{Status: item.StatusOpen, Domain: "admin", Limit: 2})
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(out.Items) != 2 {
		t.Errorf("items = %d, want 2", len(out.Items))
	}
	if out.Pagination.Total != 5 {
		t.Errorf("Total = %d, want 5", out.Pagination.Total)
	}
	if !out.Pagination.HasMore {
		t.Error("HasMore = false, want true")
	}

	// Newest first.
	if len(out.Items) == 2 && out.Items[0].CreatedAt < out.Items[1].CreatedAt {
		t.Error("items not sorted newest first")
	}

	last, err := ListItems(database, ListItemsInput{Status: item.StatusOpen, Domain: "admin", Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(last.Items) != 1 {
		t.Errorf("items = %d, want 1 on the last page", len(last.Items))
	}
	if last.Pagination.HasMore {
		t.Error("HasMore = true, want false on the last page")
	}
}

func TestListItems_InvalidStatus(t *testing.T) {
	database := testDB(t)

	_, err := ListItems(database, ListItemsInput{Status: "archived"})
	if !sifterrors.Is(err, sifterrors.ErrInvalidRequest) {
		t.Fatalf("err = %v, want INVALID_REQUEST", err)
	}
}

func TestSetItemStatus(t *testing.T) {
	database := testDB(t)
	id := seedItem(t, database, "walk the dog", item.StatusOpen, time.Now().Unix())

	out, err := SetItemStatus(database, SetItemStatusInput{ItemID: id, Status: item.StatusCompleted})
	if err != nil {
		t.Fatalf("SetItemStatus failed: %v", err)
	}
	if out.Status != item.StatusCompleted {
		t.Errorf("Status = %q, want completed", out.Status)
	}

	it, err := db.GetItem(database, id)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if it.Status != item.StatusCompleted {
		t.Errorf("persisted Status = %q, want completed", it.Status)
	}
}

func TestSetItemStatus_Errors(t *testing.T) {
	database := testDB(t)
	id := seedItem(t, database, "walk the dog", item.StatusOpen, time.Now().Unix())

	if _, err := SetItemStatus(database, SetItemStatusInput{ItemID: id, Status: "done"}); !sifterrors.Is(err, sifterrors.ErrInvalidRequest) {
		t.Errorf("bad status: err = %v, want INVALID_REQUEST", err)
	}
	if _, err := SetItemStatus(database, SetItemStatusInput{ItemID: "01J0000000000000000000000", Status: item.StatusCompleted}); !sifterrors.Is(err, sifterrors.ErrNotFound) {
		t.Errorf("unknown item: err = %v, want NOT_FOUND", err)
	}
}
