package ops

import (
	"github.com/hpungsan/sift/internal/db"
	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/item"
)

// ListItemsInput contains parameters for the ListItems operation.
type ListItemsInput struct {
	Status    string // optional filter
	Domain    string // optional filter
	ProjectID string // optional filter
	Limit     int
	Offset    int
}

// ListItemsOutput contains the result of the ListItems operation.
type ListItemsOutput struct {
	Items      []*item.Item `json:"items"`
	Pagination Pagination   `json:"pagination"`
}

// ListItems returns items newest first, filtered by any combination of
// status, domain and project.
func ListItems(q db.DBTX, input ListItemsInput) (*ListItemsOutput, error) {
	if input.Status != "" {
		switch input.Status {
		case item.StatusOpen, item.StatusCompleted, item.StatusIgnored:
		default:
			return nil, errors.NewInvalidRequest("status must be one of: open, completed, ignored")
		}
	}
	domain := input.Domain
	if domain != "" {
		domain = item.Normalize(domain)
	}

	limit := clampLimit(input.Limit)
	offset := max(input.Offset, 0)

	items, err := db.ListItems(q, input.Status, domain, input.ProjectID, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := db.CountItems(q, input.Status, domain, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*item.Item{}
	}

	return &ListItemsOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
	}, nil
}

// GetItem returns one item by ID.
func GetItem(q db.DBTX, id string) (*item.Item, error) {
	if id == "" {
		return nil, errors.NewInvalidRequest("item_id is required")
	}
	return db.GetItem(q, id)
}

// SetItemStatusInput contains parameters for the SetItemStatus operation.
type SetItemStatusInput struct {
	ItemID string // required
	Status string // open | completed | ignored
}

// SetItemStatusOutput contains the result of the SetItemStatus operation.
type SetItemStatusOutput struct {
	ItemID string `json:"item_id"`
	Status string `json:"status"`
}

// SetItemStatus moves an item through its lifecycle.
func SetItemStatus(q db.DBTX, input SetItemStatusInput) (*SetItemStatusOutput, error) {
	if input.ItemID == "" {
		return nil, errors.NewInvalidRequest("item_id is required")
	}
	switch input.Status {
	case item.StatusOpen, item.StatusCompleted, item.StatusIgnored:
	default:
		return nil, errors.NewInvalidRequest("status must be one of: open, completed, ignored")
	}
	if err := db.UpdateItemStatus(q, input.ItemID, input.Status); err != nil {
		return nil, err
	}
	return &SetItemStatusOutput{ItemID: input.ItemID, Status: input.Status}, nil
}
