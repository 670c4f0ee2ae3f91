package models

import (
	"cmp"
	"slices"
)

// Dataset is a named, backend-owned collection of ingested documents.
type Dataset struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
	OwnerID   string    `json:"ownerId,omitempty"`
}

// FindDatasetByName returns the first dataset whose name equals name exactly.
func FindDatasetByName(datasets []Dataset, name string) (Dataset, bool) {
	for _, d := range datasets {
		if d.Name == name {
			return d, true
		}
	}
	return Dataset{}, false
}

// FindDataset returns the dataset with the given ID.
func FindDataset(datasets []Dataset, id string) (Dataset, bool) {
	for _, d := range datasets {
		if d.ID == id {
			return d, true
		}
	}
	return Dataset{}, false
}

// SortDatasetsByRecency orders datasets most recently updated first.
// Missing timestamps sort as the epoch.
func SortDatasetsByRecency(datasets []Dataset) {
	slices.SortStableFunc(datasets, func(a, b Dataset) int {
		return cmp.Compare(b.UpdatedAt.UnixMilli(), a.UpdatedAt.UnixMilli())
	})
}
