package browser

import (
	"cmp"
	"slices"
	"strings"

	"github.com/raphaelgruber/cognee-viewer/internal/models"
)

// SortKey is a column data items can be sorted by.
type SortKey int

const (
	SortName SortKey = iota
	SortCreatedAt
	SortUpdatedAt
)

func (k SortKey) String() string {
	switch k {
	case SortName:
		return "name"
	case SortCreatedAt:
		return "created"
	case SortUpdatedAt:
		return "updated"
	default:
		return "unknown"
	}
}

// ParseSortKey maps "name", "created" or "updated" to a SortKey.
func ParseSortKey(s string) (SortKey, bool) {
	switch strings.ToLower(s) {
	case "name":
		return SortName, true
	case "created", "createdat":
		return SortCreatedAt, true
	case "updated", "updatedat":
		return SortUpdatedAt, true
	default:
		return 0, false
	}
}

// Order is the sort direction.
type Order int

const (
	Descending Order = iota
	Ascending
)

// Sorter is the current column and direction.
type Sorter struct {
	Key   SortKey
	Order Order
}

// DefaultSorter lists the most recently updated items first.
func DefaultSorter() Sorter {
	return Sorter{Key: SortUpdatedAt, Order: Descending}
}

// Toggle selects key. Selecting the current key flips the order;
// a new key starts descending.
func (s Sorter) Toggle(key SortKey) Sorter {
	if s.Key == key {
		if s.Order == Descending {
			s.Order = Ascending
		} else {
			s.Order = Descending
		}
		return s
	}
	return Sorter{Key: key, Order: Descending}
}

// Sort orders items in place. Items equal on the key are ordered by ID,
// so the result is deterministic.
func (s Sorter) Sort(items []models.DataItem) {
	slices.SortStableFunc(items, s.compare)
}

func (s Sorter) compare(a, b models.DataItem) int {
	var c int
	switch s.Key {
	case SortName:
		c = cmp.Compare(strings.ToLower(a.Title()), strings.ToLower(b.Title()))
	case SortCreatedAt:
		c = a.CreatedAt.Compare(b.CreatedAt.Time)
	case SortUpdatedAt:
		c = a.UpdatedAt.Compare(b.UpdatedAt.Time)
	}
	if c == 0 {
		c = cmp.Compare(a.ID, b.ID)
	}
	if s.Order == Descending {
		return -c
	}
	return c
}
