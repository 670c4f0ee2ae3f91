// Package browser implements the data item browser of a dataset: a sortable
// listing and a lazily fetched content view.
package browser

import (
	"context"
	"log/slog"
	"sync"

	"github.com/raphaelgruber/cognee-viewer/internal/models"
)

const (
	// ItemsErrorText replaces the listing when it cannot be fetched.
	ItemsErrorText = "Failed to load data items"
	// ContentErrorText replaces item content that cannot be fetched.
	ContentErrorText = "Failed to load content"
)

// ItemSource fetches data items and their content.
type ItemSource interface {
	ListItems(ctx context.Context, datasetID string) ([]models.DataItem, error)
	FetchRaw(ctx context.Context, datasetID, itemID string) (string, error)
}

// Browser is the state of one browse session over a dataset.
// The listing is a snapshot taken by Load; sorting never refetches.
type Browser struct {
	source    ItemSource
	datasetID string
	logger    *slog.Logger

	mu       sync.Mutex
	items    []models.DataItem
	sorter   Sorter
	errText  string
	selected *models.DataItem
	content  string
}

// New creates a browser for datasetID.
func New(source ItemSource, datasetID string, logger *slog.Logger) *Browser {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Browser{
		source:    source,
		datasetID: datasetID,
		logger:    logger,
		sorter:    DefaultSorter(),
	}
}

// DatasetID returns the browsed dataset.
func (b *Browser) DatasetID() string {
	return b.datasetID
}

// Load fetches the item listing. On failure the listing is empty and
// Err returns ItemsErrorText.
func (b *Browser) Load(ctx context.Context) error {
	items, err := b.source.ListItems(ctx, b.datasetID)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.logger.Warn("fetch data items failed", "dataset", b.datasetID, "error", err)
		b.items = nil
		b.errText = ItemsErrorText
		return err
	}
	b.items = items
	b.errText = ""
	b.sorter.Sort(b.items)
	return nil
}

// Items returns the sorted listing.
func (b *Browser) Items() []models.DataItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.DataItem(nil), b.items...)
}

// Err returns the listing error text, or "".
func (b *Browser) Err() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errText
}

// Sorter returns the current sort.
func (b *Browser) Sorter() Sorter {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sorter
}

// SetSorter replaces the sort and reorders the listing.
func (b *Browser) SetSorter(s Sorter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sorter = s
	s.Sort(b.items)
}

// ToggleSort applies Sorter.Toggle for key and reorders the listing.
func (b *Browser) ToggleSort(key SortKey) Sorter {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sorter = b.sorter.Toggle(key)
	b.sorter.Sort(b.items)
	return b.sorter
}

// Select opens the content view for itemID and fetches its content.
// Fetch failures show ContentErrorText instead of blocking the view.
func (b *Browser) Select(ctx context.Context, itemID string) (string, bool) {
	b.mu.Lock()
	var item *models.DataItem
	for i := range b.items {
		if b.items[i].ID == itemID {
			it := b.items[i]
			item = &it
			break
		}
	}
	if item == nil {
		b.mu.Unlock()
		return "", false
	}
	b.selected = item
	b.content = ""
	b.mu.Unlock()

	content, err := b.source.FetchRaw(ctx, b.datasetID, itemID)
	if err != nil {
		b.logger.Warn("fetch content failed", "dataset", b.datasetID, "item", itemID, "error", err)
		content = ContentErrorText
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	// The user may have gone back or picked another item meanwhile.
	if b.selected == nil || b.selected.ID != itemID {
		return content, true
	}
	b.content = content
	return content, true
}

// Selected returns the item whose content view is open.
func (b *Browser) Selected() (models.DataItem, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.selected == nil {
		return models.DataItem{}, false
	}
	return *b.selected, true
}

// Content returns the fetched content of the selected item.
func (b *Browser) Content() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.content
}

// Back returns from the content view to the listing.
func (b *Browser) Back() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selected = nil
	b.content = ""
}

// Escape handles the Escape key: an open content view returns to the
// listing; otherwise it reports that the browser should close.
func (b *Browser) Escape() (closeBrowser bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.selected != nil {
		b.selected = nil
		b.content = ""
		return false
	}
	return true
}
