package cli

import (
	"context"
	"sync"

	"github.com/raphaelgruber/cognee-viewer/internal/client"
	"github.com/raphaelgruber/cognee-viewer/internal/models"
)

// backend routes calls to a client for the current server URL, so a server
// URL saved in the settings dialog applies to the next request.
type backend struct {
	mu      sync.Mutex
	current func() string
	opts    []client.Option
	url     string
	client  *client.Client
}

func newBackend(current func() string, opts ...client.Option) *backend {
	return &backend{current: current, opts: opts}
}

func (b *backend) get() *client.Client {
	b.mu.Lock()
	defer b.mu.Unlock()
	url := b.current()
	if b.client == nil || url != b.url {
		b.client = client.New(url, b.opts...)
		b.url = url
	}
	return b.client
}

// BaseURL returns the URL requests currently go to.
func (b *backend) BaseURL() string {
	return b.get().BaseURL()
}

func (b *backend) ListDatasets(ctx context.Context) ([]models.Dataset, error) {
	return b.get().ListDatasets(ctx)
}

func (b *backend) Search(ctx context.Context, query, datasetID, systemPrompt string) (string, error) {
	return b.get().Search(ctx, query, datasetID, systemPrompt)
}

func (b *backend) ListItems(ctx context.Context, datasetID string) ([]models.DataItem, error) {
	return b.get().ListItems(ctx, datasetID)
}

func (b *backend) FetchRaw(ctx context.Context, datasetID, itemID string) (string, error) {
	return b.get().FetchRaw(ctx, datasetID, itemID)
}
