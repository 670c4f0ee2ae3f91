package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/raphaelgruber/cognee-viewer/internal/models"
	"github.com/raphaelgruber/cognee-viewer/internal/settings"
)

// ErrorPrefix starts the response text of a failed search.
const ErrorPrefix = "Error: "

// Searcher runs one search and returns the text to display.
type Searcher interface {
	Search(ctx context.Context, query, datasetID, systemPrompt string) (string, error)
}

// Ticket identifies one submission. It captures the dataset and system prompt
// in effect when the prompt was submitted.
type Ticket struct {
	Seq          uint64
	Prompt       string
	DatasetID    string
	SystemPrompt string
}

// Conversation is the append-only history of prompts and answers.
//
// At most one submission is in flight: Begin refuses new prompts while
// loading. Every ticket carries a sequence number; a response is applied only
// if its ticket is still the latest one issued, so Invalidate discards
// responses that arrive after the user moved on.
type Conversation struct {
	searcher Searcher
	logger   *slog.Logger

	mu      sync.Mutex
	entries []models.ConversationEntry
	loading bool
	seq     uint64
}

// NewConversation creates an empty conversation.
func NewConversation(searcher Searcher, logger *slog.Logger) *Conversation {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Conversation{searcher: searcher, logger: logger}
}

// Begin starts a submission. It returns false for empty or whitespace-only
// prompts and while another submission is loading.
func (c *Conversation) Begin(prompt string, cfg settings.Configuration) (Ticket, bool) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Ticket{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loading {
		return Ticket{}, false
	}
	c.loading = true
	c.seq++

	return Ticket{
		Seq:          c.seq,
		Prompt:       prompt,
		DatasetID:    cfg.Dataset,
		SystemPrompt: cfg.SystemPrompt,
	}, true
}

// Run executes the search for t. Failures become an entry whose response is
// "Error: <message>". The entry is appended only if t is still current; the
// second return value reports whether it was. Loading is cleared on every
// path for the current ticket.
func (c *Conversation) Run(ctx context.Context, t Ticket) (models.ConversationEntry, bool) {
	defer c.finish(t.Seq)

	response, err := c.searcher.Search(ctx, t.Prompt, t.DatasetID, t.SystemPrompt)
	if err != nil {
		c.logger.Debug("search failed", "dataset", t.DatasetID, "error", err)
		response = ErrorPrefix + err.Error()
	}
	entry := models.ConversationEntry{Query: t.Prompt, Response: response}

	c.mu.Lock()
	defer c.mu.Unlock()

	if t.Seq != c.seq {
		c.logger.Debug("discarding superseded response", "seq", t.Seq, "latest", c.seq)
		return entry, false
	}
	c.entries = append(c.entries, entry)
	return entry, true
}

func (c *Conversation) finish(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq == c.seq {
		c.loading = false
	}
}

// Submit is Begin followed by Run.
func (c *Conversation) Submit(ctx context.Context, prompt string, cfg settings.Configuration) (models.ConversationEntry, bool) {
	t, ok := c.Begin(prompt, cfg)
	if !ok {
		return models.ConversationEntry{}, false
	}
	return c.Run(ctx, t)
}

// Invalidate supersedes any in-flight submission and re-enables input.
func (c *Conversation) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.loading = false
}

// Loading reports whether a submission is in flight.
func (c *Conversation) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Entries returns a copy of the history in arrival order.
func (c *Conversation) Entries() []models.ConversationEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.ConversationEntry(nil), c.entries...)
}

// Len returns the number of entries.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
