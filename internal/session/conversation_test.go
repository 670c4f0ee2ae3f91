package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/raphaelgruber/cognee-viewer/internal/models"
	"github.com/raphaelgruber/cognee-viewer/internal/session"
	"github.com/raphaelgruber/cognee-viewer/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

type searchCall struct {
	query, datasetID, systemPrompt string
}

// fakeSearcher answers with a fixed response or error and records calls.
type fakeSearcher struct {
	mu       sync.Mutex
	response string
	err      error
	calls    []searchCall
	// gate, when set, blocks Search until it is closed.
	gate chan struct{}
}

func (f *fakeSearcher) Search(ctx context.Context, query, datasetID, systemPrompt string) (string, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, searchCall{query, datasetID, systemPrompt})
	return f.response, f.err
}

var testConfig = settings.Configuration{Dataset: "d1", SystemPrompt: "sys"}

func TestSubmitAppendsAnswer(t *testing.T) {
	searcher := &fakeSearcher{response: "X"}
	c := session.NewConversation(searcher, nil)

	entry, ok := c.Submit(context.Background(), "  what?  ", testConfig)

	require.True(t, ok)
	assert.Equal(t, models.ConversationEntry{Query: "what?", Response: "X"}, entry)
	assert.Equal(t, []models.ConversationEntry{entry}, c.Entries())
	assert.False(t, c.Loading())
	assert.Equal(t, []searchCall{{"what?", "d1", "sys"}}, searcher.calls)
}

func TestSubmitAbsorbsErrors(t *testing.T) {
	c := session.NewConversation(&fakeSearcher{err: errors.New("Request failed with status code 500")}, nil)

	entry, ok := c.Submit(context.Background(), "q", testConfig)

	require.True(t, ok)
	assert.Equal(t, "Error: Request failed with status code 500", entry.Response)
	assert.Equal(t, 1, c.Len())
	assert.False(t, c.Loading())
}

func TestSubmitRejectsBlankPrompts(t *testing.T) {
	searcher := &fakeSearcher{response: "X"}
	c := session.NewConversation(searcher, nil)

	for _, prompt := range []string{"", "   ", "\n\t"} {
		_, ok := c.Submit(context.Background(), prompt, testConfig)
		assert.False(t, ok)
	}
	assert.Zero(t, c.Len())
	assert.Empty(t, searcher.calls)
	assert.False(t, c.Loading())
}

func TestOneEntryPerSubmission(t *testing.T) {
	outcomes := []error{nil, errors.New("a"), nil, errors.New("b"), nil}
	searcher := &fakeSearcher{response: "ok"}
	c := session.NewConversation(searcher, nil)

	for i, outcome := range outcomes {
		searcher.err = outcome
		_, ok := c.Submit(context.Background(), "q", testConfig)
		require.True(t, ok)
		assert.Equal(t, i+1, c.Len())
		assert.False(t, c.Loading())
	}
}

func TestEntriesKeepArrivalOrder(t *testing.T) {
	searcher := &fakeSearcher{}
	c := session.NewConversation(searcher, nil)

	for _, q := range []string{"one", "two", "three"} {
		searcher.response = q + "!"
		c.Submit(context.Background(), q, testConfig)
	}

	entries := c.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "one", entries[0].Query)
	assert.Equal(t, "three!", entries[2].Response)

	entries[0].Query = "mutated"
	assert.Equal(t, "one", c.Entries()[0].Query, "Entries returns a copy")
}

func TestLoadingBlocksSecondSubmission(t *testing.T) {
	searcher := &fakeSearcher{response: "X", gate: make(chan struct{})}
	c := session.NewConversation(searcher, nil)

	ticket, ok := c.Begin("first", testConfig)
	require.True(t, ok)
	assert.True(t, c.Loading())

	_, ok = c.Begin("second", testConfig)
	assert.False(t, ok, "input is disabled while loading")

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(context.Background(), ticket)
	}()
	close(searcher.gate)
	<-done

	assert.False(t, c.Loading())
	assert.Equal(t, 1, c.Len())

	_, ok = c.Begin("third", testConfig)
	assert.True(t, ok)
}

func TestInvalidateDiscardsStaleResponse(t *testing.T) {
	searcher := &fakeSearcher{response: "stale"}
	c := session.NewConversation(searcher, nil)

	stale, ok := c.Begin("old question", testConfig)
	require.True(t, ok)

	c.Invalidate()
	assert.False(t, c.Loading(), "invalidate re-enables input")

	fresh, ok := c.Begin("new question", testConfig)
	require.True(t, ok)

	_, applied := c.Run(context.Background(), stale)
	assert.False(t, applied)
	assert.Zero(t, c.Len())
	assert.True(t, c.Loading(), "stale completion leaves the current submission loading")

	searcher.response = "fresh"
	entry, applied := c.Run(context.Background(), fresh)
	assert.True(t, applied)
	assert.Equal(t, "fresh", entry.Response)
	assert.Equal(t, 1, c.Len())
	assert.False(t, c.Loading())
}

func TestTicketCapturesConfiguration(t *testing.T) {
	c := session.NewConversation(&fakeSearcher{}, nil)
	ticket, ok := c.Begin("q", settings.Configuration{Dataset: "d7", SystemPrompt: "p7"})
	require.True(t, ok)
	assert.Equal(t, "d7", ticket.DatasetID)
	assert.Equal(t, "p7", ticket.SystemPrompt)
	assert.Equal(t, uint64(1), ticket.Seq)
}

func TestSelectDatasetDiscardsInFlightSearch(t *testing.T) {
	searcher := &fakeSearcher{response: "old dataset answer"}
	cfg := settings.Defaults().WithDataset("d1", "one")
	s := session.New(newStore(t, &cfg), &fakeDirectory{}, searcher, nil)

	ticket, ok := s.Begin("q")
	require.True(t, ok)

	require.NoError(t, s.SelectDataset("d2", "two"))

	_, applied := s.Conversation().Run(context.Background(), ticket)
	assert.False(t, applied)
	assert.Zero(t, s.Conversation().Len())
	assert.False(t, s.Conversation().Loading())

	searcher.response = "new dataset answer"
	entry, ok := s.Submit(context.Background(), "q")
	require.True(t, ok)
	assert.Equal(t, "new dataset answer", entry.Response)
	assert.Equal(t, "d2", searcher.calls[len(searcher.calls)-1].datasetID)
}
