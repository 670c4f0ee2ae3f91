package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/cognee-viewer/internal/client"
	"github.com/raphaelgruber/cognee-viewer/internal/models"
	"github.com/raphaelgruber/cognee-viewer/internal/session"
	"github.com/raphaelgruber/cognee-viewer/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const datasetsJSON = `[
	{"id":"d-notes","name":"notes","createdAt":"2025-01-01T00:00:00Z","updatedAt":"2025-03-01T00:00:00Z"},
	{"id":"d-docs","name":"docs","createdAt":"2025-01-01T00:00:00Z","updatedAt":"2025-03-02T00:00:00Z"}
]`

const itemsJSON = `[
	{"id":"i-1","name":"guide.txt","mimeType":"application/json","createdAt":"2025-01-01T00:00:00Z","updatedAt":"2025-02-01T00:00:00Z"},
	{"id":"i-2","name":"spec.pdf","mimeType":"application/pdf","createdAt":"2025-01-02T00:00:00Z","updatedAt":"2025-01-05T00:00:00Z"}
]`

// fakeBackend records search queries.
type fakeBackend struct {
	mu      sync.Mutex
	queries []string
}

func (f *fakeBackend) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/datasets", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, datasetsJSON)
	})
	mux.HandleFunc("POST /api/v1/search", func(w http.ResponseWriter, r *http.Request) {
		var req client.SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fb.mu.Lock()
		fb.queries = append(fb.queries, req.Query)
		fb.mu.Unlock()
		fmt.Fprintf(w, `[{"answer":"answer to %s"}]`, req.Query)
	})
	mux.HandleFunc("GET /api/v1/datasets/{dataset}/data", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, itemsJSON)
	})
	mux.HandleFunc("GET /api/v1/datasets/{dataset}/data/{item}/raw", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"content":"raw %s"}`, r.PathValue("item"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fb, srv
}

// newTestModel creates a chat model against srv with cfg saved beforehand.
func newTestModel(t *testing.T, srv *httptest.Server, cfg settings.Configuration) (chatModel, *settings.Store) {
	t.Helper()
	st := settings.NewStore(settings.NewMemoryStorage(), nil)
	cfg.ServerURL = srv.URL
	require.NoError(t, st.Save(cfg))

	c := client.New(srv.URL)
	sess := session.New(st, c, c, nil)
	return newChatModel(context.Background(), sess, c, nil), st
}

// runCmd executes cmd and any batched commands, returning the messages
// the program would receive.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, runCmd(c)...)
		}
		return msgs
	}
	return []tea.Msg{msg}
}

// deliver runs cmd and feeds the resulting background results into m.
func deliver(m chatModel, cmd tea.Cmd) chatModel {
	for _, msg := range runCmd(cmd) {
		switch msg.(type) {
		case bootstrapMsg, datasetsMsg, answerMsg, itemsMsg, contentMsg:
			var next tea.Cmd
			m, next = m.handleResult(msg)
			m = deliver(m, next)
		}
	}
	return m
}

func TestChatBootstrapOpensSelector(t *testing.T) {
	_, srv := newFakeBackend(t)
	m, st := newTestModel(t, srv, settings.Defaults())

	m = deliver(m, m.bootstrapCmd())

	assert.False(t, m.bootstrapping)
	assert.Equal(t, session.ViewDatasetSelector, m.sess.View())
	require.Len(t, m.datasets, 2)
	assert.Equal(t, "docs", m.datasets[0].Name, "most recently updated first")

	m, _ = m.handleKey("down", nil)
	m, _ = m.handleKey("enter", nil)

	assert.Equal(t, session.ViewNone, m.sess.View())
	assert.Equal(t, "d-notes", st.Load().Dataset)
	assert.Equal(t, "notes", st.Load().DatasetName)
	assert.Contains(t, m.status, "notes")
}

func TestChatSelectorEscapeCloses(t *testing.T) {
	_, srv := newFakeBackend(t)
	m, _ := newTestModel(t, srv, settings.Defaults().WithDataset("d-notes", "notes"))

	m, cmd := m.handleKey("ctrl+d", nil)
	assert.Equal(t, session.ViewDatasetSelector, m.sess.View())
	assert.True(t, m.datasetsLoading)
	m = deliver(m, cmd)
	assert.Equal(t, 1, m.cursor, "cursor starts on the current dataset")

	m, _ = m.handleKey("esc", nil)
	assert.Equal(t, session.ViewNone, m.sess.View())
}

func TestChatSubmit(t *testing.T) {
	fb, srv := newFakeBackend(t)
	m, _ := newTestModel(t, srv, settings.Defaults().WithDataset("d-docs", "docs"))
	m = deliver(m, m.bootstrapCmd())

	m.input.SetValue("what is new?")
	m, cmd := m.handleKey("enter", nil)
	require.NotNil(t, cmd)
	assert.True(t, m.sess.Conversation().Loading())
	assert.Empty(t, m.input.Value())

	// A second submission while loading is ignored.
	m.input.SetValue("again")
	_, second := m.handleKey("enter", nil)
	assert.Nil(t, second)

	m = deliver(m, cmd)

	entries := m.sess.Conversation().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "what is new?", entries[0].Query)
	assert.Equal(t, "answer to what is new?", entries[0].Response)
	assert.False(t, m.sess.Conversation().Loading())
	assert.Equal(t, []string{"what is new?"}, fb.Queries())
	assert.Contains(t, m.renderContent(), "answer to what is new?")
}

func TestChatSubmitBlankIgnored(t *testing.T) {
	_, srv := newFakeBackend(t)
	m, _ := newTestModel(t, srv, settings.Defaults().WithDataset("d-docs", "docs"))

	m.input.SetValue("   ")
	m, cmd := m.handleKey("enter", nil)
	assert.Nil(t, cmd)
	assert.False(t, m.sess.Conversation().Loading())
}

func TestChatSettingsSave(t *testing.T) {
	_, srv := newFakeBackend(t)
	m, st := newTestModel(t, srv, settings.Defaults().WithDataset("d-docs", "docs"))

	m, _ = m.handleKey("ctrl+s", nil)
	require.Equal(t, session.ViewSettings, m.sess.View())
	require.Len(t, m.fields, 4)
	assert.Equal(t, srv.URL, m.fields[fieldServerURL].Value())
	assert.Equal(t, "d-docs", m.fields[fieldDataset].Value())

	m, _ = m.handleKey("tab", nil)
	assert.Equal(t, fieldDataset, m.focus)
	m, _ = m.handleKey("shift+tab", nil)
	m, _ = m.handleKey("shift+tab", nil)
	assert.Equal(t, fieldSystemPrompt, m.focus, "focus wraps around")

	m.fields[fieldSystemPrompt].SetValue("Answer briefly.")
	m, _ = m.handleKey("ctrl+s", nil)

	assert.Equal(t, session.ViewNone, m.sess.View())
	assert.Equal(t, "Answer briefly.", st.Load().SystemPrompt)
	assert.Equal(t, "d-docs", st.Load().Dataset)
	assert.Equal(t, "Settings saved", m.status)
}

func TestChatSettingsEscapeDiscards(t *testing.T) {
	_, srv := newFakeBackend(t)
	m, st := newTestModel(t, srv, settings.Defaults().WithDataset("d-docs", "docs"))

	m, _ = m.handleKey("ctrl+s", nil)
	m.fields[fieldSystemPrompt].SetValue("changed")
	m, _ = m.handleKey("esc", nil)

	assert.Equal(t, session.ViewNone, m.sess.View())
	assert.Equal(t, settings.Defaults().SystemPrompt, st.Load().SystemPrompt)
}

func TestChatBrowser(t *testing.T) {
	_, srv := newFakeBackend(t)
	m, _ := newTestModel(t, srv, settings.Defaults().WithDataset("d-docs", "docs"))

	m, cmd := m.handleKey("ctrl+b", nil)
	require.Equal(t, session.ViewDataBrowser, m.sess.View())
	assert.True(t, m.itemsLoading)
	m = deliver(m, cmd)
	assert.False(t, m.itemsLoading)

	items := m.browser.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "i-1", items[0].ID, "updated descending by default")

	m, _ = m.handleKey("u", nil)
	assert.Equal(t, "i-2", m.browser.Items()[0].ID, "toggling the same key reverses the order")

	m, cmd = m.handleKey("enter", nil)
	assert.Equal(t, "i-2", m.openItem)
	assert.True(t, m.contentLoading)
	m = deliver(m, cmd)
	assert.False(t, m.contentLoading)
	assert.Equal(t, "raw i-2", m.rendered)
	assert.Equal(t, "spec.pdf", m.heading)
	assert.Contains(t, m.renderContent(), "spec.pdf")

	m, _ = m.handleKey("esc", nil)
	assert.Empty(t, m.openItem)
	assert.Empty(t, m.heading)
	assert.Equal(t, session.ViewDataBrowser, m.sess.View(), "esc returns to the list first")

	m, _ = m.handleKey("esc", nil)
	assert.Equal(t, session.ViewNone, m.sess.View())
	assert.Nil(t, m.browser)
}

func TestChatBrowserNeedsDataset(t *testing.T) {
	_, srv := newFakeBackend(t)
	m, _ := newTestModel(t, srv, settings.Defaults())

	m, cmd := m.handleKey("ctrl+b", nil)
	assert.Nil(t, cmd)
	assert.Equal(t, session.ViewNone, m.sess.View())
	assert.NotEmpty(t, m.errText)
}

func TestChatQuit(t *testing.T) {
	_, srv := newFakeBackend(t)
	m, _ := newTestModel(t, srv, settings.Defaults())

	m, cmd := m.handleKey("ctrl+c", nil)
	assert.True(t, m.quitting)
	assert.NotNil(t, cmd)
	assert.Empty(t, m.renderContent())
}

func TestTailLines(t *testing.T) {
	assert.Equal(t, "c\nd", tailLines("a\nb\nc\nd", 2))
	assert.Equal(t, "a\nb", tailLines("a\nb", 5))
	assert.Equal(t, "a\nb", tailLines("a\nb", 0))
}

func TestRunLineChat(t *testing.T) {
	fb, srv := newFakeBackend(t)
	st := settings.NewStore(settings.NewMemoryStorage(), nil)
	require.NoError(t, st.Save(settings.Configuration{ServerURL: srv.URL, Dataset: "d-docs", DatasetName: "docs"}))
	c := client.New(srv.URL)
	sess := session.New(st, c, c, nil)

	var out bytes.Buffer
	err := runLineChat(context.Background(), sess, strings.NewReader("first\n\n  \nsecond\n"), &out)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, fb.Queries(), "blank lines are not submitted")
	assert.Contains(t, out.String(), "answer to first")
	assert.Contains(t, out.String(), "answer to second")
	assert.Len(t, sess.Conversation().Entries(), 2)
}

func TestRunLineChatWithoutDataset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	st := settings.NewStore(settings.NewMemoryStorage(), nil)
	c := client.New(srv.URL)
	sess := session.New(st, c, c, nil)

	var out bytes.Buffer
	err := runLineChat(context.Background(), sess, strings.NewReader("hello\n"), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no dataset selected")
}

func TestFindDataset(t *testing.T) {
	datasets := []models.Dataset{{ID: "d1", Name: "alpha"}, {ID: "d2", Name: "d1"}}

	d, ok := findDataset(datasets, "d1")
	require.True(t, ok)
	assert.Equal(t, "d1", d.ID, "IDs win over names")

	d, ok = findDataset(datasets, "alpha")
	require.True(t, ok)
	assert.Equal(t, "d1", d.ID)

	_, ok = findDataset(datasets, "missing")
	assert.False(t, ok)
}

func TestBackendFollowsServerURL(t *testing.T) {
	fb1, srv1 := newFakeBackend(t)
	fb2, srv2 := newFakeBackend(t)

	url := srv1.URL
	be := newBackend(func() string { return url })
	assert.Equal(t, srv1.URL, be.BaseURL())

	_, err := be.Search(context.Background(), "one", "d", "")
	require.NoError(t, err)

	url = srv2.URL
	assert.Equal(t, srv2.URL, be.BaseURL())
	_, err = be.Search(context.Background(), "two", "d", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"one"}, fb1.Queries())
	assert.Equal(t, []string{"two"}, fb2.Queries())
}
