// Package session holds the client-side state of the viewer: the active
// configuration, the one-time dataset bootstrap, the open dialog and the
// conversation history.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/raphaelgruber/cognee-viewer/internal/models"
	"github.com/raphaelgruber/cognee-viewer/internal/settings"
)

// DatasetsErrorText is shown in place of the dataset list when it cannot be fetched.
const DatasetsErrorText = "Failed to load datasets"

// DatasetLister fetches the dataset directory.
type DatasetLister interface {
	ListDatasets(ctx context.Context) ([]models.Dataset, error)
}

// Option configures a Session.
type Option func(*Session)

// WithDefaultDatasetName overrides the dataset name bootstrap looks for.
func WithDefaultDatasetName(name string) Option {
	return func(s *Session) { s.defaultName = name }
}

// Session coordinates configuration, bootstrap, dialogs and the conversation.
// All methods are safe for concurrent use.
type Session struct {
	store       *settings.Store
	datasets    DatasetLister
	conv        *Conversation
	defaultName string
	logger      *slog.Logger

	mu           sync.Mutex
	cfg          settings.Configuration
	state        BootstrapState
	bootstrapped bool
	view         View
}

// New loads the configuration from store and creates a session.
func New(store *settings.Store, datasets DatasetLister, searcher Searcher, logger *slog.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Session{
		store:       store,
		datasets:    datasets,
		conv:        NewConversation(searcher, logger),
		defaultName: settings.DefaultDatasetName,
		logger:      logger,
		cfg:         store.Load(),
		state:       StateNoDataset,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.HasDataset() {
		s.state = StateResolved
	}
	return s
}

// Config returns the active configuration.
func (s *Session) Config() settings.Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// State returns the bootstrap state.
func (s *Session) State() BootstrapState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View returns the open dialog.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Open shows v, replacing any open dialog.
func (s *Session) Open(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
}

// Close hides the open dialog.
func (s *Session) Close() {
	s.Open(ViewNone)
}

// Conversation returns the conversation history.
func (s *Session) Conversation() *Conversation {
	return s.conv
}

// Bootstrap resolves the active dataset. It runs once per session; later
// calls return the current state without side effects.
//
// With a dataset already configured nothing is fetched. Otherwise the dataset
// directory is searched for the default dataset name: a match is persisted
// and the session is resolved; no match or a failed fetch opens the dataset
// selector.
func (s *Session) Bootstrap(ctx context.Context) BootstrapState {
	s.mu.Lock()
	if s.bootstrapped {
		defer s.mu.Unlock()
		return s.state
	}
	s.bootstrapped = true
	if s.cfg.HasDataset() {
		s.state = StateResolved
		s.mu.Unlock()
		return StateResolved
	}
	s.state = StateResolvingDefault
	s.mu.Unlock()

	datasets, err := s.datasets.ListDatasets(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.logger.Warn("dataset bootstrap failed", "error", err)
		return s.promptLocked()
	}

	match, ok := models.FindDatasetByName(datasets, s.defaultName)
	if !ok {
		s.logger.Info("default dataset not found", "name", s.defaultName, "datasets", len(datasets))
		return s.promptLocked()
	}

	s.cfg = s.cfg.WithDataset(match.ID, match.Name)
	if err := s.store.Save(s.cfg); err != nil {
		s.logger.Warn("persist bootstrapped dataset failed", "error", err)
	}
	s.state = StateResolved
	s.logger.Info("dataset resolved", "id", match.ID, "name", match.Name)
	return s.state
}

func (s *Session) promptLocked() BootstrapState {
	s.state = StatePromptingUser
	s.view = ViewDatasetSelector
	return s.state
}

// ListDatasets fetches the directory for the selector, most recently updated first.
func (s *Session) ListDatasets(ctx context.Context) ([]models.Dataset, error) {
	datasets, err := s.datasets.ListDatasets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	models.SortDatasetsByRecency(datasets)
	return datasets, nil
}

// SelectDataset makes id the active dataset, persists it and closes the
// selector. In-flight searches against the previous dataset are discarded.
func (s *Session) SelectDataset(id, name string) error {
	s.mu.Lock()
	changed := s.cfg.Dataset != id
	s.cfg = s.cfg.WithDataset(id, name)
	s.state = StateResolved
	if s.view == ViewDatasetSelector {
		s.view = ViewNone
	}
	cfg := s.cfg
	s.mu.Unlock()

	if changed {
		s.conv.Invalidate()
	}
	if err := s.store.Save(cfg); err != nil {
		return fmt.Errorf("save dataset selection: %w", err)
	}
	return nil
}

// SaveSettings replaces the whole configuration and persists it.
func (s *Session) SaveSettings(cfg settings.Configuration) error {
	s.mu.Lock()
	changed := s.cfg.Dataset != cfg.Dataset
	s.cfg = cfg
	if cfg.HasDataset() {
		s.state = StateResolved
	}
	if s.view == ViewSettings {
		s.view = ViewNone
	}
	s.mu.Unlock()

	if changed {
		s.conv.Invalidate()
	}
	if err := s.store.Save(cfg); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Begin starts a submission against the active configuration.
func (s *Session) Begin(prompt string) (Ticket, bool) {
	return s.conv.Begin(prompt, s.Config())
}

// Submit runs prompt against the active configuration and returns the
// appended entry.
func (s *Session) Submit(ctx context.Context, prompt string) (models.ConversationEntry, bool) {
	return s.conv.Submit(ctx, prompt, s.Config())
}
