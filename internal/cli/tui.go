package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/cognee-viewer/internal/browser"
	"github.com/raphaelgruber/cognee-viewer/internal/models"
	"github.com/raphaelgruber/cognee-viewer/internal/session"
	"github.com/raphaelgruber/cognee-viewer/internal/settings"
)

// Settings form fields, in tab order.
const (
	fieldServerURL = iota
	fieldDataset
	fieldDatasetName
	fieldSystemPrompt
)

var settingsLabels = []string{"Server URL", "Dataset ID", "Dataset name", "System prompt"}

const chatHint = "enter send • ctrl+s settings • ctrl+d datasets • ctrl+b browse • ctrl+c quit"

// bootstrapMsg reports the outcome of session bootstrap.
type bootstrapMsg struct {
	state session.BootstrapState
}

// datasetsMsg carries the dataset directory for the selector.
type datasetsMsg struct {
	datasets []models.Dataset
	err      error
}

// answerMsg reports a finished search.
type answerMsg struct {
	entry   models.ConversationEntry
	applied bool
}

// itemsMsg reports that the browser listing finished loading.
type itemsMsg struct {
	err error
}

// contentMsg carries the fetched content of a data item.
type contentMsg struct {
	itemID  string
	content string
}

// chatModel is the bubbletea model for the interactive chat.
type chatModel struct {
	ctx     context.Context
	sess    *session.Session
	source  browser.ItemSource
	logger  *slog.Logger
	theme   Theme
	input   textinput.Model
	spinner spinner.Model
	width   int
	height  int

	bootstrapping bool
	status        string
	errText       string

	// Dataset selector
	datasets        []models.Dataset
	datasetsErr     string
	datasetsLoading bool
	cursor          int

	// Settings form
	fields []textinput.Model
	focus  int

	// Data browser
	browser        *browser.Browser
	itemsLoading   bool
	itemCursor     int
	openItem       string
	contentLoading bool
	heading        string
	rendered       string

	quitting bool
}

// newChatModel creates the chat model.
func newChatModel(ctx context.Context, sess *session.Session, source browser.ItemSource, logger *slog.Logger) chatModel {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ti := textinput.New()
	ti.Placeholder = "Ask a question..."
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return chatModel{
		ctx:           ctx,
		sess:          sess,
		source:        source,
		logger:        logger,
		theme:         defaultTheme,
		input:         ti,
		spinner:       sp,
		bootstrapping: true,
	}
}

// Init starts session bootstrap.
func (m chatModel) Init() tea.Cmd {
	return tea.Batch(m.bootstrapCmd(), m.spinner.Tick)
}

// Update handles messages and returns the updated model.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg.String(), msg)

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.handleResult(msg)
}

// handleResult applies the outcome of a background command.
func (m chatModel) handleResult(msg tea.Msg) (chatModel, tea.Cmd) {
	switch msg := msg.(type) {
	case bootstrapMsg:
		m.bootstrapping = false
		if msg.state == session.StatePromptingUser {
			return m.loadDatasets()
		}

	case datasetsMsg:
		m.datasetsLoading = false
		if msg.err != nil {
			m.datasetsErr = session.DatasetsErrorText
			return m, nil
		}
		m.datasets = msg.datasets
		m.cursor = 0
		current := m.sess.Config().Dataset
		for i, d := range m.datasets {
			if d.ID == current {
				m.cursor = i
			}
		}

	case answerMsg:
		if !msg.applied {
			m.status = "Discarded an answer for a previous dataset"
		}

	case itemsMsg:
		m.itemsLoading = false

	case contentMsg:
		if m.browser == nil {
			return m, nil
		}
		if m.openItem == "" {
			// Went back to the list before the fetch finished.
			m.browser.Back()
			return m, nil
		}
		if msg.itemID != m.openItem {
			return m, nil
		}
		m.contentLoading = false
		item, _ := m.browser.Selected()
		m.heading = itemHeading(item, msg.content)
		m.rendered = formatItemContent(item, msg.content, m.contentWidth(), true)
	}

	return m, nil
}

// busy reports whether anything is waiting on the backend.
func (m chatModel) busy() bool {
	return m.bootstrapping || m.sess.Conversation().Loading() ||
		m.datasetsLoading || m.itemsLoading || m.contentLoading
}

// handleKey dispatches a key press to the open view.
func (m chatModel) handleKey(key string, msg tea.Msg) (chatModel, tea.Cmd) {
	if key == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	m.errText = ""
	switch m.sess.View() {
	case session.ViewSettings:
		return m.settingsKey(key, msg)
	case session.ViewDatasetSelector:
		return m.selectorKey(key)
	case session.ViewDataBrowser:
		return m.browserKey(key)
	}
	return m.chatKey(key, msg)
}

func (m chatModel) chatKey(key string, msg tea.Msg) (chatModel, tea.Cmd) {
	switch key {
	case "enter":
		return m.submit()
	case "ctrl+s":
		return m.openSettings(), nil
	case "ctrl+d":
		m.sess.Open(session.ViewDatasetSelector)
		return m.loadDatasets()
	case "ctrl+b":
		return m.openBrowser()
	case "esc":
		return m, nil
	}

	// Input is disabled while a search is running.
	if m.sess.Conversation().Loading() || msg == nil {
		return m, nil
	}
	m.status = ""
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the prompt in the input field.
func (m chatModel) submit() (chatModel, tea.Cmd) {
	ticket, ok := m.sess.Begin(m.input.Value())
	if !ok {
		return m, nil
	}
	m.status = ""
	m.input.Reset()
	return m, tea.Batch(m.searchCmd(ticket), m.spinner.Tick)
}

// Dataset selector

func (m chatModel) loadDatasets() (chatModel, tea.Cmd) {
	m.datasets = nil
	m.datasetsErr = ""
	m.datasetsLoading = true
	m.cursor = 0
	return m, tea.Batch(m.datasetsCmd(), m.spinner.Tick)
}

func (m chatModel) selectorKey(key string) (chatModel, tea.Cmd) {
	switch key {
	case "esc":
		m.sess.Close()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.datasets)-1 {
			m.cursor++
		}
	case "r":
		return m.loadDatasets()
	case "enter":
		if m.datasetsLoading || len(m.datasets) == 0 {
			return m, nil
		}
		d := m.datasets[m.cursor]
		if err := m.sess.SelectDataset(d.ID, d.Name); err != nil {
			m.logger.Error("select dataset failed", "dataset", d.ID, "error", err)
			m.errText = err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("Using dataset %s", d.Name)
	}
	return m, nil
}

// Settings form

func (m chatModel) openSettings() chatModel {
	c := m.sess.Config()
	values := []string{c.ServerURL, c.Dataset, c.DatasetName, c.SystemPrompt}

	m.fields = make([]textinput.Model, len(settingsLabels))
	for i := range m.fields {
		ti := textinput.New()
		ti.Placeholder = settingsLabels[i]
		ti.SetValue(values[i])
		m.fields[i] = ti
	}
	m.focus = fieldServerURL
	m.fields[m.focus].Focus()

	m.sess.Open(session.ViewSettings)
	return m
}

func (m chatModel) settingsKey(key string, msg tea.Msg) (chatModel, tea.Cmd) {
	switch key {
	case "esc":
		m.sess.Close()
		return m, nil
	case "tab", "down":
		return m.focusField(m.focus + 1), nil
	case "shift+tab", "up":
		return m.focusField(m.focus - 1), nil
	case "enter":
		if m.focus < len(m.fields)-1 {
			return m.focusField(m.focus + 1), nil
		}
		return m.saveSettings(), nil
	case "ctrl+s":
		return m.saveSettings(), nil
	}

	if msg == nil {
		return m, nil
	}
	var cmd tea.Cmd
	m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	return m, cmd
}

func (m chatModel) focusField(i int) chatModel {
	n := len(m.fields)
	m.fields[m.focus].Blur()
	m.focus = (i%n + n) % n
	m.fields[m.focus].Focus()
	return m
}

func (m chatModel) saveSettings() chatModel {
	c := settings.Configuration{
		ServerURL:    strings.TrimSpace(m.fields[fieldServerURL].Value()),
		Dataset:      strings.TrimSpace(m.fields[fieldDataset].Value()),
		DatasetName:  strings.TrimSpace(m.fields[fieldDatasetName].Value()),
		SystemPrompt: m.fields[fieldSystemPrompt].Value(),
	}
	if err := m.sess.SaveSettings(c); err != nil {
		m.logger.Error("save settings failed", "error", err)
		m.errText = err.Error()
		return m
	}
	m.status = "Settings saved"
	return m
}

// Data browser

func (m chatModel) openBrowser() (chatModel, tea.Cmd) {
	c := m.sess.Config()
	if !c.HasDataset() {
		m.errText = "Select a dataset first (ctrl+d)"
		return m, nil
	}

	m.sess.Open(session.ViewDataBrowser)
	m.browser = browser.New(m.source, c.Dataset, m.logger)
	m.itemCursor = 0
	m.openItem = ""
	m.rendered = ""
	m.itemsLoading = true
	return m, tea.Batch(m.itemsCmd(m.browser), m.spinner.Tick)
}

func (m chatModel) browserKey(key string) (chatModel, tea.Cmd) {
	if m.openItem != "" {
		if key == "esc" {
			if m.contentLoading {
				m.browser.Back()
			} else {
				m.browser.Escape()
			}
			m.openItem = ""
			m.contentLoading = false
			m.heading = ""
			m.rendered = ""
		}
		return m, nil
	}

	items := m.browser.Items()
	switch key {
	case "esc":
		if m.browser.Escape() {
			m.sess.Close()
			m.browser = nil
		}
	case "up", "k":
		if m.itemCursor > 0 {
			m.itemCursor--
		}
	case "down", "j":
		if m.itemCursor < len(items)-1 {
			m.itemCursor++
		}
	case "n":
		m.browser.ToggleSort(browser.SortName)
		m.itemCursor = 0
	case "c":
		m.browser.ToggleSort(browser.SortCreatedAt)
		m.itemCursor = 0
	case "u":
		m.browser.ToggleSort(browser.SortUpdatedAt)
		m.itemCursor = 0
	case "r":
		m.itemsLoading = true
		return m, tea.Batch(m.itemsCmd(m.browser), m.spinner.Tick)
	case "enter":
		if m.itemsLoading || len(items) == 0 {
			return m, nil
		}
		item := items[m.itemCursor]
		m.openItem = item.ID
		m.contentLoading = true
		m.heading = item.Title()
		m.rendered = ""
		return m, tea.Batch(m.contentCmd(m.browser, item.ID), m.spinner.Tick)
	}
	return m, nil
}

// Commands. Each runs in its own goroutine to keep Update() responsive.

func (m chatModel) bootstrapCmd() tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		return bootstrapMsg{state: sess.Bootstrap(ctx)}
	}
}

func (m chatModel) datasetsCmd() tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		datasets, err := sess.ListDatasets(ctx)
		return datasetsMsg{datasets: datasets, err: err}
	}
}

func (m chatModel) searchCmd(t session.Ticket) tea.Cmd {
	conv, ctx := m.sess.Conversation(), m.ctx
	return func() tea.Msg {
		entry, applied := conv.Run(ctx, t)
		return answerMsg{entry: entry, applied: applied}
	}
}

func (m chatModel) itemsCmd(b *browser.Browser) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return itemsMsg{err: b.Load(ctx)}
	}
}

func (m chatModel) contentCmd(b *browser.Browser, itemID string) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		content, _ := b.Select(ctx, itemID)
		return contentMsg{itemID: itemID, content: content}
	}
}

// View renders the chat UI.
func (m chatModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m chatModel) renderContent() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n\n")

	switch m.sess.View() {
	case session.ViewSettings:
		b.WriteString(m.settingsView())
	case session.ViewDatasetSelector:
		b.WriteString(m.selectorView())
	case session.ViewDataBrowser:
		b.WriteString(m.browserView())
	default:
		b.WriteString(m.chatView())
	}

	if m.errText != "" {
		b.WriteString("\n" + m.theme.errorStyle().Render(m.errText))
	} else if m.status != "" {
		b.WriteString("\n" + m.theme.successStyle().Render(m.status))
	}
	b.WriteString("\n")
	return b.String()
}

func (m chatModel) header() string {
	c := m.sess.Config()
	dataset := "no dataset"
	if c.HasDataset() {
		dataset = c.DatasetName
		if dataset == "" {
			dataset = c.Dataset
		}
	}
	return m.theme.titleStyle().Render("Cognee Viewer") + "  " + m.theme.hintStyle().Render(dataset)
}

func (m chatModel) chatView() string {
	if m.bootstrapping {
		return m.spinner.View() + " Resolving dataset..."
	}

	var history strings.Builder
	conv := m.sess.Conversation()
	if conv.Len() == 0 {
		history.WriteString(m.theme.hintStyle().Render("Ask a question about your dataset."))
		history.WriteString("\n")
	}
	width := m.contentWidth()
	for _, e := range conv.Entries() {
		history.WriteString(m.theme.queryStyle().Render("You: " + e.Query))
		history.WriteString("\n")
		history.WriteString(m.theme.responseStyle().Width(width).Render(e.Response))
		history.WriteString("\n\n")
	}

	// Keep the newest entries in view.
	out := strings.TrimRight(history.String(), "\n")
	if m.height > 0 {
		out = tailLines(out, m.height-7)
	}

	var prompt string
	if m.sess.Conversation().Loading() {
		prompt = m.spinner.View() + " Searching..."
	} else {
		prompt = m.input.View()
	}

	return out + "\n\n" + prompt + "\n" + m.theme.hintStyle().Render(chatHint)
}

func (m chatModel) selectorView() string {
	var b strings.Builder
	b.WriteString(m.theme.titleStyle().Render("Select dataset"))
	b.WriteString("\n\n")

	switch {
	case m.datasetsLoading:
		b.WriteString(m.spinner.View() + " Loading datasets...\n")
	case m.datasetsErr != "":
		b.WriteString(m.theme.errorStyle().Render(m.datasetsErr) + "\n")
	case len(m.datasets) == 0:
		b.WriteString("No datasets found.\n")
	default:
		current := m.sess.Config().Dataset
		for i, d := range m.datasets {
			line := fmt.Sprintf("%s  %s", d.Name, m.theme.hintStyle().Render("updated "+d.UpdatedAt.Format()))
			if d.ID == current {
				line += " " + m.theme.successStyle().Render("(current)")
			}
			b.WriteString(cursorLine(m.theme, i == m.cursor, line))
		}
	}

	b.WriteString("\n" + m.theme.hintStyle().Render("↑/↓ move • enter select • r reload • esc cancel"))
	return b.String()
}

func (m chatModel) settingsView() string {
	var b strings.Builder
	b.WriteString(m.theme.titleStyle().Render("Settings"))
	b.WriteString("\n\n")
	for i, f := range m.fields {
		label := settingsLabels[i]
		if i == m.focus {
			label = m.theme.selectedStyle().Render(label)
		}
		b.WriteString(label + "\n" + f.View() + "\n\n")
	}
	b.WriteString(m.theme.hintStyle().Render("tab next field • ctrl+s save • esc cancel"))
	return b.String()
}

func (m chatModel) browserView() string {
	if m.browser == nil {
		return ""
	}

	var b strings.Builder
	if m.openItem != "" {
		b.WriteString(m.theme.titleStyle().Render(m.heading))
		b.WriteString("\n\n")
		if m.contentLoading {
			b.WriteString(m.spinner.View() + " Loading content...\n")
		} else {
			b.WriteString(m.rendered + "\n")
		}
		b.WriteString("\n" + m.theme.hintStyle().Render("esc back"))
		return b.String()
	}

	s := m.browser.Sorter()
	b.WriteString(m.theme.titleStyle().Render("Data items"))
	b.WriteString("  " + m.theme.hintStyle().Render(fmt.Sprintf("sorted by %s %s", s.Key, orderArrow(s.Order))))
	b.WriteString("\n\n")

	items := m.browser.Items()
	switch {
	case m.itemsLoading:
		b.WriteString(m.spinner.View() + " Loading data items...\n")
	case m.browser.Err() != "":
		b.WriteString(m.theme.errorStyle().Render(m.browser.Err()) + "\n")
	case len(items) == 0:
		b.WriteString("No data items.\n")
	default:
		for i, item := range items {
			line := fmt.Sprintf("%s  %s", item.Title(),
				m.theme.hintStyle().Render(fmt.Sprintf("%s • created %s • updated %s",
					item.MimeType, item.CreatedAt.Format(), item.UpdatedAt.Format())))
			b.WriteString(cursorLine(m.theme, i == m.itemCursor, line))
		}
	}

	b.WriteString("\n" + m.theme.hintStyle().Render("↑/↓ move • enter open • n/c/u sort by name/created/updated • esc close"))
	return b.String()
}

func (m chatModel) contentWidth() int {
	if m.width <= 4 {
		return defaultWrap
	}
	return m.width - 4
}

func cursorLine(t Theme, selected bool, line string) string {
	if selected {
		return t.selectedStyle().Render("> ") + line + "\n"
	}
	return "  " + line + "\n"
}

func orderArrow(o browser.Order) string {
	if o == browser.Ascending {
		return "↑"
	}
	return "↓"
}

// tailLines returns the last n lines of s.
func tailLines(s string, n int) string {
	if n <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
