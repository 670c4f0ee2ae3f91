package cli

import (
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/raphaelgruber/cognee-viewer/internal/browser"
	"github.com/raphaelgruber/cognee-viewer/internal/models"
	"github.com/raphaelgruber/cognee-viewer/internal/parser"
	"golang.org/x/term"
)

const defaultGlamourStyle = "dark"

// defaultWrap is used when the terminal width is unknown.
const defaultWrap = 100

// renderMarkdown renders md for the terminal, returning md unchanged if
// rendering fails.
func renderMarkdown(md string, width int) string {
	if width <= 0 {
		width = defaultWrap
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(defaultGlamourStyle),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

// formatItemContent prepares fetched item content for display. Plain-text
// items have their frontmatter listed above the body, and the body is
// rendered as markdown when render is set. Other content is shown as is.
func formatItemContent(item models.DataItem, content string, width int, render bool) string {
	if !item.IsPlainText() || content == browser.ContentErrorText {
		return content
	}

	doc := parser.Parse(content)
	body := doc.Body
	if render {
		body = renderMarkdown(body, width)
	}

	meta := doc.MetadataLines()
	if len(meta) == 0 {
		return body
	}
	return strings.Join(meta, "\n") + "\n\n" + body
}

// itemHeading returns the item title, followed by the document title when
// plain-text content declares a different one.
func itemHeading(item models.DataItem, content string) string {
	heading := item.Title()
	if !item.IsPlainText() || content == browser.ContentErrorText {
		return heading
	}
	if t := parser.Parse(content).Title; t != "" && t != heading {
		heading += " • " + t
	}
	return heading
}

// isInteractive reports whether stdin and stdout are both terminals.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// terminalWidth returns the stdout width, or defaultWrap.
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultWrap
	}
	return w
}
