// Package parser splits plain-text data item content into metadata and body
// for display.
package parser

import (
	"bufio"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	headingRegex = regexp.MustCompile(`^(#{1,6})\s+(.+?)(?:\s+#+)?\s*$`)
	fenceRegex   = regexp.MustCompile("^\\s*(```|~~~)")
)

// Document is a text document with optional YAML frontmatter.
type Document struct {
	// Metadata holds the frontmatter fields; nil when there is none.
	Metadata map[string]any

	// Title comes from the "title" or "name" field, else the first h1.
	Title string

	// Body is the content after the frontmatter.
	Body string

	// Outline lists the headings of Body in order.
	Outline []Heading
}

// Heading is a markdown heading.
type Heading struct {
	Level int
	Text  string
	Line  int // 1-based line in Body
}

// Parse splits content into frontmatter and body. Frontmatter that is not
// valid YAML is kept as part of the body.
func Parse(content string) Document {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	doc := Document{Body: content}

	if meta, body, ok := splitFrontmatter(content); ok {
		doc.Metadata = meta
		doc.Body = body
	}

	doc.Outline = outline(doc.Body)
	doc.Title = title(doc.Metadata, doc.Outline)
	return doc
}

func splitFrontmatter(content string) (map[string]any, string, bool) {
	if !strings.HasPrefix(content, "---\n") {
		return nil, "", false
	}
	rest := content[len("---\n"):]

	end := strings.Index(rest, "\n---")
	if end < 0 {
		return nil, "", false
	}
	after := rest[end+len("\n---"):]
	if after != "" && after[0] != '\n' {
		return nil, "", false
	}

	meta := map[string]any{}
	if err := yaml.Unmarshal([]byte(rest[:end]), &meta); err != nil {
		return nil, "", false
	}
	return meta, strings.TrimPrefix(after, "\n"), true
}

func outline(body string) []Heading {
	var headings []Heading
	inFence := false

	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if fenceRegex.MatchString(text) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if m := headingRegex.FindStringSubmatch(text); m != nil {
			headings = append(headings, Heading{Level: len(m[1]), Text: m[2], Line: line})
		}
	}
	return headings
}

func title(meta map[string]any, headings []Heading) string {
	for _, key := range []string{"title", "name"} {
		if s, ok := meta[key].(string); ok && s != "" {
			return s
		}
	}
	for _, h := range headings {
		if h.Level == 1 {
			return h.Text
		}
	}
	return ""
}

// MetadataLines formats the frontmatter as sorted "key: value" lines.
func (d Document) MetadataLines() []string {
	keys := make([]string, 0, len(d.Metadata))
	for k := range d.Metadata {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+": "+formatValue(d.Metadata[k]))
	}
	return lines
}

func formatValue(v any) string {
	switch v := v.(type) {
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, formatValue(item))
		}
		return strings.Join(parts, ", ")
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// OutlineText renders the outline as an indented list.
func (d Document) OutlineText() string {
	var b strings.Builder
	for _, h := range d.Outline {
		b.WriteString(strings.Repeat("  ", h.Level-1))
		b.WriteString("- ")
		b.WriteString(h.Text)
		b.WriteString("\n")
	}
	return b.String()
}
