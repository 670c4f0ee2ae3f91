package models

// DataItem is a single ingested document within a dataset.
// Content is not part of the listing and is fetched separately.
type DataItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Label     string    `json:"label,omitempty"`
	Extension string    `json:"extension"`
	MimeType  string    `json:"mimeType"`
	RawURL    string    `json:"rawDataLocation,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

// Title returns the name shown for the item: name, then label, then "N/A".
func (d DataItem) Title() string {
	if d.Name != "" {
		return d.Name
	}
	if d.Label != "" {
		return d.Label
	}
	return "N/A"
}

// IsPlainText reports whether the item content should be rendered as markdown.
func (d DataItem) IsPlainText() bool {
	return d.MimeType == "text/plain"
}
