package models

// ConversationEntry is one prompt and the answer shown for it.
// Entries are append-only; their index is their arrival order.
type ConversationEntry struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}
