package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

// NoResponse is shown when a search returns no results.
const NoResponse = "No response"

// SearchTypeGraphCompletion answers a query from the dataset's knowledge graph.
const SearchTypeGraphCompletion = "GRAPH_COMPLETION"

// DefaultTopK is the number of graph results the backend considers.
const DefaultTopK = 10

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	SearchType   string   `json:"searchType"`
	Datasets     []string `json:"datasets"`
	DatasetIDs   []string `json:"datasetIds"`
	Query        string   `json:"query"`
	SystemPrompt string   `json:"systemPrompt"`
	NodeName     []string `json:"nodeName"`
	TopK         int      `json:"topK"`
	OnlyContext  bool     `json:"onlyContext"`
	Verbose      bool     `json:"verbose"`
}

// NewSearchRequest builds the fixed-shape graph-completion request for one dataset.
func NewSearchRequest(query, datasetID, systemPrompt string) SearchRequest {
	return SearchRequest{
		SearchType:   SearchTypeGraphCompletion,
		Datasets:     []string{},
		DatasetIDs:   []string{datasetID},
		Query:        query,
		SystemPrompt: systemPrompt,
		NodeName:     []string{},
		TopK:         DefaultTopK,
		OnlyContext:  false,
		Verbose:      false,
	}
}

// Search runs a graph-completion search and returns the answer to display.
func (c *Client) Search(ctx context.Context, query, datasetID, systemPrompt string) (string, error) {
	req := NewSearchRequest(query, datasetID, systemPrompt)
	c.logger.Debug("search", "dataset", datasetID, "query", query)

	data, err := c.do(ctx, "search", http.MethodPost, "/api/v1/search", req)
	if err != nil {
		return "", err
	}

	var results []json.RawMessage
	if err := json.Unmarshal(data, &results); err != nil {
		// Not a result list; nothing to show.
		return NoResponse, nil
	}
	return ExtractAnswer(results), nil
}

// ExtractAnswer picks the displayed answer from search results: the first
// result's truthy "answer" field, else the compact JSON of the first result,
// else NoResponse when there are no results.
func ExtractAnswer(results []json.RawMessage) string {
	if len(results) == 0 {
		return NoResponse
	}
	first := results[0]

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(first, &fields); err == nil {
		if answer, ok := fields["answer"]; ok && truthy(answer) {
			var s string
			if err := json.Unmarshal(answer, &s); err == nil {
				return s
			}
			return compact(answer)
		}
	}
	return compact(first)
}

// truthy mirrors JavaScript truthiness for a JSON value.
func truthy(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "false", "0", "-0", `""`:
		return false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f != 0
	}
	return true
}

func compact(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
