package entity

// SearchItem is one result returned by the capability provider.
type SearchItem struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// ActionResult is the outcome of one capability call. It is never
// partially observable: callers see it only after the call completed,
// failed, or timed out.
type ActionResult struct {
	// Query is the query the provider was called with.
	Query string `json:"query"`
	// Items is the ordered, truncated result list. Empty on error.
	Items []SearchItem `json:"items"`
	// ElapsedSeconds is the provider-reported or measured search time.
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	// Err carries the failure, e.g. "timeout" or a status line. Empty on
	// success.
	Err string `json:"error,omitempty"`
}

// OK reports whether the action succeeded.
func (r *ActionResult) OK() bool { return r.Err == "" }
