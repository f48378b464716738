package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// maxSearchResults is the hard cap on results kept from the provider.
const maxSearchResults = 10

// SearchOptions configures the web-search capability provider.
type SearchOptions struct {
	// Endpoint is the search API endpoint (Google Custom Search shaped).
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`
	// APIKey is the provider API key (WEFT_SEARCH_API_KEY env also works).
	APIKey string `json:"api-key" mapstructure:"api-key"`
	// EngineID is the custom search engine identifier (cx parameter).
	EngineID string `json:"engine-id" mapstructure:"engine-id"`
	// MaxResults caps the number of results injected into the continuation.
	MaxResults int `json:"max-results" mapstructure:"max-results"`
	// Timeout is the hard per-call deadline for the provider.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// NewSearchOptions creates a SearchOptions with defaults matching the
// Google Custom Search JSON API.
func NewSearchOptions() *SearchOptions {
	return &SearchOptions{
		Endpoint:   "https://www.googleapis.com/customsearch/v1",
		MaxResults: 5,
		Timeout:    10 * time.Second,
	}
}

// Validate checks validation of SearchOptions.
func (o *SearchOptions) Validate() []error {
	var errs []error

	if o.Endpoint == "" {
		errs = append(errs, fmt.Errorf("--search.endpoint is required"))
	}
	if o.MaxResults < 1 || o.MaxResults > maxSearchResults {
		errs = append(errs, fmt.Errorf("--search.max-results %d must be between 1 and %d", o.MaxResults, maxSearchResults))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("--search.timeout must be positive"))
	}

	return errs
}

// AddFlags adds flags for search configuration to the specified FlagSet.
func (o *SearchOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Endpoint, "search.endpoint", o.Endpoint,
		"Web search provider endpoint.")
	fs.StringVar(&o.APIKey, "search.api-key", o.APIKey,
		"Web search provider API key.")
	fs.StringVar(&o.EngineID, "search.engine-id", o.EngineID,
		"Custom search engine ID passed as the cx parameter.")
	fs.IntVar(&o.MaxResults, "search.max-results", o.MaxResults,
		"Maximum number of search results injected into the continuation (1-10).")
	fs.DurationVar(&o.Timeout, "search.timeout", o.Timeout,
		"Hard timeout for one search provider call.")
}
