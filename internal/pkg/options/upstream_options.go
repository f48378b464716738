package options

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Supported upstream wire dialects.
const (
	DialectOpenAI    = "openai"
	DialectAnthropic = "anthropic"
)

// UpstreamOptions configures the text-generation endpoint the proxy fronts.
type UpstreamOptions struct {
	// BaseURL is the upstream base URL, e.g. http://127.0.0.1:8080.
	BaseURL string `json:"base-url" mapstructure:"base-url"`
	// APIKey is sent to the upstream (Bearer for openai, x-api-key for anthropic).
	APIKey string `json:"api-key" mapstructure:"api-key"`
	// Dialect selects the streaming wire dialect: "openai" or "anthropic".
	Dialect string `json:"dialect" mapstructure:"dialect"`
	// ConnectTimeout bounds dialing and response-header wait per round trip.
	ConnectTimeout time.Duration `json:"connect-timeout" mapstructure:"connect-timeout"`
}

// NewUpstreamOptions creates an UpstreamOptions with defaults for a local
// OpenAI-compatible server.
func NewUpstreamOptions() *UpstreamOptions {
	return &UpstreamOptions{
		BaseURL:        "http://127.0.0.1:8080",
		Dialect:        DialectOpenAI,
		ConnectTimeout: 30 * time.Second,
	}
}

// Validate checks validation of UpstreamOptions.
func (o *UpstreamOptions) Validate() []error {
	var errs []error

	if o.BaseURL == "" {
		errs = append(errs, fmt.Errorf("--upstream.base-url is required"))
	}
	if !strings.HasPrefix(o.BaseURL, "http://") && !strings.HasPrefix(o.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("--upstream.base-url %q must start with http:// or https://", o.BaseURL))
	}
	if o.Dialect != DialectOpenAI && o.Dialect != DialectAnthropic {
		errs = append(errs, fmt.Errorf("invalid upstream dialect %q, must be %q or %q", o.Dialect, DialectOpenAI, DialectAnthropic))
	}

	return errs
}

// AddFlags adds flags for upstream configuration to the specified FlagSet.
func (o *UpstreamOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.BaseURL, "upstream.base-url", o.BaseURL,
		"Base URL of the upstream text-generation endpoint.")
	fs.StringVar(&o.APIKey, "upstream.api-key", o.APIKey,
		"API key forwarded to the upstream endpoint.")
	fs.StringVar(&o.Dialect, "upstream.dialect", o.Dialect,
		"Streaming wire dialect spoken by the upstream: openai or anthropic.")
	fs.DurationVar(&o.ConnectTimeout, "upstream.connect-timeout", o.ConnectTimeout,
		"Timeout for connecting to the upstream and receiving response headers.")
}
