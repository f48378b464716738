package config

import (
	"github.com/weft-sh/weft/internal/weftd/options"
)

// Config is the running configuration structure of the weftd service.
type Config struct {
	*options.Options
}

// CreateConfigFromOptions creates a running configuration instance based
// on the given command line or configuration file options.
func CreateConfigFromOptions(opts *options.Options) (*Config, error) {
	return &Config{opts}, nil
}
