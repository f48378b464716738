// Package options assembles the flag groups of the weftd daemon.
package options

import (
	genericoptions "github.com/weft-sh/weft/internal/pkg/options"
	"github.com/weft-sh/weft/internal/pkg/server"
	"github.com/weft-sh/weft/pkg/utils/cliflag"
	"github.com/weft-sh/weft/pkg/utils/json"
)

// Options runs a weftd server.
type Options struct {
	GenericServerRunOptions *genericoptions.ServerRunOptions `json:"serving"  mapstructure:"serving"`
	UpstreamOptions         *genericoptions.UpstreamOptions  `json:"upstream" mapstructure:"upstream"`
	SearchOptions           *genericoptions.SearchOptions    `json:"search"   mapstructure:"search"`
	IntentOptions           *genericoptions.IntentOptions    `json:"intent"   mapstructure:"intent"`
}

// NewOptions creates an Options with default parameters.
func NewOptions() *Options {
	return &Options{
		GenericServerRunOptions: genericoptions.NewServerRunOptions(),
		UpstreamOptions:         genericoptions.NewUpstreamOptions(),
		SearchOptions:           genericoptions.NewSearchOptions(),
		IntentOptions:           genericoptions.NewIntentOptions(),
	}
}

// Flags returns flags for a specific server by section name.
func (o *Options) Flags() (fss cliflag.NamedFlagSets) {
	o.GenericServerRunOptions.AddFlags(fss.FlagSet("serving"))
	o.UpstreamOptions.AddFlags(fss.FlagSet("upstream"))
	o.SearchOptions.AddFlags(fss.FlagSet("search"))
	o.IntentOptions.AddFlags(fss.FlagSet("intent"))

	return fss
}

// Validate checks all option groups.
func (o *Options) Validate() []error {
	var errs []error

	errs = append(errs, o.GenericServerRunOptions.Validate()...)
	errs = append(errs, o.UpstreamOptions.Validate()...)
	errs = append(errs, o.SearchOptions.Validate()...)
	errs = append(errs, o.IntentOptions.Validate()...)

	return errs
}

// ApplyTo applies the run options to the method receiver and returns self.
func (o *Options) ApplyTo(c *server.Config) error {
	return o.GenericServerRunOptions.ApplyTo(c)
}

// Complete set default Options.
func (o *Options) Complete() error {
	return nil
}

func (o *Options) String() string {
	data, _ := json.Marshal(o)

	return string(data)
}
