package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Intent detection modes.
const (
	IntentModeExplicit  = "explicit"
	IntentModeHeuristic = "heuristic"
	IntentModeHybrid    = "hybrid"
)

// IntentOptions configures how tool-invocation intent is detected in the
// upstream stream.
type IntentOptions struct {
	// Mode selects the classifier: explicit, heuristic, or hybrid.
	Mode string `json:"mode" mapstructure:"mode"`
	// MinReasoningLen is the minimum accumulated reasoning text length
	// before heuristic patterns are evaluated. Tunable, not a contract.
	MinReasoningLen int `json:"min-reasoning-len" mapstructure:"min-reasoning-len"`
	// ProgressNotice controls the client-visible "Searching ..." text delta
	// emitted while the action executes.
	ProgressNotice bool `json:"progress-notice" mapstructure:"progress-notice"`
}

// NewIntentOptions creates an IntentOptions with hybrid detection enabled.
func NewIntentOptions() *IntentOptions {
	return &IntentOptions{
		Mode:            IntentModeHybrid,
		MinReasoningLen: 24,
		ProgressNotice:  true,
	}
}

// Validate checks validation of IntentOptions.
func (o *IntentOptions) Validate() []error {
	var errs []error

	switch o.Mode {
	case IntentModeExplicit, IntentModeHeuristic, IntentModeHybrid:
	default:
		errs = append(errs, fmt.Errorf("invalid intent mode %q, must be explicit, heuristic or hybrid", o.Mode))
	}
	if o.MinReasoningLen < 0 {
		errs = append(errs, fmt.Errorf("--intent.min-reasoning-len must be >= 0"))
	}

	return errs
}

// AddFlags adds flags for intent detection to the specified FlagSet.
func (o *IntentOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Mode, "intent.mode", o.Mode,
		"Intent detection mode: explicit, heuristic, or hybrid.")
	fs.IntVar(&o.MinReasoningLen, "intent.min-reasoning-len", o.MinReasoningLen,
		"Minimum accumulated reasoning length before heuristic patterns fire.")
	fs.BoolVar(&o.ProgressNotice, "intent.progress-notice", o.ProgressNotice,
		"Emit a client-visible progress notice while the search executes.")
}
