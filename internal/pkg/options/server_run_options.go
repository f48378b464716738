package options

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"

	"github.com/weft-sh/weft/internal/pkg/server"
)

// ServerRunOptions contains the options while running the HTTP server.
type ServerRunOptions struct {
	Mode            string `json:"mode"        mapstructure:"mode"`
	BindAddress     string `json:"bind-address" mapstructure:"bind-address"`
	BindPort        int    `json:"bind-port"   mapstructure:"bind-port"`
	Healthz         bool   `json:"healthz"     mapstructure:"healthz"`
	EnableProfiling bool   `json:"profiling"   mapstructure:"profiling"`
}

// NewServerRunOptions creates a new ServerRunOptions object with default parameters.
func NewServerRunOptions() *ServerRunOptions {
	return &ServerRunOptions{
		Mode:            gin.ReleaseMode,
		BindAddress:     "127.0.0.1",
		BindPort:        11985,
		Healthz:         true,
		EnableProfiling: false,
	}
}

// ApplyTo applies the run options to the method receiver and returns self.
func (s *ServerRunOptions) ApplyTo(c *server.Config) error {
	c.Mode = s.Mode
	c.BindAddress = s.BindAddress
	c.BindPort = s.BindPort
	c.Healthz = s.Healthz
	c.EnableProfiling = s.EnableProfiling

	return nil
}

// Validate checks validation of ServerRunOptions.
func (s *ServerRunOptions) Validate() []error {
	var errs []error

	if s.BindPort < 1 || s.BindPort > 65535 {
		errs = append(errs, fmt.Errorf("--serving.bind-port %v must be between 1 and 65535", s.BindPort))
	}
	switch s.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		errs = append(errs, fmt.Errorf("invalid serving mode %q, must be debug, release or test", s.Mode))
	}

	return errs
}

// AddFlags adds flags related to HTTP serving for a specific APIServer to the
// specified FlagSet.
func (s *ServerRunOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&s.Mode, "serving.mode", s.Mode,
		"Start the server in a specified server mode. Supported server mode: debug, test, release.")
	fs.StringVar(&s.BindAddress, "serving.bind-address", s.BindAddress,
		"The IP address on which to serve the proxy.")
	fs.IntVar(&s.BindPort, "serving.bind-port", s.BindPort,
		"The port on which to serve the proxy.")
	fs.BoolVar(&s.Healthz, "serving.healthz", s.Healthz,
		"Install the /healthz route.")
	fs.BoolVar(&s.EnableProfiling, "serving.profiling", s.EnableProfiling,
		"Enable profiling via web interface host:port/debug/pprof/.")
}
