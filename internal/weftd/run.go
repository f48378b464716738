package weftd

import (
	"github.com/weft-sh/weft/internal/weftd/config"
)

// Run runs the specified proxy server. This should never exit.
func Run(cfg *config.Config) error {
	server, err := createProxyServer(cfg)
	if err != nil {
		return err
	}

	return server.PrepareRun().Run()
}
