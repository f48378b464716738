// Package weftd wires the splicing proxy daemon: options, config, router
// and the generic API server lifecycle.
package weftd

import (
	"fmt"

	"github.com/weft-sh/weft/internal/weftd/config"
	"github.com/weft-sh/weft/internal/weftd/options"
	"github.com/weft-sh/weft/pkg/app"
	"github.com/weft-sh/weft/pkg/logger"
)

const commandDesc = `The weft daemon is a streaming splice proxy: it sits between a chat
client and a text-generation endpoint, watches the live response stream for a
web-search intent, executes the search, and splices the continuation into the
same client stream.

Find more weftd information at:
    https://github.com/weft-sh/weft/blob/main/docs/weftd.md`

// NewApp creates an App object with default parameters.
func NewApp(basename string) *app.App {
	opts := options.NewOptions()
	application := app.NewApp("WEFT Splicing Proxy",
		basename,
		app.WithOptions(opts),
		app.WithDescription(commandDesc),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)

	return application
}

func run(opts *options.Options) app.RunFunc {
	return func(basename string) error {
		logPath := fmt.Sprintf("%s/%s.log", basename, basename)

		if err := logger.InitLog(logPath); err != nil {
			return err
		}
		defer logger.FlushLog()

		cfg, err := config.CreateConfigFromOptions(opts)
		if err != nil {
			return err
		}

		return Run(cfg)
	}
}
