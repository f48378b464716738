package weftd

import (
	"log"

	"github.com/weft-sh/weft/internal/weftd/config"
	"github.com/weft-sh/weft/internal/weftd/service/splice/dialect"
	"github.com/weft-sh/weft/internal/weftd/service/splice/search"
	"github.com/weft-sh/weft/internal/weftd/service/splice/upstream"
	genericapiserver "github.com/weft-sh/weft/internal/pkg/server"
	"github.com/weft-sh/weft/pkg/http/shutdown"
	"github.com/weft-sh/weft/pkg/http/shutdown/posixsignal"
	"github.com/weft-sh/weft/pkg/logger"
)

type proxyServer struct {
	gs               *shutdown.GracefulShutdown
	genericAPIServer *genericapiserver.GenericAPIServer

	cfg      *config.Config
	adapter  dialect.Adapter
	upstream *upstream.Client
	executor search.Executor
}

type preparedProxyServer struct {
	*proxyServer
}

func createProxyServer(cfg *config.Config) (*proxyServer, error) {
	gs := shutdown.New()
	gs.AddShutdownManager(posixsignal.NewPosixSignalManager())

	genericConfig, err := buildGenericConfig(cfg)
	if err != nil {
		return nil, err
	}

	genericServer, err := genericConfig.Complete().New()
	if err != nil {
		return nil, err
	}

	adapter, err := dialect.Get(cfg.UpstreamOptions.Dialect)
	if err != nil {
		return nil, err
	}
	logger.Info("[Weftd] upstream dialect %q at %s", adapter.Name(), cfg.UpstreamOptions.BaseURL)

	server := &proxyServer{
		gs:               gs,
		genericAPIServer: genericServer,
		cfg:              cfg,
		adapter:          adapter,
		upstream:         upstream.NewClient(cfg.UpstreamOptions, adapter),
		executor:         search.NewGoogleExecutor(cfg.SearchOptions),
	}

	return server, nil
}

func (s *proxyServer) PrepareRun() preparedProxyServer {
	gatewayCfg := DefaultGatewayConfig()

	initRouter(s.genericAPIServer.Engine, &routerDeps{
		adapter:       s.adapter,
		upstream:      s.upstream,
		executor:      s.executor,
		intentOptions: s.cfg.IntentOptions,
		authConfig:    &gatewayCfg.Auth,
		dialectPath:   s.adapter.Path(),
	})

	s.gs.AddShutdownCallback(shutdown.Func(func(string) error {
		s.genericAPIServer.Close()
		return nil
	}))

	return preparedProxyServer{s}
}

func (s preparedProxyServer) Run() error {
	// start shutdown managers
	if err := s.gs.Start(); err != nil {
		log.Fatalf("start shutdown manager failed: %s", err.Error())
	}

	return s.genericAPIServer.Run()
}

func buildGenericConfig(cfg *config.Config) (genericConfig *genericapiserver.Config, lastErr error) {
	genericConfig = genericapiserver.NewConfig()
	if lastErr = cfg.GenericServerRunOptions.ApplyTo(genericConfig); lastErr != nil {
		return
	}

	return
}
