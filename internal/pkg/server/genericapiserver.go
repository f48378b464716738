// Package server provides the generic gin-based API server shared by weft
// daemons: health and version routes, optional pprof, and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"

	"github.com/weft-sh/weft/pkg/logger"
	"github.com/weft-sh/weft/pkg/version"
)

// Config is a structure used to configure a GenericAPIServer.
type Config struct {
	Mode            string
	BindAddress     string
	BindPort        int
	Healthz         bool
	EnableProfiling bool
}

// NewConfig returns a Config struct with the default values.
func NewConfig() *Config {
	return &Config{
		Mode:            gin.ReleaseMode,
		BindAddress:     "127.0.0.1",
		BindPort:        11985,
		Healthz:         true,
		EnableProfiling: false,
	}
}

// CompletedConfig is the completed configuration for GenericAPIServer.
type CompletedConfig struct {
	*Config
}

// Complete fills in any fields not set that are required to have valid data.
func (c *Config) Complete() CompletedConfig {
	return CompletedConfig{c}
}

// New returns a new instance of GenericAPIServer from the given config.
func (c CompletedConfig) New() (*GenericAPIServer, error) {
	gin.SetMode(c.Mode)

	s := &GenericAPIServer{
		Engine:          gin.New(),
		address:         fmt.Sprintf("%s:%d", c.BindAddress, c.BindPort),
		healthz:         c.Healthz,
		enableProfiling: c.EnableProfiling,
	}

	s.installAPIs()

	return s, nil
}

// GenericAPIServer contains state for a weft api server.
type GenericAPIServer struct {
	*gin.Engine

	address         string
	healthz         bool
	enableProfiling bool

	insecureServer *http.Server
}

func (s *GenericAPIServer) installAPIs() {
	if s.healthz {
		s.GET("/healthz", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}

	s.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get())
	})

	if s.enableProfiling {
		pprof.Register(s.Engine)
	}
}

// Address returns the listen address of the server.
func (s *GenericAPIServer) Address() string { return s.address }

// Run spawns the http server. It blocks until the server exits.
func (s *GenericAPIServer) Run() error {
	s.insecureServer = &http.Server{
		Addr:    s.address,
		Handler: s,
		// Streaming responses stay open for the lifetime of a completion;
		// no write timeout here, cancellation rides the request context.
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Start to listening the incoming requests on http address: %s", s.address)

	if err := s.insecureServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	logger.Info("Server on %s stopped", s.address)

	return nil
}

// Close gracefully shuts down the server.
func (s *GenericAPIServer) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.insecureServer == nil {
		return
	}
	if err := s.insecureServer.Shutdown(ctx); err != nil {
		logger.Warn("Shutdown insecure server failed: %s", err.Error())
	}
}
