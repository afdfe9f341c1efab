// Package api exposes the read-side of the engine over HTTP: the pool
// directory, swap quotes, the notification snapshot, and the JSON-RPC proxy
// the browser talks through.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/dex"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/journal"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/notify"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/pools"
)

// Server wires the HTTP handlers to the engine services.
type Server struct {
	reader   *dex.Reader
	pools    *pools.Service
	notes    *notify.Stream
	proxy    *RPCProxy
	outcomes journal.Reader
	logger   *zap.Logger

	slippageBps uint32
	httpServer  *http.Server
}

func NewServer(reader *dex.Reader, poolSvc *pools.Service, notes *notify.Stream, proxy *RPCProxy, outcomes journal.Reader, slippageBps uint32, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		reader:      reader,
		pools:       poolSvc,
		notes:       notes,
		proxy:       proxy,
		outcomes:    outcomes,
		logger:      logger,
		slippageBps: slippageBps,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.GET("/pools", s.handlePools)
		v1.GET("/quote", s.handleQuote)
		v1.GET("/tokens/:address", s.handleTokenMeta)
		v1.GET("/notifications", s.handleNotifications)
		if s.outcomes != nil {
			v1.GET("/intents", s.handleIntents)
		}
	}

	if s.proxy != nil {
		router.POST("/rpc", s.proxy.Handle)
	}

	return router
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
