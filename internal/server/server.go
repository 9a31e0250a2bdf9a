package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tournevent/shipbridge/internal/config"
	"github.com/tournevent/shipbridge/internal/telemetry"
	"github.com/tournevent/shipbridge/pkg/shiprocket"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// requestTimeout bounds every inbound request, provider round trip included.
const requestTimeout = 30 * time.Second

// Server is the HTTP server for the Shiprocket bridge.
type Server struct {
	port    int
	client  *shiprocket.Client
	cfg     *config.Config
	logger  *otelzap.Logger
	metrics *telemetry.Metrics
	engine  *gin.Engine
}

// Config holds server configuration.
type Config struct {
	Port int
}

// New creates a new server instance and registers all routes.
func New(cfg Config, client *shiprocket.Client, appCfg *config.Config, logger *otelzap.Logger, metrics *telemetry.Metrics) *Server {
	s := &Server{
		port:    cfg.Port,
		client:  client,
		cfg:     appCfg,
		logger:  logger,
		metrics: metrics,
	}
	s.engine = s.buildEngine()
	return s
}

// Handler exposes the route tree, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) buildEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	r.Use(s.timeoutMiddleware())

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	sr := r.Group("/shiprocket")
	{
		sr.GET("/auth/status", s.handleAuthStatus)

		sr.POST("/orders", s.handleCreateOrder)
		sr.POST("/orders/cancel", s.handleCancelOrders)
		sr.POST("/orders/invoice", s.handleGenerateInvoice)
		sr.POST("/orders/invoice/download", s.handleDownloadInvoice)

		sr.GET("/tracking/awb/:awb", s.handleTrackByAWB)
		sr.GET("/tracking/order/:orderId", s.handleTrackByOrderID)
		sr.GET("/track/:id", s.handleTrackAdvanced)

		sr.GET("/pickups", s.handleListPickups)
		sr.POST("/pickups", s.handleAddPickup)
		sr.POST("/pickups/vendor", s.handleCreateVendorPickup)
		sr.POST("/pickups/vendor/update", s.handleUpdateVendorPickup)
		sr.GET("/pickup-locations", s.handleManagePickups)
		sr.POST("/pickup-locations", s.handleManagePickups)

		sr.POST("/rates/calculate", s.handleCalculateRates)
		sr.POST("/apply-rate", s.handleApplyRate)

		sr.POST("/webhook", s.handleWebhook)
		sr.GET("/webhook", s.handleVerifyWebhook)

		sr.POST("/sync-status", s.handleSyncStatus)
		sr.GET("/sync-status", s.handleGetSyncStatus)
	}

	return r
}

// requestLogger logs every request with a generated id and records metrics.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.New().String()
		c.Set("request_id", requestID)

		c.Next()

		duration := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		s.metrics.RecordRequest(route, c.Request.Method, fmt.Sprintf("%d", status), duration.Seconds())
		s.logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
		)
	}
}

func (s *Server) timeoutMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.engine,
		ReadTimeout:  requestTimeout,
		WriteTimeout: requestTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
