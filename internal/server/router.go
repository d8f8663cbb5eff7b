package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/MarcoPoloResearchLab/ost/internal/command"
)

const (
	maxBodyBytes          = 16 * 1024
	defaultRequestTimeout = 10 * time.Second
	defaultHeartbeat      = 15 * time.Second
)

var errMissingQueue = errors.New("command queue dependency required")

// Dependencies describes what the HTTP layer needs.
type Dependencies struct {
	Queue          chan<- command.Command
	Changes        *ChangeFeed
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
	RequestTimeout time.Duration
	Heartbeat      time.Duration
	Logger         *zap.Logger
}

// NewHTTPHandler builds the gin router serving the context API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Queue == nil {
		return nil, errMissingQueue
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := &httpHandler{
		queue:          deps.Queue,
		changes:        deps.Changes,
		requestTimeout: deps.RequestTimeout,
		heartbeat:      deps.Heartbeat,
		logger:         logger,
	}
	if handler.requestTimeout <= 0 {
		handler.requestTimeout = defaultRequestTimeout
	}
	if handler.heartbeat <= 0 {
		handler.heartbeat = defaultHeartbeat
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(deps.AllowedOrigins))
	router.Use(requestIDMiddleware())
	router.Use(accessLogMiddleware(logger))
	router.Use(bodyLimitMiddleware(maxBodyBytes))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}
	if deps.Changes != nil {
		router.GET(pathChanges, handler.handleChangeStream)
		router.GET(pathChangesSocket, handler.handleChangeSocket)
	}
	handler.registerRoutes(router)

	return router, nil
}

type httpHandler struct {
	queue          chan<- command.Command
	changes        *ChangeFeed
	requestTimeout time.Duration
	heartbeat      time.Duration
	logger         *zap.Logger
}

// dispatch runs one command and writes its reply verbatim.
func (h *httpHandler) dispatch(c *gin.Context, build func(command.Reply) command.Command) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	reply, err := command.Call(ctx, h.queue, build)
	if err != nil {
		h.logger.Warn("command dispatch failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(requestIDContextKey)),
			zap.Error(err),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "dispatcher_unavailable"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(reply))
}

// withoutBody adapts a command that takes no arguments.
func (h *httpHandler) withoutBody(build func(command.Reply) command.Command) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.dispatch(c, build)
	}
}

// withBody decodes the JSON argument object before dispatching.
func withBody[A any](h *httpHandler, build func(command.Reply, A) command.Command) gin.HandlerFunc {
	return func(c *gin.Context) {
		var args A
		if err := c.ShouldBindJSON(&args); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request_too_large"})
				return
			}
			h.logger.Debug("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
		h.dispatch(c, func(reply command.Reply) command.Command {
			return build(reply, args)
		})
	}
}
