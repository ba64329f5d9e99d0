// Package server exposes health, metrics and the current cursors over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/domain"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/duration"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/logger"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/state"
)

const (
	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second

	readTimeout    = 10 * time.Second
	writeTimeout   = 10 * time.Second
	idleTimeout    = 60 * time.Second
	requestTimeout = 5 * time.Second
)

// Snapshotter returns the current shared state.
type Snapshotter interface {
	Snapshot(ctx context.Context) (state.State, error)
}

// Config holds the server dependencies.
type Config struct {
	Address string
	Version string
	State   Snapshotter
	Metrics http.Handler
	Logger  logger.Logger
}

var releaseMode sync.Once

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg Config) *gin.Engine {
	releaseMode.Do(func() { gin.SetMode(gin.ReleaseMode) })
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(cfg.Logger))

	started := time.Now()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"version":   cfg.Version,
			"uptime":    time.Since(started).Round(time.Second).String(),
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	if cfg.State != nil {
		router.GET("/state", stateHandler(cfg.State))
	}

	return router
}

type videoView struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Duration    string   `json:"duration"`
	PuzzleLinks []string `json:"puzzle_links"`
}

type stateView struct {
	Channel domain.ChannelCursor         `json:"channel"`
	Video   *videoView                   `json:"video,omitempty"`
	Puzzles map[string]domain.PuzzleLink `json:"puzzles"`
}

func stateHandler(keeper Snapshotter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		snap, err := keeper.Snapshot(ctx)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}

		view := stateView{Channel: snap.Channel, Puzzles: snap.Puzzles}
		if !snap.Video.IsZero() {
			view.Video = &videoView{
				ID:          snap.Video.ExternalID,
				Title:       snap.Video.Title,
				URL:         snap.Video.WatchURL(),
				Duration:    duration.Format(snap.Video.Duration),
				PuzzleLinks: snap.Video.PuzzleLinks,
			}
		}
		c.JSON(http.StatusOK, view)
	}
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("HTTP request",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("latency", time.Since(start)),
		)
	}
}

// Listen binds address. Binding happens before any loop starts so an
// occupied port fails startup instead of a running watcher.
func Listen(address string) (net.Listener, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("status server: %w", err)
	}
	return ln, nil
}

// Serve serves handler on ln until ctx is cancelled, then shuts down
// gracefully. A serve failure is logged and the server stays down; it never
// ends the caller's group.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler, log logger.Logger) error {
	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	go func() {
		log.Info("Starting status server", logger.String("address", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Status server failed", logger.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Status server shutdown", logger.Error(err))
		return nil
	}
	log.Info("Status server stopped")
	return nil
}
