// Package server exposes the calculators and battle sessions over HTTP and
// websockets.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"showdown-battle/ai"
	"showdown-battle/data"
	"showdown-battle/store"
)

var serverLogger = func() *zerolog.Logger {
	logger := log.With().Str("location", "server").Logger()
	return &logger
}

var sessionLogger = func() *zerolog.Logger {
	logger := log.With().Str("location", "session").Logger()
	return &logger
}

// ReplayStore is the part of store.Store the server needs.
type ReplayStore interface {
	SaveReplay(ctx context.Context, r store.Replay) error
	GetReplay(ctx context.Context, id string) (store.Replay, error)
	ListReplays(ctx context.Context, limit int) ([]store.Summary, error)
}

type Options struct {
	Difficulty   ai.Difficulty
	PingInterval time.Duration
	SessionTTL   time.Duration
	MaxSessions  int
	GinMode      string
}

type Server struct {
	dex      *data.Dex
	replays  ReplayStore
	sessions *Manager
	opts     Options
	router   *gin.Engine
}

// New wires the routes. replays may be nil, in which case finished battles
// are not kept.
func New(dex *data.Dex, replays ReplayStore, opts Options) *Server {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 20 * time.Second
	}
	if _, ok := ai.ParseDifficulty(string(opts.Difficulty)); !ok {
		opts.Difficulty = ai.Normal
	}
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}
	s := &Server{
		dex:      dex,
		replays:  replays,
		sessions: NewManager(opts.MaxSessions, opts.SessionTTL),
		opts:     opts,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", s.health)
	api := r.Group("/api")
	{
		api.POST("/stats", s.computeStats)
		api.POST("/damage", s.computeDamage)
		api.POST("/capture", s.attemptCapture)
		api.POST("/teams/import", s.importTeam)
		api.POST("/teams/export", s.exportTeam)
		api.GET("/rental", s.rentalTeam)

		api.POST("/battles", s.createBattle)
		api.GET("/battles/:id", s.getBattle)
		api.GET("/battles/:id/legal", s.legalActions)
		api.POST("/battles/:id/actions", s.submitAction)
		api.GET("/battles/:id/summary", s.battleSummary)
		api.GET("/battles/:id/events", s.battleEvents)
		api.GET("/battles/:id/ws", s.battleSocket)

		api.GET("/replays", s.listReplays)
		api.GET("/replays/:id", s.getReplay)
	}
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		serverLogger().Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down gracefully and
// closes every battle session.
func (s *Server) Run(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	if s.opts.SessionTTL > 0 {
		s.sessions.StartReaper(ctx, s.opts.SessionTTL/2)
	}

	errCh := make(chan error, 1)
	go func() {
		serverLogger().Info().Str("addr", addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

func (s *Server) Close() {
	s.sessions.CloseAll()
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "battles": s.sessions.Len()})
}
