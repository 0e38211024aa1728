// Package api serves the engine to the web client over HTTP and a training
// websocket.
package api

import (
	"time"

	"github.com/XapioBroke/aichessbot/engine"
	"github.com/XapioBroke/aichessbot/store"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Server holds what the handlers share. Engines are borrowed from the pool
// per request, so no two requests ever drive the same Engine.
type Server struct {
	pool *SessionPool
	sink store.Sink
	log  zerolog.Logger
	// newSession builds the private Engine of a websocket connection.
	newSession func() *engine.Engine
}

func NewServer(pool *SessionPool, sink store.Sink, log zerolog.Logger) *Server {
	return &Server{
		pool:       pool,
		sink:       sink,
		log:        log,
		newSession: pool.newSession,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/health", s.Health)
	router.GET("/ws/training", s.Training)

	api := router.Group("/api")
	api.POST("/move", s.Move)
	api.POST("/threats", s.Threats)
	api.POST("/analyze", s.Analyze)
	api.POST("/games", s.SaveGame)
	api.GET("/games/:user", s.UserGames)
	api.GET("/stats/:user", s.Stats)
	api.GET("/leaderboard", s.Leaderboard)
	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		ev := s.log.Info()
		if c.Writer.Status() >= 500 {
			ev = s.log.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}
