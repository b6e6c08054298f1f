// Package transport is the relay's small read-only ops API over session and
// room state; the websocket endpoint runs on its own server.
package transport

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/soundbus/audio-relay/internal/log"
	"github.com/soundbus/audio-relay/relay"
	"github.com/soundbus/audio-relay/relay/session"
)

type Router struct {
	session *session.State
	dir     relay.Directory
	engine  *gin.Engine
	logger  *log.Logger
}

func NewRouter(sess *session.State, dir relay.Directory, logger *log.Logger) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(otelgin.Middleware("audio-relay"))
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	r := &Router{
		session: sess,
		dir:     dir,
		engine:  engine,
		logger:  logger,
	}
	r.setupRoutes()
	return r
}

func (r *Router) Handler() http.Handler {
	return r.engine
}

func (r *Router) setupRoutes() {
	r.engine.GET("/api/session", r.getSession)
	r.engine.GET("/api/rooms/:roomId", r.getRoom)

	r.engine.GET("/health", r.healthCheck)
}

func (r *Router) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, r.session.View())
}

func (r *Router) getRoom(c *gin.Context) {
	room := c.Param("roomId")

	peers, err := r.dir.Participants(c.Request.Context(), room)
	if err != nil {
		r.logger.Error("Failed to list room", log.String("roomId", room), log.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "failed to list room",
		})
		return
	}
	if peers == nil {
		peers = []string{}
	}

	c.JSON(http.StatusOK, gin.H{
		"room":  room,
		"peers": peers,
	})
}

func (r *Router) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
