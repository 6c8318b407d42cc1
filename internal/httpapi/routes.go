package httpapi

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/SAMIHZS/mafia-game/internal/game"
	staticserver "github.com/SAMIHZS/mafia-game/static"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type API struct {
	Dir *game.Directory

	// History is optional. Without it /api/history answers 404.
	History game.HistoryReader

	started time.Time
	now     func() time.Time
}

func New(dir *game.Directory, history game.HistoryReader) *API {
	return &API{Dir: dir, History: history, started: time.Now(), now: time.Now}
}

// CORS allows the configured origins. A "*" entry or an empty list allows
// any origin.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	if !cfg.AllowAllOrigins {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// Register mounts the REST routes and the SPA fallback. mw applies to /api
// only.
func (a *API) Register(r *gin.Engine, mw ...gin.HandlerFunc) {
	r.GET("/health", a.health)
	api := r.Group("/api", mw...)
	api.GET("/health", a.health)
	api.POST("/room", a.createRoom)
	api.GET("/room/:code", a.getRoom)
	api.GET("/history", a.history)

	// Serve frontend for all other routes
	r.NoRoute(func(c *gin.Context) {
		staticserver.Handler().ServeHTTP(c.Writer, c.Request)
	})
}

func (a *API) health(c *gin.Context) {
	now := a.now()
	c.JSON(http.StatusOK, gin.H{
		"ok":     true,
		"time":   now.UTC(),
		"uptime": int(now.Sub(a.started).Seconds()),
		"rooms":  a.Dir.Count(),
	})
}

func (a *API) createRoom(c *gin.Context) {
	var settings game.Settings
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&settings); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid-request-format"})
			return
		}
	}
	sess, err := a.Dir.Create(settings)
	if err != nil {
		log.Error().Err(err).Msg("create room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"roomCode": sess.Code, "createdAt": sess.CreatedAt})
}

func (a *API) getRoom(c *gin.Context) {
	sess, err := a.Dir.Get(c.Param("code"))
	switch {
	case errors.Is(err, game.ErrInvalidRoomCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": game.ErrorCode(err)})
		return
	case err != nil:
		c.JSON(http.StatusNotFound, gin.H{"error": game.ErrorCode(err)})
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (a *API) history(c *gin.Context) {
	if a.History == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history-disabled"})
		return
	}
	limit := defaultHistoryLimit
	if q := c.Query("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid-limit"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	games, err := a.History.RecentGames(c.Request.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("load history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}
	if games == nil {
		games = []game.GameRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}
