package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer builds the gin engine for the reader API: request logging,
// panic recovery and CORS apply to every route, and all routes except
// /health wait for the startup feed load.
func NewServer(handler *Handler) *gin.Engine {
	r := gin.New()

	// GUIDs are often URLs; clients escape them into a single path segment.
	r.UseRawPath = true
	r.UnescapePathValues = true

	// Access log in combined-like format; health probes are not logged.
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/health"},
	}))

	// Recover from handler panics with a 500
	r.Use(gin.Recovery())

	// CORS for browser clients; preflight requests end here
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Routes
	setupRoutes(r, handler)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler) {
	// Health reports the load status, so it is served in every state
	r.GET("/health", handler.GetHealth)

	// requireLoaded answers 503 while the feed is loading or after the load
	// failed; handlers in this group can assume state.Feed() is non-nil.
	loaded := r.Group("/", handler.requireLoaded)
	{
		// Derived article list exported as RSS 2.0
		loaded.GET("/feed.xml", handler.GetFeedXML)

		// JSON API: feed metadata, derived articles, selection and favorites
		api := loaded.Group("/api")
		api.GET("/feed", handler.GetFeed)
		api.GET("/articles", handler.GetArticles)
		api.GET("/selection", handler.GetSelection)
		api.PUT("/selection", handler.PutSelection)
		api.GET("/favorites", handler.GetFavorites)
		api.POST("/articles/:guid/favorite", handler.ToggleFavorite)
		api.GET("/articles/:guid/readable", handler.GetReadable)
	}

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
