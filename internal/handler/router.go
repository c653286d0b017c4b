package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adeelfeb/watchServer/internal/middleware"
)

// Router bundles the handlers mounted on the HTTP server.
type Router struct {
	Videos    *VideoHandler
	Callbacks *CallbackHandler
	Search    *SearchHandler
	Health    *HealthHandler
	Auth      *middleware.APIKeyAuth
}

// Setup builds the gin engine with all routes registered. Callback and
// search routes require an API key; registration and reads are open.
func (r *Router) Setup() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/health/live", r.Health.LivenessProbe)
	engine.GET("/health/ready", r.Health.ReadinessProbe)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api/v1")
	{
		api.POST("/videos", r.Videos.AddVideo)
		api.GET("/videos/:id", r.Videos.GetVideo)
		api.GET("/videos/:id/transcript", r.Videos.GetTranscript)
		api.GET("/users/:id/videos", r.Videos.GetWatchList)

		protected := api.Group("", r.Auth.Middleware())
		{
			protected.POST("/videos/:id/transcript", r.Callbacks.AddTranscript)
			protected.POST("/videos/:id/summary", r.Callbacks.AddSummary)
			protected.POST("/videos/:id/keyconcepts", r.Callbacks.AddKeyConcepts)
			protected.POST("/videos/:id/qnas", r.Callbacks.AddQnas)
			protected.POST("/videos/:id/description", r.Callbacks.AddDescription)

			protected.POST("/search", r.Search.Search)
		}
	}

	return engine
}
