// Package httpapi exposes the control facade over HTTP: a health check, battery/electricity/
// consumption/home settings CRUD, and a read-only schedule view, in the shape the dashboard
// client expects.
package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// NewRouter builds the gin engine wired to h's handlers, with permissive CORS for local
// dashboard development.
func NewRouter(h *Handlers) *gin.Engine {
	router := gin.Default()

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	router.Use(func(c *gin.Context) {
		corsMiddleware.HandlerFunc(c.Writer, c.Request)
		c.Next()
	})

	router.GET("/", h.Health)

	api := router.Group("/api")
	{
		api.GET("/settings/battery", h.GetBatterySettings)
		api.POST("/settings/battery", h.UpdateBatterySettings)
		api.GET("/settings/electricity", h.GetElectricitySettings)
		api.POST("/settings/electricity", h.UpdateElectricitySettings)
		api.GET("/settings/consumption", h.GetConsumptionSettings)
		api.POST("/settings/consumption", h.UpdateConsumptionSettings)
		api.GET("/settings/home", h.GetHomeSettings)
		api.POST("/settings/home", h.UpdateHomeSettings)
		api.GET("/schedule", h.GetSchedule)
	}

	return router
}
