package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// getHealth reports that the process is serving requests.
func getHealth(ctx *gin.Context) {
	ctx.String(http.StatusOK, "OK")
}

// registerOperationalRoutes registers the unauthenticated health and metrics routes.
func registerOperationalRoutes(r *gin.Engine) {
	r.GET("/health", getHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
