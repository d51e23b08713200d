package endpoints

import (
	"blueprint/internal/metrics"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SystemHandler(router gin.IRouter, m *metrics.Metrics) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))
}
