package handlers

import (
	"net/http"

	"fundihub/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the latest known status of external dependencies.
// Returns 503 when any dependency failed its last probe so load balancers
// can drain the instance.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	state := "ok"
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
		state = "degraded"
	}
	c.JSON(code, gin.H{
		"status": state,
		"deps":   status,
	})
}
