package handlers

import (
	"net/http"

	"fundihub/models"
	"fundihub/utils"

	"github.com/gin-gonic/gin"
)

// MatchProvidersHandler ranks providers for a service request.
func (hb *HandlerBundle) MatchProvidersHandler(c *gin.Context) {
	var req models.ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	matched, err := hb.Matching.MatchProviders(c.Request.Context(), req)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": matched})
}
