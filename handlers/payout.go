package handlers

import (
	"net/http"
	"strconv"

	"fundihub/middleware"
	"fundihub/models"
	"fundihub/utils"

	"github.com/gin-gonic/gin"
)

// GetPayoutHandler returns one payout by ID.
func (hb *HandlerBundle) GetPayoutHandler(c *gin.Context) {
	p, err := hb.Payouts.GetPayout(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// PayoutHistoryHandler pages through a provider's payouts, newest first.
func (hb *HandlerBundle) PayoutHistoryHandler(c *gin.Context) {
	providerID := c.Param("providerId")
	actor := middleware.GetActor(c)
	if actor.Role == "provider" && actor.ID != providerID {
		utils.JSONError(c, http.StatusForbidden, "request failed", "providers may only view their own payout history")
		return
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)

	payouts, total, err := hb.Payouts.GetHistory(c.Request.Context(), providerID, limit, offset)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"payouts": payouts,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// PayoutStatsHandler returns aggregated payout stats, optionally scoped to
// one provider via the providerId query parameter.
func (hb *HandlerBundle) PayoutStatsHandler(c *gin.Context) {
	providerID := c.Query("providerId")
	actor := middleware.GetActor(c)
	if actor.Role == "provider" {
		providerID = actor.ID
	}

	stats, err := hb.Payouts.GetStats(c.Request.Context(), hb.Cache, providerID)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SetPayoutDestinationHandler records where a provider's payouts are sent.
// Providers configure their own destination; admins may fix up any.
func (hb *HandlerBundle) SetPayoutDestinationHandler(c *gin.Context) {
	var input struct {
		Method        string `json:"method"`
		BankAccountID string `json:"bankAccountId"`
		MobileNumber  string `json:"mobileNumber"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	actor := middleware.GetActor(c)
	err := hb.Payouts.SetDestination(c.Request.Context(), actor, c.Param("providerId"), models.PayoutDestination{
		Method:        input.Method,
		BankAccountID: input.BankAccountID,
		MobileNumber:  input.MobileNumber,
	})
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payout destination updated"})
}

// ProcessPayoutsNowHandler triggers an immediate sweep outside the schedule.
// Admin only (enforced by route middleware).
func (hb *HandlerBundle) ProcessPayoutsNowHandler(c *gin.Context) {
	hb.Sweeper.RunOnce(c.Request.Context())
	c.JSON(http.StatusAccepted, gin.H{"status": "sweep triggered"})
}

// RequeuePayoutHandler moves a failed payout back to pending for the next
// sweep. Admin only (enforced by route middleware).
func (hb *HandlerBundle) RequeuePayoutHandler(c *gin.Context) {
	p, err := hb.Payouts.Requeue(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
