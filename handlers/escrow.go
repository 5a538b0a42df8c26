package handlers

import (
	"net/http"

	"fundihub/middleware"
	"fundihub/models"
	"fundihub/services/escrow"
	"fundihub/utils"

	"github.com/gin-gonic/gin"
)

// GetEscrowHandler returns the escrow record held against a booking.
func (hb *HandlerBundle) GetEscrowHandler(c *gin.Context) {
	esc, err := hb.Escrow.FindByBooking(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, esc)
}

// ResolveDisputeHandler closes a disputed escrow with an explicit release or
// refund decision. Admin only (enforced by route middleware).
func (hb *HandlerBundle) ResolveDisputeHandler(c *gin.Context) {
	var input struct {
		Decision string `json:"decision"`
		Notes    string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	actor := middleware.GetActor(c)
	esc, err := hb.Escrow.ResolveDispute(c.Request.Context(), c.Param("id"), escrow.Resolution{
		Decision:   input.Decision,
		ResolvedBy: actor.ID,
		Notes:      input.Notes,
	})
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, esc)
}

// ArchiveEscrowHandler soft-deletes a settled escrow. Admin only (enforced
// by route middleware).
func (hb *HandlerBundle) ArchiveEscrowHandler(c *gin.Context) {
	actor := middleware.GetActor(c)
	if err := hb.Escrow.Archive(c.Request.Context(), actor, c.Param("id")); err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "escrow archived"})
}

// AddEvidenceHandler attaches evidence to a disputed escrow.
func (hb *HandlerBundle) AddEvidenceHandler(c *gin.Context) {
	var input struct {
		Description string `json:"description"`
		FileURL     string `json:"fileUrl"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if input.Description == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "description is required")
		return
	}

	actor := middleware.GetActor(c)
	esc, err := hb.Escrow.AddEvidence(c.Request.Context(), c.Param("id"), models.EvidenceItem{
		SubmittedBy: actor.ID,
		Description: input.Description,
		FileURL:     input.FileURL,
	})
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, esc)
}
