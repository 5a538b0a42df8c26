package handlers

import (
	"net/http"
	"strconv"
	"time"

	"fundihub/middleware"
	"fundihub/services/booking"
	"fundihub/utils"

	"github.com/gin-gonic/gin"
)

// CreateBookingHandler creates a new booking in pending state.
func (hb *HandlerBundle) CreateBookingHandler(c *gin.Context) {
	actor := middleware.GetActor(c)

	var input struct {
		ClientID       string    `json:"clientId"`
		ProviderID     string    `json:"providerId"`
		ServiceID      string    `json:"serviceId"`
		Category       string    `json:"category"`
		Area           string    `json:"area"`
		Address        string    `json:"address"`
		ScheduledStart time.Time `json:"scheduledStart"`
		ScheduledEnd   time.Time `json:"scheduledEnd"`
		BaseAmount     int64     `json:"baseAmount"`
		TotalAmount    int64     `json:"totalAmount"`
		Currency       string    `json:"currency"`
		PaymentMethod  string    `json:"paymentMethod"`
		PaymentTiming  string    `json:"paymentTiming"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if input.ClientID == "" && actor.Role == "client" {
		input.ClientID = actor.ID
	}

	b, err := hb.Bookings.CreateBooking(c.Request.Context(), actor, booking.CreateBookingInput{
		ClientID:       input.ClientID,
		ProviderID:     input.ProviderID,
		ServiceID:      input.ServiceID,
		Category:       input.Category,
		Area:           input.Area,
		Address:        input.Address,
		ScheduledStart: input.ScheduledStart,
		ScheduledEnd:   input.ScheduledEnd,
		BaseAmount:     input.BaseAmount,
		TotalAmount:    input.TotalAmount,
		Currency:       input.Currency,
		PaymentMethod:  input.PaymentMethod,
		PaymentTiming:  input.PaymentTiming,
	})
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// GetBookingHandler returns one booking with its full timeline.
func (hb *HandlerBundle) GetBookingHandler(c *gin.Context) {
	b, err := hb.Bookings.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// ListBookingsHandler lists bookings for a client or provider.
func (hb *HandlerBundle) ListBookingsHandler(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)

	if clientID := c.Query("clientId"); clientID != "" {
		bookings, err := hb.Bookings.ListClientBookings(c.Request.Context(), clientID, limit, offset)
		if err != nil {
			utils.JSONDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"bookings": bookings})
		return
	}
	if providerID := c.Query("providerId"); providerID != "" {
		bookings, err := hb.Bookings.ListProviderBookings(c.Request.Context(), providerID, limit, offset)
		if err != nil {
			utils.JSONDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"bookings": bookings})
		return
	}
	utils.JSONError(c, http.StatusBadRequest, "invalid input", "clientId or providerId query parameter is required")
}

// AssignProviderHandler assigns a provider to a pending booking.
func (hb *HandlerBundle) AssignProviderHandler(c *gin.Context) {
	var input struct {
		ProviderID string `json:"providerId"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	b, err := hb.Bookings.AssignProvider(c.Request.Context(), middleware.GetActor(c), c.Param("id"), input.ProviderID)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// ConfirmBookingHandler moves a pending booking to confirmed.
func (hb *HandlerBundle) ConfirmBookingHandler(c *gin.Context) {
	b, err := hb.Bookings.ConfirmBooking(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// StartBookingHandler moves a confirmed booking to in_progress.
func (hb *HandlerBundle) StartBookingHandler(c *gin.Context) {
	b, err := hb.Bookings.StartBooking(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CompleteBookingHandler completes an in-progress booking, optionally
// releasing escrowed funds and creating the payout.
func (hb *HandlerBundle) CompleteBookingHandler(c *gin.Context) {
	var input struct {
		ReleaseFunds bool `json:"releaseFunds"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	b, err := hb.Bookings.CompleteBooking(c.Request.Context(), middleware.GetActor(c), c.Param("id"), input.ReleaseFunds)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CancelBookingHandler cancels a booking, refunding held funds when the
// booking was still refund-eligible.
func (hb *HandlerBundle) CancelBookingHandler(c *gin.Context) {
	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	b, err := hb.Bookings.CancelBooking(c.Request.Context(), middleware.GetActor(c), c.Param("id"), input.Reason)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// DisputeBookingHandler opens a dispute on a booking and freezes its escrow.
func (hb *HandlerBundle) DisputeBookingHandler(c *gin.Context) {
	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	b, err := hb.Bookings.DisputeBooking(c.Request.Context(), middleware.GetActor(c), c.Param("id"), input.Reason)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// RecordPaymentHandler marks the client payment settled and opens the escrow.
func (hb *HandlerBundle) RecordPaymentHandler(c *gin.Context) {
	b, err := hb.Bookings.RecordPaymentCompleted(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
