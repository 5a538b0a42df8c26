package handlers

import (
	"fundihub/services/booking"
	"fundihub/services/escrow"
	"fundihub/services/matching"
	"fundihub/services/payout"

	"github.com/go-redis/redis/v8"
)

// HandlerBundle carries the wired services the HTTP handlers depend on.
type HandlerBundle struct {
	Bookings booking.BookingService
	Escrow   escrow.Ledger
	Matching matching.MatchingService
	Payouts  *payout.Engine
	Sweeper  *payout.Sweeper
	Cache    *redis.Client
}
