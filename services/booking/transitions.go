package booking

import (
	"fundihub/errs"
	"fundihub/models"
)

// bookingTransitions is the single source of truth for legal status moves.
// Guards beyond pure status (actor, escrow state) live in the service methods.
var bookingTransitions = map[string][]string{
	models.BookingStatusPending:    {models.BookingStatusConfirmed, models.BookingStatusCancelled},
	models.BookingStatusConfirmed:  {models.BookingStatusInProgress, models.BookingStatusCancelled},
	models.BookingStatusInProgress: {models.BookingStatusCompleted, models.BookingStatusCancelled, models.BookingStatusDisputed},
	models.BookingStatusCompleted:  {models.BookingStatusDisputed},
	models.BookingStatusCancelled:  {},
	models.BookingStatusDisputed:   {},
}

func canTransition(from, to string) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// guardTransition rejects an illegal move with a typed state error.
func guardTransition(b *models.Booking, to string) error {
	if !canTransition(b.Status, to) {
		return errs.NewInvalidState("booking", b.Status, "transition to "+to)
	}
	return nil
}
