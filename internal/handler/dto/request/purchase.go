package request

import (
	"github.com/google/uuid"
)

type FinalizePurchaseRequest struct {
	ReservationID uuid.UUID `json:"reservationId" binding:"required"`
}
