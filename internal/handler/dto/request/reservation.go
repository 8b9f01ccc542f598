package request

import (
	"github.com/google/uuid"
)

type ClaimReservationRequest struct {
	DropID  uuid.UUID `json:"dropId" binding:"required"`
	BuyerID uuid.UUID `json:"buyerId" binding:"required"`
}
