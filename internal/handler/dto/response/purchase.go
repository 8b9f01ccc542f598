package response

import (
	"flashdrop/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type PurchaseResponse struct {
	PurchaseID     uuid.UUID `json:"purchaseId"`
	ReservationID  uuid.UUID `json:"reservationId"`
	DropID         uuid.UUID `json:"dropId"`
	BuyerID        uuid.UUID `json:"buyerId"`
	PricePaidCents int64     `json:"pricePaidCents"`
}

func FromFinalizeResult(result *commands.FinalizeResult) *PurchaseResponse {
	var resp PurchaseResponse
	_ = copier.Copy(&resp, result)
	return &resp
}
