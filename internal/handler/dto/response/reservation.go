package response

import (
	"time"

	"flashdrop/internal/usecase/commands"
	"flashdrop/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type ReservationResponse struct {
	ReservationID  uuid.UUID `json:"reservationId"`
	DropID         uuid.UUID `json:"dropId"`
	BuyerID        uuid.UUID `json:"buyerId"`
	Status         string    `json:"status"`
	PriceCents     int64     `json:"priceCents"`
	ExpiresAt      time.Time `json:"expiresAt"`
	AvailableStock int32     `json:"availableStock"`
}

func FromClaimResult(result *commands.ClaimResult) *ReservationResponse {
	var resp ReservationResponse
	_ = copier.Copy(&resp, result)
	return &resp
}

type ReservationViewResponse struct {
	ReservationID uuid.UUID `json:"reservationId"`
	DropID        uuid.UUID `json:"dropId"`
	BuyerID       uuid.UUID `json:"buyerId"`
	Status        string    `json:"status"`
	PriceCents    int64     `json:"priceCents"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

func FromReservationView(view *queries.ReservationView) *ReservationViewResponse {
	return &ReservationViewResponse{
		ReservationID: view.ID,
		DropID:        view.DropID,
		BuyerID:       view.BuyerID,
		Status:        view.Status,
		PriceCents:    view.PriceCents,
		CreatedAt:     view.CreatedAt,
		ExpiresAt:     view.ExpiresAt,
	}
}
