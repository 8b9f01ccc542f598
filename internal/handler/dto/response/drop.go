package response

import (
	"time"

	"flashdrop/internal/usecase/commands"
	"flashdrop/internal/usecase/queries"

	"github.com/google/uuid"
)

type CreateDropResponse struct {
	DropID         uuid.UUID `json:"dropId"`
	AvailableStock int32     `json:"availableStock"`
}

func FromCreateDropResult(result *commands.CreateDropResult) *CreateDropResponse {
	return &CreateDropResponse{
		DropID:         result.DropID,
		AvailableStock: result.AvailableStock,
	}
}

type DropResponse struct {
	ID              uuid.UUID                 `json:"id"`
	Name            string                    `json:"name"`
	PriceCents      int64                     `json:"priceCents"`
	TotalStock      int32                     `json:"totalStock"`
	AvailableStock  int32                     `json:"availableStock"`
	StartsAt        time.Time                 `json:"startsAt"`
	EndsAt          *time.Time                `json:"endsAt,omitempty"`
	ImageURL        *string                   `json:"imageUrl,omitempty"`
	RecentPurchases []PurchaseSummaryResponse `json:"recentPurchases"`
}

type PurchaseSummaryResponse struct {
	BuyerID        uuid.UUID `json:"buyerId"`
	PricePaidCents int64     `json:"pricePaidCents"`
	CreatedAt      time.Time `json:"createdAt"`
}

func FromDropView(view *queries.DropView) *DropResponse {
	purchases := make([]PurchaseSummaryResponse, len(view.RecentPurchases))
	for i, p := range view.RecentPurchases {
		purchases[i] = PurchaseSummaryResponse{
			BuyerID:        p.BuyerID,
			PricePaidCents: p.PricePaidCents,
			CreatedAt:      p.CreatedAt,
		}
	}
	return &DropResponse{
		ID:              view.ID,
		Name:            view.Name,
		PriceCents:      view.PriceCents,
		TotalStock:      view.TotalStock,
		AvailableStock:  view.AvailableStock,
		StartsAt:        view.StartsAt,
		EndsAt:          view.EndsAt,
		ImageURL:        view.ImageURL,
		RecentPurchases: purchases,
	}
}
