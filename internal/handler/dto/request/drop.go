package request

import (
	"time"
)

type CreateDropRequest struct {
	Name       string     `json:"name" binding:"required"`
	PriceCents int64      `json:"priceCents" binding:"min=0"`
	TotalStock int32      `json:"totalStock" binding:"required,min=1"`
	StartsAt   *time.Time `json:"startsAt"`
	EndsAt     *time.Time `json:"endsAt"`
	ImageURL   *string    `json:"imageUrl"`
}
