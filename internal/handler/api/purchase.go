package api

import (
	"errors"
	"net/http"

	reqdto "flashdrop/internal/handler/dto/request"
	resdto "flashdrop/internal/handler/dto/response"
	"flashdrop/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type PurchaseHandler struct {
	purchaseCommands commands.PurchaseCommands
}

func NewPurchaseHandler(purchaseCommands commands.PurchaseCommands) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseCommands: purchaseCommands,
	}
}

// @Summary Finalize purchase
// @Description Convert an active reservation into a completed purchase
// @Tags purchases
// @Accept json
// @Produce json
// @Param request body reqdto.FinalizePurchaseRequest true "Finalize request"
// @Success 201 {object} resdto.PurchaseResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /purchases [post]
func (h *PurchaseHandler) FinalizePurchase(c *gin.Context) {
	var req reqdto.FinalizePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	result, err := h.purchaseCommands.Finalize(c.Request.Context(), req.ReservationID)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrReservationInvalidOrExpired):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Reservation is invalid or expired",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, resdto.FromFinalizeResult(result))
}
