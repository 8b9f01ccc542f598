package api

import (
	"errors"
	"net/http"

	reqdto "flashdrop/internal/handler/dto/request"
	resdto "flashdrop/internal/handler/dto/response"
	"flashdrop/internal/usecase/commands"
	"flashdrop/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReservationHandler struct {
	reservationCommands commands.ReservationCommands
	reservationQueries  queries.ReservationQueries
}

func NewReservationHandler(
	reservationCommands commands.ReservationCommands,
	reservationQueries queries.ReservationQueries,
) *ReservationHandler {
	return &ReservationHandler{
		reservationCommands: reservationCommands,
		reservationQueries:  reservationQueries,
	}
}

// @Summary Claim reservation
// @Description Take one unit of a drop and open a time-bounded hold
// @Tags reservations
// @Accept json
// @Produce json
// @Param request body reqdto.ClaimReservationRequest true "Claim request"
// @Success 201 {object} resdto.ReservationResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /reservations [post]
func (h *ReservationHandler) ClaimReservation(c *gin.Context) {
	var req reqdto.ClaimReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	result, err := h.reservationCommands.Claim(c.Request.Context(), req.DropID, req.BuyerID)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrDropNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Drop not found",
			})
		case errors.Is(err, commands.ErrDropNotOnSale):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Drop is not on sale",
			})
		case errors.Is(err, commands.ErrOutOfStock):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Drop is sold out",
			})
		case errors.Is(err, commands.ErrDuplicateActiveReservation):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Buyer already has an active reservation for this drop",
			})
		case errors.Is(err, commands.ErrDomainValidation):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Domain validation failed",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, resdto.FromClaimResult(result))
}

// @Summary Get reservation
// @Description Get reservation by ID
// @Tags reservations
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} resdto.ReservationViewResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reservations/{id} [get]
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid reservation ID format",
		})
		return
	}

	view, err := h.reservationQueries.GetByID(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrReservationNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Reservation not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromReservationView(view))
}

// @Summary List buyer reservations
// @Description List all reservations for a buyer, newest first
// @Tags reservations
// @Produce json
// @Param buyerId query string true "Buyer ID"
// @Success 200 {array} resdto.ReservationViewResponse
// @Failure 400 {object} map[string]string
// @Router /reservations [get]
func (h *ReservationHandler) ListBuyerReservations(c *gin.Context) {
	buyerID, err := uuid.Parse(c.Query("buyerId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid buyer ID format",
		})
		return
	}

	views, err := h.reservationQueries.ListByBuyer(c.Request.Context(), buyerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	response := make([]*resdto.ReservationViewResponse, len(views))
	for i, v := range views {
		response[i] = resdto.FromReservationView(v)
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Cancel reservation
// @Description Release an active hold and return its unit to stock
// @Tags reservations
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations/{id} [delete]
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid reservation ID format",
		})
		return
	}

	if err := h.reservationCommands.Cancel(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, commands.ErrReservationNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Reservation not found",
			})
		case errors.Is(err, commands.ErrReservationNotActive):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Reservation is no longer active",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}
