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

type DropHandler struct {
	dropCommands commands.DropCommands
	dropQueries  queries.DropQueries
}

func NewDropHandler(dropCommands commands.DropCommands, dropQueries queries.DropQueries) *DropHandler {
	return &DropHandler{
		dropCommands: dropCommands,
		dropQueries:  dropQueries,
	}
}

// @Summary Create drop
// @Description Register a new drop with its full stock available
// @Tags drops
// @Accept json
// @Produce json
// @Param request body reqdto.CreateDropRequest true "Drop request"
// @Success 201 {object} resdto.CreateDropResponse
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /drops [post]
func (h *DropHandler) CreateDrop(c *gin.Context) {
	var req reqdto.CreateDropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	params := commands.CreateDropParams{
		Name:       req.Name,
		PriceCents: req.PriceCents,
		TotalStock: req.TotalStock,
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
		ImageURL:   req.ImageURL,
	}

	result, err := h.dropCommands.CreateDrop(c.Request.Context(), params)
	if err != nil {
		switch {
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

	c.JSON(http.StatusCreated, resdto.FromCreateDropResult(result))
}

// @Summary List live drops
// @Description List drops currently on sale, newest first
// @Tags drops
// @Produce json
// @Success 200 {array} resdto.DropResponse
// @Router /drops [get]
func (h *DropHandler) ListLiveDrops(c *gin.Context) {
	views, err := h.dropQueries.ListLive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	response := make([]*resdto.DropResponse, len(views))
	for i, v := range views {
		response[i] = resdto.FromDropView(v)
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Get drop
// @Description Get drop by ID with its recent purchases
// @Tags drops
// @Produce json
// @Param id path string true "Drop ID"
// @Success 200 {object} resdto.DropResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /drops/{id} [get]
func (h *DropHandler) GetDrop(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid drop ID format",
		})
		return
	}

	view, err := h.dropQueries.GetByID(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrDropNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Drop not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromDropView(view))
}
