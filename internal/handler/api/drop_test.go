//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"flashdrop/internal/handler/api"
	resdto "flashdrop/internal/handler/dto/response"
	"flashdrop/internal/usecase/commands"
	"flashdrop/internal/usecase/queries"
	"flashdrop/tests/common/httptest"
	commandsmock "flashdrop/tests/mock/commands"
	queriesmock "flashdrop/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type DropHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockDropCommands
	mockQueries  *queriesmock.MockDropQueries
	handler      *api.DropHandler
}

func (s *DropHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockDropCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockDropQueries(s.mockCtrl)
	s.handler = api.NewDropHandler(s.mockCommands, s.mockQueries)

	s.router.POST("/drops", s.handler.CreateDrop)
	s.router.GET("/drops", s.handler.ListLiveDrops)
	s.router.GET("/drops/:id", s.handler.GetDrop)
}

func (s *DropHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestDropHandlerSuite(t *testing.T) {
	suite.Run(t, new(DropHandlerTestSuite))
}

func (s *DropHandlerTestSuite) TestCreateDrop() {
	url := "/drops"
	reqBody := map[string]any{
		"name":       "Midnight Sneaker",
		"priceCents": 14900,
		"totalStock": 100,
	}

	result := &commands.CreateDropResult{DropID: uuid.New(), AvailableStock: 100}

	s.Run("success: returns 201 Created", func() {
		s.mockCommands.EXPECT().CreateDrop(gomock.Any(), gomock.Any()).
			Return(result, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody)

		var body resdto.CreateDropResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &body)
		s.Equal(result.DropID, body.DropID)
		s.Equal(int32(100), body.AvailableStock)
	})

	s.Run("error: 400 Bad Request on validation errors", func() {
		cases := []map[string]any{
			{"priceCents": 100, "totalStock": 10},
			{"name": "x", "priceCents": 100},
			{"name": "x", "priceCents": 100, "totalStock": 0},
			{"name": "x", "priceCents": -1, "totalStock": 10},
		}
		for _, body := range cases {
			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body)
			httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
		}
	})

	s.Run("error: 422 on domain validation failure", func() {
		s.mockCommands.EXPECT().CreateDrop(gomock.Any(), gomock.Any()).
			Return(nil, commands.ErrDomainValidation).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnprocessableEntity, "Domain validation")
	})
}

func (s *DropHandlerTestSuite) TestListLiveDrops() {
	s.Run("success: returns live drops with recent purchases", func() {
		views := []*queries.DropView{
			{
				ID:             uuid.New(),
				Name:           "Midnight Sneaker",
				PriceCents:     14900,
				TotalStock:     100,
				AvailableStock: 42,
				StartsAt:       time.Now().Add(-time.Hour).UTC(),
				RecentPurchases: []queries.PurchaseSummary{
					{BuyerID: uuid.New(), PricePaidCents: 14900, CreatedAt: time.Now().UTC()},
				},
			},
		}
		s.mockQueries.EXPECT().ListLive(gomock.Any()).
			Return(views, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/drops", nil)

		var body []resdto.DropResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Len(body, 1)
		s.Equal(int32(42), body[0].AvailableStock)
		s.Len(body[0].RecentPurchases, 1)
	})

	s.Run("error: 500 on query failure", func() {
		s.mockQueries.EXPECT().ListLive(gomock.Any()).
			Return(nil, errors.New("database down")).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/drops", nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusInternalServerError, "Internal server error")
	})
}

func (s *DropHandlerTestSuite) TestGetDrop() {
	view := &queries.DropView{
		ID:             uuid.New(),
		Name:           "Midnight Sneaker",
		PriceCents:     14900,
		TotalStock:     100,
		AvailableStock: 42,
		StartsAt:       time.Now().Add(-time.Hour).UTC(),
	}

	s.Run("success: returns 200 OK", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), view.ID).
			Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/drops/"+view.ID.String(), nil)

		var body resdto.DropResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(view.ID, body.ID)
		s.Equal(view.Name, body.Name)
	})

	s.Run("error: 400 on malformed id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/drops/not-a-uuid", nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid drop ID")
	})

	s.Run("error: 404 when unknown", func() {
		unknown := uuid.New()
		s.mockQueries.EXPECT().GetByID(gomock.Any(), unknown).
			Return(nil, queries.ErrDropNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/drops/"+unknown.String(), nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Drop not found")
	})
}
