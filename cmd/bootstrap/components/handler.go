package components

import (
	"flashdrop/internal/handler"
	"flashdrop/internal/handler/api"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewDropHandler,
		api.NewReservationHandler,
		api.NewPurchaseHandler,
	),
	fx.Invoke(handler.NewRouter),
)
