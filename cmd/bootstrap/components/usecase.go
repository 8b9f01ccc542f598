package components

import (
	"flashdrop/internal/domain/reservation"
	"flashdrop/internal/pkg/clock"
	"flashdrop/internal/pkg/config"
	"flashdrop/internal/usecase/commands"
	"flashdrop/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseCommandsModule,
	usecaseQueriesModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	func(clk clock.Clock, cfg config.ReservationConfig) *reservation.Factory {
		return reservation.NewFactory(clk, cfg.TTL)
	},
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewDropCommands,
		commands.NewReservationCommands,
		commands.NewPurchaseCommands,
		commands.NewExpirationCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewDropQueries,
		queries.NewReservationQueries,
	),
)
