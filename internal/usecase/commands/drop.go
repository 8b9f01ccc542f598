package commands

import (
	"context"
	"time"

	"flashdrop/internal/domain/drop"
	"flashdrop/internal/pkg/clock"
	"flashdrop/internal/pkg/errs"
	"flashdrop/internal/usecase/shared"
)

type CreateDropParams struct {
	Name       string
	PriceCents int64
	TotalStock int32
	StartsAt   *time.Time
	EndsAt     *time.Time
	ImageURL   *string
}

type DropCommands interface {
	// CreateDrop sets up a drop with its full stock available. Stock counts are
	// immutable afterwards except through claim/release paths.
	CreateDrop(ctx context.Context, params CreateDropParams) (*CreateDropResult, error)
}

type dropCommandsImpl struct {
	uow   shared.UnitOfWork
	clock clock.Clock
}

func NewDropCommands(uow shared.UnitOfWork, clk clock.Clock) DropCommands {
	return &dropCommandsImpl{uow: uow, clock: clk}
}

func (c *dropCommandsImpl) CreateDrop(ctx context.Context, params CreateDropParams) (*CreateDropResult, error) {
	startsAt := c.clock.Now()
	if params.StartsAt != nil {
		startsAt = *params.StartsAt
	}

	d, err := drop.NewDrop(params.Name, params.PriceCents, params.TotalStock, startsAt, params.EndsAt, params.ImageURL)
	if err != nil {
		return nil, errs.Mark(err, ErrDomainValidation)
	}

	var result *CreateDropResult
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		id, err := tx.Drops().Create(ctx, tx.DB(), d)
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		result = &CreateDropResult{DropID: id, AvailableStock: d.AvailableStock()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
