package order

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/access"
)

// CancelOrder moves a Pending order owned by the actor to Cancelled.
func (s *service) CancelOrder(ctx context.Context, actor access.Actor, id int64) (*Order, error) {
	var cancelled *Order
	err := s.store.RunInTx(ctx, func(uow UnitOfWork) error {
		repo := uow.Orders()

		o, err := repo.GetOrderByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.authz.Authorize(actor, access.ActionCancel, access.OwnedBy(o.UserID)); err != nil {
			return err
		}

		if o.UserID != actor.UserID {
			return ErrNotOrderOwner
		}
		if o.Status != StatusPending {
			return ErrOrderNotPending
		}

		// Статус мог измениться параллельно, поэтому переводим только из Pending.
		ok, err := repo.CompareAndSetStatus(ctx, id, StatusPending, StatusCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return ErrOrderNotPending
		}

		o.Status = StatusCancelled
		cancelled = o
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Int64("order_id", id).Stringer("user_id", actor.UserID).Msg("service: order cancellation refused")
		return nil, err
	}

	log.Info().Int64("order_id", id).Stringer("user_id", actor.UserID).Msg("service: order cancelled")
	return cancelled, nil
}

// UpdateStatus overwrites the order status with any valid value. There is no
// transition table; only the set_status capability is checked.
func (s *service) UpdateStatus(ctx context.Context, actor access.Actor, id int64, status Status) (*Order, error) {
	if !status.Valid() {
		return nil, NewValidationError("status", invalidChoice(string(status)))
	}

	var updated *Order
	err := s.store.RunInTx(ctx, func(uow UnitOfWork) error {
		repo := uow.Orders()

		o, err := repo.GetOrderByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.authz.Authorize(actor, access.ActionSetStatus, access.OwnedBy(o.UserID)); err != nil {
			return err
		}
		if err := repo.UpdateStatus(ctx, id, status); err != nil {
			return err
		}

		o.Status = status
		updated = o
		return nil
	})
	if err != nil {
		log.Error().Err(err).Int64("order_id", id).Str("new_status", string(status)).Msg("service: failed to update order status")
		return nil, err
	}

	log.Info().Int64("order_id", id).Str("new_status", string(status)).Msg("service: order status updated")
	return updated, nil
}
