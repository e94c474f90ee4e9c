package order_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/access"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/order"
)

func TestOrderService_CancelOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateOrder(ctx, f.owner, createInput(phoneAndCase()))
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(ctx, f.stranger, created.ID)
	assert.ErrorIs(t, err, order.ErrNotOrderOwner)
	assert.Equal(t, order.StatusPending, f.store.storedOrder(created.ID).Status)

	// администратор тоже не владелец
	_, err = f.svc.CancelOrder(ctx, f.admin, created.ID)
	assert.ErrorIs(t, err, order.ErrNotOrderOwner)
	assert.Equal(t, order.StatusPending, f.store.storedOrder(created.ID).Status)

	cancelled, err := f.svc.CancelOrder(ctx, f.owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, cancelled.Status)
	assert.Equal(t, order.StatusCancelled, f.store.storedOrder(created.ID).Status)

	_, err = f.svc.CancelOrder(ctx, f.owner, created.ID)
	assert.ErrorIs(t, err, order.ErrOrderNotPending)
	assert.Equal(t, order.StatusCancelled, f.store.storedOrder(created.ID).Status)

	_, err = f.svc.CancelOrder(ctx, f.owner, 4242)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestOrderService_CancelOrder_NonPending(t *testing.T) {
	for _, status := range []order.Status{order.StatusSuccess, order.StatusDelivered} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			created, err := f.svc.CreateOrder(ctx, f.owner, createInput(phoneAndCase()))
			require.NoError(t, err)
			_, err = f.svc.UpdateStatus(ctx, f.admin, created.ID, status)
			require.NoError(t, err)

			_, err = f.svc.CancelOrder(ctx, f.owner, created.ID)
			assert.ErrorIs(t, err, order.ErrOrderNotPending)
			assert.Equal(t, status, f.store.storedOrder(created.ID).Status)
		})
	}
}

func TestOrderService_UpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateOrder(ctx, f.owner, createInput(phoneAndCase()))
	require.NoError(t, err)

	// перезапись без таблицы переходов: любое значение в любом порядке
	for _, status := range []order.Status{order.StatusCancelled, order.StatusPending, order.StatusDelivered, order.StatusSuccess} {
		updated, err := f.svc.UpdateStatus(ctx, f.admin, created.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
		assert.Equal(t, status, f.store.storedOrder(created.ID).Status)
	}

	_, err = f.svc.UpdateStatus(ctx, f.owner, created.ID, order.StatusDelivered)
	assert.ErrorIs(t, err, access.ErrForbidden)

	_, err = f.svc.UpdateStatus(ctx, f.admin, created.ID, "x")
	var verr *order.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "status")

	_, err = f.svc.UpdateStatus(ctx, f.admin, 777, order.StatusDelivered)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)

	f.assertTotalInvariant(t, created.ID)
}
