package order

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/catalog"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/money"
)

// HistoryReader serves the owner's order history read model.
type HistoryReader interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]HistoryEntry, error)
}

type historyOrderRow struct {
	ID      int64     `db:"id"`
	Status  string    `db:"status"`
	Price   *string   `db:"price"`
	Created time.Time `db:"created"`
}

type historyItemRow struct {
	ID        int64   `db:"id"`
	OrderID   int64   `db:"order_id"`
	ProductID int64   `db:"product_id"`
	Price     *string `db:"price"`
}

type sqlxHistoryReader struct {
	db *sqlx.DB
}

func NewHistoryReader(db *sqlx.DB) HistoryReader {
	return &sqlxHistoryReader{db: db}
}

func (r *sqlxHistoryReader) ListByUser(ctx context.Context, userID uuid.UUID) ([]HistoryEntry, error) {
	var orders []historyOrderRow
	err := r.db.SelectContext(ctx, &orders, `
		SELECT id, status, price::text AS price, created
		FROM "order"
		WHERE user_id = $1
		ORDER BY created DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to select order history for user %s: %w", userID, err)
	}

	entries := make([]HistoryEntry, 0, len(orders))
	if len(orders) == 0 {
		return entries, nil
	}

	orderIDs := make([]int64, len(orders))
	for i, o := range orders {
		orderIDs[i] = o.ID
	}

	query, args, err := sqlx.In(`
		SELECT id, order_id, product_id, price::text AS price
		FROM item
		WHERE order_id IN (?)
		ORDER BY id
	`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to build history items query: %w", err)
	}

	var items []historyItemRow
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("repository: failed to select history items for user %s: %w", userID, err)
	}

	byOrder := make(map[int64][]HistoryItem, len(orders))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], HistoryItem{
			ID:        it.ID,
			ProductID: it.ProductID,
			Price:     money.SafeDecimal(it.Price),
			Product:   catalog.ProductSummary{ID: it.ProductID},
		})
	}

	for _, o := range orders {
		entry := HistoryEntry{
			ID:        o.ID,
			Status:    Status(o.Status),
			Price:     money.SafeDecimal(o.Price),
			CreatedAt: o.Created,
			Items:     byOrder[o.ID],
		}
		if entry.Items == nil {
			entry.Items = make([]HistoryItem, 0)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
