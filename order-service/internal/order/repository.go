package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/catalog"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/db"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/money"
)

type Repository interface {
	CreateLocation(ctx context.Context, loc *Location) error
	UpdateLocation(ctx context.Context, loc *Location) error
	CreateOrder(ctx context.Context, order *Order) error
	UpdateOrder(ctx context.Context, order *Order) error
	GetOrderByID(ctx context.Context, id int64) (*Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	// CompareAndSetStatus sets next only if the current status equals expected.
	CompareAndSetStatus(ctx context.Context, id int64, expected, next Status) (bool, error)
	DeleteOrder(ctx context.Context, id int64) error
	CreateItem(ctx context.Context, item *Item) error
	CreateItemFeature(ctx context.Context, itemID, featureID int64) error
	DeleteItems(ctx context.Context, orderID int64) error
	ListItemPrices(ctx context.Context, orderID int64) ([]decimal.Decimal, error)
}

type postgresRepository struct {
	db db.DBTX
}

func NewRepository(q db.DBTX) Repository {
	return &postgresRepository{db: q}
}

// wrapDBError помечает нарушения ограничений как ErrIntegrity.
func wrapDBError(msg string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) &&
		(pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) || pgerrcode.IsDataException(pgErr.Code)) {
		log.Warn().Str("pg_code", pgErr.Code).Str("constraint", pgErr.ConstraintName).Msg("repository: " + msg)
		return fmt.Errorf("repository: %s: %w: %s", msg, ErrIntegrity, pgErr.Code)
	}
	return fmt.Errorf("repository: %s: %w", msg, err)
}

func (r *postgresRepository) CreateLocation(ctx context.Context, loc *Location) error {
	query := `
		INSERT INTO location (country, region, district, street, house, postal_code, full_address, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created
	`
	err := r.db.QueryRow(ctx, query,
		loc.Country, loc.Region, loc.District, loc.Street, loc.House,
		loc.PostalCode, loc.FullAddress, loc.Latitude, loc.Longitude,
	).Scan(&loc.ID, &loc.CreatedAt)
	if err != nil {
		return wrapDBError("failed to insert location", err)
	}
	return nil
}

func (r *postgresRepository) UpdateLocation(ctx context.Context, loc *Location) error {
	query := `
		UPDATE location
		SET country = $1, region = $2, district = $3, street = $4, house = $5,
			postal_code = $6, full_address = $7, latitude = $8, longitude = $9
		WHERE id = $10
		RETURNING created
	`
	err := r.db.QueryRow(ctx, query,
		loc.Country, loc.Region, loc.District, loc.Street, loc.House,
		loc.PostalCode, loc.FullAddress, loc.Latitude, loc.Longitude, loc.ID,
	).Scan(&loc.CreatedAt)
	if err != nil {
		return wrapDBError(fmt.Sprintf("failed to update location %d", loc.ID), err)
	}
	return nil
}

func (r *postgresRepository) CreateOrder(ctx context.Context, o *Order) error {
	query := `
		INSERT INTO "order" (user_id, status, location_id, name, phone_number, additional_phone_number, receive, payment, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created
	`
	err := r.db.QueryRow(ctx, query,
		o.UserID,
		string(o.Status),
		o.LocationID,
		o.Name,
		o.PhoneNumber,
		o.AdditionalPhoneNumber,
		string(o.Receive),
		string(o.Payment),
		o.Price,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", o.UserID).Msg("repository: failed to insert order")
		return wrapDBError("failed to insert order", err)
	}
	return nil
}

func (r *postgresRepository) UpdateOrder(ctx context.Context, o *Order) error {
	query := `
		UPDATE "order"
		SET status = $1, location_id = $2, name = $3, phone_number = $4,
			additional_phone_number = $5, receive = $6, payment = $7, price = $8
		WHERE id = $9
	`
	cmdTag, err := r.db.Exec(ctx, query,
		string(o.Status),
		o.LocationID,
		o.Name,
		o.PhoneNumber,
		o.AdditionalPhoneNumber,
		string(o.Receive),
		string(o.Payment),
		o.Price,
		o.ID,
	)
	if err != nil {
		log.Error().Err(err).Int64("order_id", o.ID).Msg("repository: failed to update order")
		return wrapDBError(fmt.Sprintf("failed to update order %d", o.ID), err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

const selectOrder = `
	SELECT o.id, o.user_id, o.status, o.location_id, o.name, o.phone_number, o.additional_phone_number,
		o.receive, o.payment, o.price::text, o.created,
		l.country, l.region, l.district, l.street, l.house, l.postal_code, l.full_address,
		l.latitude, l.longitude, l.created
	FROM "order" o
	LEFT JOIN location l ON l.id = o.location_id
`

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o         Order
		price     *string
		loc       Location
		lat, lng  *float64
		locCreate *time.Time
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.Status, &o.LocationID, &o.Name, &o.PhoneNumber, &o.AdditionalPhoneNumber,
		&o.Receive, &o.Payment, &price, &o.CreatedAt,
		&loc.Country, &loc.Region, &loc.District, &loc.Street, &loc.House, &loc.PostalCode, &loc.FullAddress,
		&lat, &lng, &locCreate,
	)
	if err != nil {
		return nil, err
	}

	o.Price = money.SafeDecimal(price)
	if o.LocationID != nil && lat != nil && lng != nil {
		loc.ID = *o.LocationID
		loc.Latitude = *lat
		loc.Longitude = *lng
		if locCreate != nil {
			loc.CreatedAt = *locCreate
		}
		o.Location = &loc
	}
	o.Items = make([]Item, 0)

	return &o, nil
}

func (r *postgresRepository) GetOrderByID(ctx context.Context, id int64) (*Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, selectOrder+` WHERE o.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %d: %w", id, err)
	}

	items, err := r.loadItems(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if its, ok := items[id]; ok {
		o.Items = its
	}

	return o, nil
}

func (r *postgresRepository) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := r.db.Query(ctx, selectOrder+` ORDER BY o.created DESC, o.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	ordersMap := make(map[int64]*Order)
	var orderIDs []int64

	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		ordersMap[o.ID] = o
		orderIDs = append(orderIDs, o.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating orders: %w", err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	items, err := r.loadItems(ctx, orderIDs)
	if err != nil {
		return nil, err
	}

	result := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		o := ordersMap[id]
		if its, ok := items[id]; ok {
			o.Items = its
		}
		result = append(result, *o)
	}

	return result, nil
}

// loadItems returns the items of the given orders with their color and feature
// selections, keyed by order id.
func (r *postgresRepository) loadItems(ctx context.Context, orderIDs []int64) (map[int64][]Item, error) {
	itemsQuery := `
		SELECT i.id, i.order_id, i.product_id, i.color_id, i.quantity, i.price::text,
			c.name, c.name_uz, c.name_ru, c.name_en
		FROM item i
		LEFT JOIN productcolor pc ON pc.id = i.color_id
		LEFT JOIN color c ON c.id = pc.color_id
		WHERE i.order_id = ANY($1)
		ORDER BY i.id
	`
	rows, err := r.db.Query(ctx, itemsQuery, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer rows.Close()

	var (
		items   []*Item
		itemIDs []int64
	)
	byID := make(map[int64]*Item)
	for rows.Next() {
		var (
			it         Item
			price      *string
			name       *string
			uz, ru, en *string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ColorID, &it.Quantity, &price, &name, &uz, &ru, &en); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		it.Price = money.SafeDecimal(price)
		it.Product = catalog.ProductSummary{ID: it.ProductID}
		if it.ColorID != nil {
			it.Color = &ItemColor{ID: *it.ColorID, Name: name, Names: catalog.NewTranslations(uz, ru, en)}
		}
		it.Features = make([]ItemFeature, 0)
		items = append(items, &it)
		itemIDs = append(itemIDs, it.ID)
		byID[it.ID] = &it
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating order items: %w", err)
	}

	if len(itemIDs) > 0 {
		if err := r.loadFeatures(ctx, itemIDs, byID); err != nil {
			return nil, err
		}
	}

	result := make(map[int64][]Item, len(orderIDs))
	for _, it := range items {
		result[it.OrderID] = append(result[it.OrderID], *it)
	}
	return result, nil
}

func (r *postgresRepository) loadFeatures(ctx context.Context, itemIDs []int64, byID map[int64]*Item) error {
	query := `
		SELECT iv.id, iv.item_id, iv.feature_id, pt.name, pt.name_uz, pt.name_ru, pt.name_en, pv.value
		FROM itemvalue iv
		LEFT JOIN productvalue pv ON pv.id = iv.feature_id
		LEFT JOIN producttype pt ON pt.id = pv.type_id
		WHERE iv.item_id = ANY($1)
		ORDER BY iv.id
	`
	rows, err := r.db.Query(ctx, query, itemIDs)
	if err != nil {
		return fmt.Errorf("repository: failed to query item features: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			f               ItemFeature
			itemID          int64
			typeName, value *string
			uz, ru, en      *string
		)
		if err := rows.Scan(&f.ID, &itemID, &f.FeatureID, &typeName, &uz, &ru, &en, &value); err != nil {
			return fmt.Errorf("repository: failed to scan item feature: %w", err)
		}
		if typeName != nil {
			f.TypeName = *typeName
		}
		if value != nil {
			f.Value = *value
		}
		f.TypeNames = catalog.NewTranslations(uz, ru, en)
		if it, ok := byID[itemID]; ok {
			it.Features = append(it.Features, f)
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("repository: failed iterating item features: %w", err)
	}
	return nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	query := `UPDATE "order" SET status = $1 WHERE id = $2`

	cmdTag, err := r.db.Exec(ctx, query, string(status), id)
	if err != nil {
		log.Error().Err(err).Int64("order_id", id).Str("new_status", string(status)).Msg("repository: failed to update order status")
		return wrapDBError(fmt.Sprintf("failed to update order status %d", id), err)
	}

	if cmdTag.RowsAffected() == 0 {
		log.Warn().Int64("order_id", id).Str("new_status", string(status)).Msg("repository: order not found for status update")
		return ErrOrderNotFound
	}

	return nil
}

func (r *postgresRepository) CompareAndSetStatus(ctx context.Context, id int64, expected, next Status) (bool, error) {
	query := `UPDATE "order" SET status = $1 WHERE id = $2 AND status = $3`

	cmdTag, err := r.db.Exec(ctx, query, string(next), id, string(expected))
	if err != nil {
		log.Error().Err(err).Int64("order_id", id).Str("new_status", string(next)).Msg("repository: failed to transition order status")
		return false, wrapDBError(fmt.Sprintf("failed to transition order status %d", id), err)
	}
	return cmdTag.RowsAffected() == 1, nil
}

func (r *postgresRepository) DeleteOrder(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM "order" WHERE id = $1`, id)
	if err != nil {
		log.Error().Err(err).Int64("order_id", id).Msg("repository: failed to delete order")
		return wrapDBError(fmt.Sprintf("failed to delete order %d", id), err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *postgresRepository) CreateItem(ctx context.Context, it *Item) error {
	query := `
		INSERT INTO item (order_id, product_id, color_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query, it.OrderID, it.ProductID, it.ColorID, it.Quantity, it.Price).Scan(&it.ID)
	if err != nil {
		return wrapDBError(fmt.Sprintf("failed to insert item for order %d", it.OrderID), err)
	}
	return nil
}

func (r *postgresRepository) CreateItemFeature(ctx context.Context, itemID, featureID int64) error {
	query := `INSERT INTO itemvalue (item_id, feature_id) VALUES ($1, $2)`
	if _, err := r.db.Exec(ctx, query, itemID, featureID); err != nil {
		return wrapDBError(fmt.Sprintf("failed to insert feature %d for item %d", featureID, itemID), err)
	}
	return nil
}

func (r *postgresRepository) DeleteItems(ctx context.Context, orderID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM item WHERE order_id = $1`, orderID); err != nil {
		return wrapDBError(fmt.Sprintf("failed to delete items of order %d", orderID), err)
	}
	return nil
}

func (r *postgresRepository) ListItemPrices(ctx context.Context, orderID int64) ([]decimal.Decimal, error) {
	rows, err := r.db.Query(ctx, `SELECT price::text FROM item WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query item prices of order %d: %w", orderID, err)
	}
	defer rows.Close()

	prices := make([]decimal.Decimal, 0)
	for rows.Next() {
		var price *string
		if err := rows.Scan(&price); err != nil {
			return nil, fmt.Errorf("repository: failed to scan item price: %w", err)
		}
		prices = append(prices, money.SafeDecimal(price))
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating item prices: %w", err)
	}
	return prices, nil
}
