package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/db"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/money"
)

var (
	ErrProductNotFound        = errors.New("product not found")
	ErrColorVariantNotFound   = errors.New("color variant not found")
	ErrFeatureVariantNotFound = errors.New("feature variant not found")
)

// Reader is the read-only catalog view used while pricing an order.
type Reader interface {
	GetProduct(ctx context.Context, id int64) (*Product, error)
	GetColorVariant(ctx context.Context, id int64) (*ColorVariant, error)
	GetFeatureVariant(ctx context.Context, id int64) (*FeatureVariant, error)
}

type SummaryReader interface {
	GetSummaries(ctx context.Context, ids []int64) (map[int64]ProductSummary, error)
}

type PostgresRepository struct {
	db db.DBTX
}

func NewRepository(q db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: q}
}

func (r *PostgresRepository) GetProduct(ctx context.Context, id int64) (*Product, error) {
	query := `
		SELECT id, title, title_uz, title_ru, title_en, price::text, is_active
		FROM product
		WHERE id = $1
	`

	var (
		p          Product
		uz, ru, en *string
		price      *string
	)
	err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.Title, &uz, &ru, &en, &price, &p.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrProductNotFound, id)
		}
		log.Error().Err(err).Int64("product_id", id).Msg("repository: failed to select product")
		return nil, fmt.Errorf("repository: failed to select product %d: %w", id, err)
	}
	p.Titles = NewTranslations(uz, ru, en)
	p.Price = money.SafeDecimal(price)

	return &p, nil
}

func (r *PostgresRepository) GetColorVariant(ctx context.Context, id int64) (*ColorVariant, error) {
	query := `
		SELECT pc.id, pc.product_id, c.name, c.name_uz, c.name_ru, c.name_en, pc.price::text
		FROM productcolor pc
		LEFT JOIN color c ON c.id = pc.color_id
		WHERE pc.id = $1
	`

	var (
		cv         ColorVariant
		uz, ru, en *string
		price      *string
	)
	err := r.db.QueryRow(ctx, query, id).Scan(&cv.ID, &cv.ProductID, &cv.ColorName, &uz, &ru, &en, &price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrColorVariantNotFound, id)
		}
		log.Error().Err(err).Int64("color_variant_id", id).Msg("repository: failed to select color variant")
		return nil, fmt.Errorf("repository: failed to select color variant %d: %w", id, err)
	}
	cv.ColorNames = NewTranslations(uz, ru, en)
	cv.Price = money.SafeDecimal(price)

	return &cv, nil
}

func (r *PostgresRepository) GetFeatureVariant(ctx context.Context, id int64) (*FeatureVariant, error) {
	query := `
		SELECT pv.id, pv.product_id, pt.id, pt.name, pt.name_uz, pt.name_ru, pt.name_en, pv.value, pv.price::text
		FROM productvalue pv
		JOIN producttype pt ON pt.id = pv.type_id
		WHERE pv.id = $1
	`

	var (
		fv         FeatureVariant
		uz, ru, en *string
		price      *string
	)
	err := r.db.QueryRow(ctx, query, id).Scan(&fv.ID, &fv.ProductID, &fv.TypeID, &fv.TypeName, &uz, &ru, &en, &fv.Value, &price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrFeatureVariantNotFound, id)
		}
		log.Error().Err(err).Int64("feature_variant_id", id).Msg("repository: failed to select feature variant")
		return nil, fmt.Errorf("repository: failed to select feature variant %d: %w", id, err)
	}
	fv.TypeNames = NewTranslations(uz, ru, en)
	fv.Price = money.SafeDecimal(price)

	return &fv, nil
}

func (r *PostgresRepository) GetSummaries(ctx context.Context, ids []int64) (map[int64]ProductSummary, error) {
	summaries := make(map[int64]ProductSummary, len(ids))
	if len(ids) == 0 {
		return summaries, nil
	}

	query := `
		SELECT p.id, p.title, p.title_uz, p.title_ru, p.title_en,
			COALESCE(array_agg(pi.image ORDER BY pi.id) FILTER (WHERE pi.id IS NOT NULL), '{}')
		FROM product p
		LEFT JOIN productimage pi ON pi.product_id = p.id
		WHERE p.id = ANY($1)
		GROUP BY p.id
	`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query product summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			s          ProductSummary
			uz, ru, en *string
		)
		if err := rows.Scan(&s.ID, &s.Title, &uz, &ru, &en, &s.Images); err != nil {
			return nil, fmt.Errorf("repository: failed to scan product summary: %w", err)
		}
		s.Titles = NewTranslations(uz, ru, en)
		summaries[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating product summaries: %w", err)
	}

	return summaries, nil
}
