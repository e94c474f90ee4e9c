package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/access"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/db"
)

var ErrNotFound = errors.New("user not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}

type postgresRepository struct {
	db db.DBTX
}

func NewRepository(q db.DBTX) Repository {
	return &postgresRepository{db: q}
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `
		SELECT id, full_name, phone_number, role, created
		FROM users
		WHERE id = $1
	`

	var u User
	var role string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.FullName,
		&u.PhoneNumber,
		&role,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Stringer("user_id", id).Msg("repository: failed to select user by id")
		return nil, fmt.Errorf("repository: failed to select user by id %s: %w", id, err)
	}
	u.Role = access.Role(role)

	return &u, nil
}
