package order

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/catalog"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/db"
)

// UnitOfWork exposes repositories bound to one connection or transaction.
type UnitOfWork interface {
	Orders() Repository
	Catalog() catalog.Reader
}

// Store runs order writes atomically. Outside RunInTx it reads through the pool.
type Store interface {
	UnitOfWork
	RunInTx(ctx context.Context, fn func(uow UnitOfWork) error) error
}

type unit struct {
	orders  Repository
	catalog catalog.Reader
}

func (u *unit) Orders() Repository      { return u.orders }
func (u *unit) Catalog() catalog.Reader { return u.catalog }

type postgresStore struct {
	unit
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) Store {
	return &postgresStore{
		unit: unit{orders: NewRepository(pool), catalog: catalog.NewRepository(pool)},
		pool: pool,
	}
}

func (s *postgresStore) RunInTx(ctx context.Context, fn func(uow UnitOfWork) error) error {
	return db.RunInTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&unit{orders: NewRepository(tx), catalog: catalog.NewRepository(tx)})
	})
}
