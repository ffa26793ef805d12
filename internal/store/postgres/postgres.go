package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/store"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

func NewStore(databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	// Ping to fail fast.
	ctxPing, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) PurgeExpired(ctx context.Context, before time.Time) (store.PurgeResult, error) {
	var res store.PurgeResult

	tag, err := s.pool.Exec(ctx, `delete from public.password_resets where expires_at <= $1`, before)
	if err != nil {
		return res, mapPgErr(err)
	}
	res.PasswordResets = int(tag.RowsAffected())

	tag, err = s.pool.Exec(ctx, `delete from public.sessions where expires_at <= $1`, before)
	if err != nil {
		return res, mapPgErr(err)
	}
	res.Sessions = int(tag.RowsAffected())
	return res, nil
}

func mapPgErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return store.ErrConflict
		case "23503":
			return store.ErrNotFound
		case "22P02":
			// invalid uuid text
			return store.ErrNotFound
		default:
			return fmt.Errorf("db_error %s: %s", pgErr.Code, pgErr.Message)
		}
	}
	return err
}
