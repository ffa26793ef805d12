package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/model"
	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/store"

	"github.com/jackc/pgx/v5"
)

func (s *Store) CreatePasswordReset(ctx context.Context, p model.PasswordReset) (model.PasswordReset, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.PasswordReset{}, mapPgErr(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the owner so concurrent requests for one user serialize and the
	// replace below leaves a single row.
	var userID string
	err = tx.QueryRow(ctx, `
		select id::text from public.users where id = $1::uuid for update
	`, p.UserID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PasswordReset{}, store.ErrNotFound
		}
		return model.PasswordReset{}, mapPgErr(err)
	}

	if _, err := tx.Exec(ctx, `delete from public.password_resets where user_id = $1::uuid`, userID); err != nil {
		return model.PasswordReset{}, mapPgErr(err)
	}

	var createdAt *time.Time
	if !p.CreatedAt.IsZero() {
		createdAt = &p.CreatedAt
	}

	var out model.PasswordReset
	err = tx.QueryRow(ctx, `
		insert into public.password_resets (user_id, otp, expires_at, created_at)
		values ($1::uuid, $2, $3, coalesce($4::timestamptz, now()))
		returning id::text, user_id::text, otp, expires_at, created_at
	`, userID, p.Code, p.ExpiresAt, createdAt).Scan(&out.ID, &out.UserID, &out.Code, &out.ExpiresAt, &out.CreatedAt)
	if err != nil {
		return model.PasswordReset{}, mapPgErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.PasswordReset{}, mapPgErr(err)
	}
	return out, nil
}

func (s *Store) FindPasswordReset(ctx context.Context, userID, code string, now time.Time) (*model.PasswordReset, error) {
	var p model.PasswordReset
	err := s.pool.QueryRow(ctx, `
		select id::text, user_id::text, otp, expires_at, created_at
		from public.password_resets
		where user_id = $1::uuid
		  and otp = $2
		  and expires_at > $3
		order by created_at desc
		limit 1
	`, userID, code, now).Scan(&p.ID, &p.UserID, &p.Code, &p.ExpiresAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, mapPgErr(err)
	}
	return &p, nil
}

func (s *Store) DeletePasswordReset(ctx context.Context, userID, code string) error {
	tag, err := s.pool.Exec(ctx, `
		delete from public.password_resets
		where user_id = $1::uuid
		  and otp = $2
	`, userID, code)
	if err != nil {
		return mapPgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ConsumePasswordReset locks the matching request, updates the password and
// then deletes the request in one transaction. A second caller blocks on the
// row lock and finds nothing once the first commits.
func (s *Store) ConsumePasswordReset(ctx context.Context, req store.ConsumeResetRequest) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return mapPgErr(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var resetID string
	err = tx.QueryRow(ctx, `
		select id::text
		from public.password_resets
		where user_id = $1::uuid
		  and otp = $2
		  and expires_at > $3
		limit 1
		for update
	`, req.UserID, req.Code, req.Now).Scan(&resetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrNotFound
		}
		return mapPgErr(err)
	}

	tag, err := tx.Exec(ctx, `
		update public.users
		set password_hash = $2
		where id = $1::uuid
	`, req.UserID, req.PasswordHash)
	if err != nil {
		return mapPgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	if _, err := tx.Exec(ctx, `delete from public.password_resets where id = $1::uuid`, resetID); err != nil {
		return mapPgErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mapPgErr(err)
	}
	return nil
}
