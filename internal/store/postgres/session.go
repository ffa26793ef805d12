package postgres

import (
	"context"

	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/model"
)

func (s *Store) CreateSession(ctx context.Context, sess model.Session) (model.Session, error) {
	var out model.Session
	err := s.pool.QueryRow(ctx, `
		insert into public.sessions (user_id, token, expires_at)
		values ($1::uuid, $2, $3)
		returning id::text, user_id::text, token, expires_at, created_at
	`, sess.UserID, sess.Token, sess.ExpiresAt).Scan(
		&out.ID,
		&out.UserID,
		&out.Token,
		&out.ExpiresAt,
		&out.CreatedAt,
	)
	if err != nil {
		return model.Session{}, mapPgErr(err)
	}
	return out, nil
}

func (s *Store) ListSessionsByUser(ctx context.Context, userID string) ([]model.Session, error) {
	rows, err := s.pool.Query(ctx, `
		select id::text, user_id::text, token, expires_at, created_at
		from public.sessions
		where user_id = $1::uuid
		order by created_at desc
	`, userID)
	if err != nil {
		return nil, mapPgErr(err)
	}
	defer rows.Close()

	out := []model.Session{}
	for rows.Next() {
		var sess model.Session
		if err := rows.Scan(&sess.ID, &sess.UserID, &sess.Token, &sess.ExpiresAt, &sess.CreatedAt); err != nil {
			return nil, mapPgErr(err)
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgErr(err)
	}
	return out, nil
}
