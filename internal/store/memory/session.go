package memory

import (
	"context"
	"sort"
	"time"

	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/model"
	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/store"
)

func (s *Store) CreateSession(_ context.Context, sess model.Session) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[sess.UserID]; !ok {
		return model.Session{}, store.ErrNotFound
	}
	if sess.Token == "" {
		return model.Session{}, errWithCode("token_required")
	}

	sess.ID = newID()
	sess.CreatedAt = time.Now().UTC()
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *Store) ListSessionsByUser(_ context.Context, userID string) ([]model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []model.Session{}
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
