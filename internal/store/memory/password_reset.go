package memory

import (
	"context"
	"time"

	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/model"
	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/store"
)

func (s *Store) CreatePasswordReset(_ context.Context, p model.PasswordReset) (model.PasswordReset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[p.UserID]; !ok {
		return model.PasswordReset{}, store.ErrNotFound
	}
	if p.Code == "" {
		return model.PasswordReset{}, errWithCode("code_required")
	}

	for id, existing := range s.resets {
		if existing.UserID == p.UserID {
			delete(s.resets, id)
		}
	}

	p.ID = newID()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.resets[p.ID] = p
	return p, nil
}

func (s *Store) FindPasswordReset(_ context.Context, userID, code string, now time.Time) (*model.PasswordReset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.findResetLocked(userID, code, now)
	if !ok {
		return nil, store.ErrNotFound
	}
	p := s.resets[id]
	return &p, nil
}

func (s *Store) DeletePasswordReset(_ context.Context, userID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := false
	for id, p := range s.resets {
		if p.UserID == userID && p.Code == code {
			delete(s.resets, id)
			deleted = true
		}
	}
	if !deleted {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ConsumePasswordReset(_ context.Context, req store.ConsumeResetRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.findResetLocked(req.UserID, req.Code, req.Now)
	if !ok {
		return store.ErrNotFound
	}
	if err := s.updatePasswordLocked(req.UserID, req.PasswordHash); err != nil {
		return err
	}
	delete(s.resets, id)
	return nil
}

func (s *Store) findResetLocked(userID, code string, now time.Time) (string, bool) {
	for id, p := range s.resets {
		if p.UserID == userID && p.Code == code && !p.Expired(now) {
			return id, true
		}
	}
	return "", false
}
