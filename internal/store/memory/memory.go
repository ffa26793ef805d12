package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/model"
	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/store"
)

type Store struct {
	mu sync.Mutex

	users    map[string]model.User
	sessions map[string]model.Session
	resets   map[string]model.PasswordReset
}

var _ store.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		users:    make(map[string]model.User),
		sessions: make(map[string]model.Session),
		resets:   make(map[string]model.PasswordReset),
	}
}

func (s *Store) PurgeExpired(_ context.Context, before time.Time) (store.PurgeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res store.PurgeResult
	for id, p := range s.resets {
		if !p.ExpiresAt.After(before) {
			delete(s.resets, id)
			res.PasswordResets++
		}
	}
	for id, sess := range s.sessions {
		if !sess.ExpiresAt.After(before) {
			delete(s.sessions, id)
			res.Sessions++
		}
	}
	return res, nil
}

type errWithCode string

func (e errWithCode) Error() string { return string(e) }
