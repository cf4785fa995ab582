// Package session holds the authenticated identity of the client process.
//
// The Store is the single owner of session state. It is created once at
// start-up from the persisted record and handed to whoever needs to read it.
// State changes only through Set (login) and Clear (logout or expiry), and
// every change is written through to local storage before the call returns.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/loandesk/internal/client/models"
	"github.com/dmitrijs2005/loandesk/internal/client/repositories/storage"
	"github.com/dmitrijs2005/loandesk/internal/dbx"
	"github.com/dmitrijs2005/loandesk/internal/logging"
)

const (
	// StorageKey is the namespace of the persisted session record.
	StorageKey = "auth-storage"

	// TokenKey holds the standalone copy of the token read by older
	// consumers. Clear must remove it too.
	TokenKey = "token"

	recordVersion = 0
)

// Session is a read-only snapshot of the current identity.
type Session struct {
	User            *models.User `json:"user"`
	Token           string       `json:"token"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

// Role returns the user's role, or false when nobody is logged in.
func (s Session) Role() (models.Role, bool) {
	if !s.IsAuthenticated || s.User == nil {
		return "", false
	}
	return s.User.Role, true
}

// record is the persisted shape.
type record struct {
	State   Session `json:"state"`
	Version int     `json:"version"`
}

type Store struct {
	mu    sync.RWMutex
	state Session
	db    *sql.DB
	log   logging.Logger
}

// Open loads the persisted session from db. A missing record yields an empty
// session; an unreadable one is logged and discarded.
func Open(ctx context.Context, db *sql.DB, log logging.Logger) (*Store, error) {
	s := &Store{db: db, log: log}

	raw, err := storage.NewSQLiteRepository(db).Get(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if raw == nil {
		return s, nil
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		log.Warn(ctx, "discarding unreadable session record", "error", err)
		return s, nil
	}

	// The flag is derived, never trusted from disk.
	rec.State.IsAuthenticated = rec.State.User != nil && rec.State.Token != ""
	if !rec.State.IsAuthenticated {
		rec.State = Session{}
	}
	s.state = rec.State
	return s, nil
}

// Get returns a copy of the current state.
func (s *Store) Get() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

func (s *Store) snapshot() Session {
	out := s.state
	if out.User != nil {
		u := *out.User
		out.User = &u
	}
	return out
}

// Set records a successful login. Inputs are not validated; the login flow
// has already done so.
func (s *Store) Set(ctx context.Context, user models.User, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Session{User: &user, Token: token, IsAuthenticated: true}

	return s.persist(ctx, func(ctx context.Context, repo storage.Repository) error {
		return repo.Set(ctx, TokenKey, []byte(token))
	})
}

// Clear drops the session and the standalone token copy. Memory is reset
// even when persisting fails; the error is still returned.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Session{}

	return s.persist(ctx, func(ctx context.Context, repo storage.Repository) error {
		return repo.Delete(ctx, TokenKey)
	})
}

// persist writes the current state record plus extra in one transaction.
// Callers hold s.mu.
func (s *Store) persist(ctx context.Context, extra func(context.Context, storage.Repository) error) error {
	raw, err := json.Marshal(record{State: s.state, Version: recordVersion})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := storage.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, StorageKey, raw); err != nil {
			return err
		}
		return extra(ctx, repo)
	})
	if err != nil {
		s.log.Error(ctx, "session not persisted", "error", err)
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}
