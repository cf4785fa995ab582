package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/loandesk/internal/client/localdb"
	"github.com/dmitrijs2005/loandesk/internal/client/models"
	"github.com/dmitrijs2005/loandesk/internal/client/repositories/storage"
	"github.com/dmitrijs2005/loandesk/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := localdb.Open(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func openStore(t *testing.T, db *sql.DB) *Store {
	t.Helper()
	s, err := Open(context.Background(), db, logging.Discard())
	require.NoError(t, err)
	return s
}

func persisted(t *testing.T, db *sql.DB) record {
	t.Helper()
	raw, err := storage.NewSQLiteRepository(db).Get(context.Background(), StorageKey)
	require.NoError(t, err)
	require.NotNil(t, raw, "session record must be persisted")
	var rec record
	require.NoError(t, json.Unmarshal(raw, &rec))
	return rec
}

var staff = models.User{
	ID:       "u-1",
	Name:     "Sari",
	Email:    "sari@example.com",
	Username: "sari",
	Role:     models.RoleStaff,
	Status:   models.UserStatusActive,
}

func TestOpen_EmptyStorage_IsLoggedOut(t *testing.T) {
	s := openStore(t, setupDB(t))

	got := s.Get()
	assert.Nil(t, got.User)
	assert.Empty(t, got.Token)
	assert.False(t, got.IsAuthenticated)
}

func TestSet_AuthenticatesAndPersists(t *testing.T) {
	db := setupDB(t)
	s := openStore(t, db)

	require.NoError(t, s.Set(context.Background(), staff, "tok-1"))

	got := s.Get()
	require.True(t, got.IsAuthenticated)
	require.Equal(t, "tok-1", got.Token)
	require.Equal(t, staff, *got.User)

	rec := persisted(t, db)
	assert.Equal(t, 0, rec.Version)
	assert.True(t, rec.State.IsAuthenticated)
	assert.Equal(t, "tok-1", rec.State.Token)

	tok, err := storage.NewSQLiteRepository(db).Get(context.Background(), TokenKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("tok-1"), tok)
}

func TestSetThenClear_ResetsMemoryAndStorage(t *testing.T) {
	db := setupDB(t)
	s := openStore(t, db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Set(ctx, staff, "tok"))
	}
	require.NoError(t, s.Clear(ctx))

	assert.Equal(t, Session{}, s.Get())

	rec := persisted(t, db)
	assert.Equal(t, Session{}, rec.State)

	tok, err := storage.NewSQLiteRepository(db).Get(ctx, TokenKey)
	require.NoError(t, err)
	assert.Nil(t, tok, "standalone token copy must be purged")
}

func TestOpen_RestoresPersistedSession(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, openStore(t, db).Set(context.Background(), staff, "tok-2"))

	restored := openStore(t, db).Get()
	require.True(t, restored.IsAuthenticated)
	require.Equal(t, "tok-2", restored.Token)
	require.Equal(t, "sari", restored.User.Username)
}

func TestOpen_DerivesFlagInsteadOfTrustingDisk(t *testing.T) {
	db := setupDB(t)
	raw := []byte(`{"state":{"user":null,"token":"orphan","isAuthenticated":true},"version":0}`)
	require.NoError(t, storage.NewSQLiteRepository(db).Set(context.Background(), StorageKey, raw))

	got := openStore(t, db).Get()
	assert.Equal(t, Session{}, got)
}

func TestOpen_CorruptRecordStartsEmpty(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, storage.NewSQLiteRepository(db).Set(context.Background(), StorageKey, []byte("{nope")))

	got := openStore(t, db).Get()
	assert.False(t, got.IsAuthenticated)
}

func TestGet_ReturnsCopy(t *testing.T) {
	s := openStore(t, setupDB(t))
	require.NoError(t, s.Set(context.Background(), staff, "tok"))

	snap := s.Get()
	snap.User.Role = models.RoleSuperAdmin

	role, ok := s.Get().Role()
	require.True(t, ok)
	assert.Equal(t, models.RoleStaff, role)
}

func TestClear_PersistFailureStillLogsOut(t *testing.T) {
	db := setupDB(t)
	s := openStore(t, db)
	require.NoError(t, s.Set(context.Background(), staff, "tok"))
	require.NoError(t, db.Close())

	err := s.Clear(context.Background())
	require.Error(t, err)
	assert.False(t, s.Get().IsAuthenticated)
	assert.Empty(t, s.Token())
}

func TestSession_RoleWhenLoggedOut(t *testing.T) {
	_, ok := Session{}.Role()
	assert.False(t, ok)
}
