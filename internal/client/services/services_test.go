package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/loandesk/internal/client/localdb"
	"github.com/dmitrijs2005/loandesk/internal/client/models"
	"github.com/dmitrijs2005/loandesk/internal/client/query"
	"github.com/dmitrijs2005/loandesk/internal/client/session"
	"github.com/dmitrijs2005/loandesk/internal/logging"
	"github.com/stretchr/testify/require"
)

// ---- fake client ----

// fakeClient implements client.Client for service tests.
type fakeClient struct {
	mu sync.Mutex

	LoginRet *models.LoginResult
	LoginErr error

	ContractsRet *models.ContractsPage
	ContractsErr error

	ContractRet *models.Contract
	ContractErr error

	UsersRet []models.User
	UsersErr error

	CreateRet *models.User
	CreateErr error

	PingErr error

	// call counters and last arguments
	LoginCalls     int32
	ContractsCalls int32
	ContractCalls  int32
	UsersCalls     int32
	CreateCalls    int32

	LastLogin         models.LoginForm
	LastPage          int
	LastLimit         int
	LastSearch        string
	LastContractID    string
	LastCreateRequest models.CreateUserForm
}

func (f *fakeClient) Login(ctx context.Context, form models.LoginForm) (*models.LoginResult, error) {
	atomic.AddInt32(&f.LoginCalls, 1)
	f.mu.Lock()
	f.LastLogin = form
	f.mu.Unlock()
	return f.LoginRet, f.LoginErr
}

func (f *fakeClient) ListContracts(ctx context.Context, page, limit int, search string) (*models.ContractsPage, error) {
	atomic.AddInt32(&f.ContractsCalls, 1)
	f.mu.Lock()
	f.LastPage, f.LastLimit, f.LastSearch = page, limit, search
	f.mu.Unlock()
	return f.ContractsRet, f.ContractsErr
}

func (f *fakeClient) GetContract(ctx context.Context, id string) (*models.Contract, error) {
	atomic.AddInt32(&f.ContractCalls, 1)
	f.mu.Lock()
	f.LastContractID = id
	f.mu.Unlock()
	return f.ContractRet, f.ContractErr
}

func (f *fakeClient) ListUsers(ctx context.Context) ([]models.User, error) {
	atomic.AddInt32(&f.UsersCalls, 1)
	return f.UsersRet, f.UsersErr
}

func (f *fakeClient) CreateUser(ctx context.Context, form models.CreateUserForm) (*models.User, error) {
	atomic.AddInt32(&f.CreateCalls, 1)
	f.mu.Lock()
	f.LastCreateRequest = form
	f.mu.Unlock()
	return f.CreateRet, f.CreateErr
}

func (f *fakeClient) Ping(ctx context.Context) error { return f.PingErr }

// ---- helpers ----

func newCache() *query.Cache {
	return query.New(query.Options{RetryDelay: time.Millisecond, Retry: -1})
}

func setupStore(t *testing.T) (*session.Store, *sql.DB) {
	t.Helper()
	db, err := localdb.Open(context.Background(), filepath.Join(t.TempDir(), "svc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := session.Open(context.Background(), db, logging.Discard())
	require.NoError(t, err)
	return s, db
}

func strp(s string) *string { return &s }
