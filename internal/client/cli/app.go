package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/loandesk/internal/buildinfo"
	"github.com/dmitrijs2005/loandesk/internal/client/client"
	"github.com/dmitrijs2005/loandesk/internal/client/config"
	"github.com/dmitrijs2005/loandesk/internal/client/guard"
	"github.com/dmitrijs2005/loandesk/internal/client/localdb"
	"github.com/dmitrijs2005/loandesk/internal/client/query"
	"github.com/dmitrijs2005/loandesk/internal/client/services"
	"github.com/dmitrijs2005/loandesk/internal/client/session"
	"github.com/dmitrijs2005/loandesk/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const pingTimeout = 3 * time.Second

type App struct {
	config *config.Config
	log    logging.Logger
	db     *sql.DB

	store     *session.Store
	cache     *query.Cache
	api       client.Client
	auth      services.AuthService
	contracts services.ContractService
	users     services.UserService
	dashboard services.DashboardService
	guard     *guard.Guard

	reader *bufio.Reader
	out    io.Writer

	// jsonOut switches screens to JSON output.
	jsonOut bool
	// interactive allows prompting for credentials on a login redirect.
	interactive bool

	mu       sync.Mutex
	mode     Mode
	location string
	listing  listing
}

// listing remembers the last contracts page shown, for next/prev.
type listing struct {
	page   int
	limit  int
	search string
}

// NewApp opens local storage, restores the session and wires the services.
// Close must be called when done.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	db, err := localdb.Open(ctx, cfg.StoragePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	store, err := session.Open(ctx, db, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	retries := cfg.Retry
	if retries == 0 {
		retries = -1
	}
	cache := query.New(query.Options{
		StaleTime:  cfg.StaleTime,
		GCTime:     cfg.GCTime,
		Retry:      retries,
		RetryDelay: cfg.RetryDelay,
		Log:        log,
	})

	api, err := client.NewHTTPClient(client.Options{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.RequestTimeout,
		Token:     store.Token,
		UserAgent: "loandesk/" + buildinfo.Version,
		Log:       log,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	auth := services.NewAuthService(api, store, cache, log)
	api.SetUnauthorizedHandler(auth.HandleUnauthorized)

	contracts := services.NewContractService(api, cache)
	users := services.NewUserService(api, cache, log)

	return &App{
		config:    cfg,
		log:       log,
		db:        db,
		store:     store,
		cache:     cache,
		api:       api,
		auth:      auth,
		contracts: contracts,
		users:     users,
		dashboard: services.NewDashboardService(contracts, users),
		guard:     guard.New(store, guard.DefaultRouter()),
		reader:    bufio.NewReader(in),
		out:       out,
		mode:      ModeOnline,
		location:  guard.PathHome,
		listing:   listing{page: services.DefaultPage, limit: cfg.PageSize},
	}, nil
}

// Close releases local storage.
func (a *App) Close() error {
	return a.db.Close()
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(ctx, "switched mode", "mode", mode)
	}
}

func (a *App) isLoggedIn() bool {
	return a.store.Get().IsAuthenticated
}

// getStatus renders the prompt decoration, e.g. "(sari STAFF online)".
func (a *App) getStatus() string {
	s := ""
	if sess := a.store.Get(); sess.IsAuthenticated {
		s = fmt.Sprintf("%s %s ", sess.User.Username, sess.User.Role)
	}
	s += string(a.Mode())
	return fmt.Sprintf("(%s)", s)
}

// Run starts the background jobs and the REPL, and blocks until the user
// exits or ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.interactive = true
	a.expireSession(ctx)

	jobs := a.startJobs(ctx)
	defer func() { <-jobs.Stop().Done() }()

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	printlnFn(fmt.Sprintf("Welcome to loandesk %s (type 'help' for commands)", buildinfo.Version))
	if err := a.Navigate(ctx, guard.PathHome); err != nil {
		printlnFn("Error:", err)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

// StartOnlineStatusWatcher pings the API every interval and flips the mode
// between online and offline. It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.api.Ping(pctx)
	cancel()

	if err != nil {
		a.setMode(ctx, ModeOffline)
		return
	}
	a.setMode(ctx, ModeOnline)
}
