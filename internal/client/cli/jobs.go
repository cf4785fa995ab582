package cli

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/loandesk/internal/common"
	"github.com/dmitrijs2005/loandesk/internal/logging"
	"github.com/robfig/cron/v3"
)

const (
	cacheGCEvery     = time.Minute
	expiryCheckEvery = 30 * time.Second
)

// cronLogger adapts logging.Logger to cron.Logger.
type cronLogger struct {
	log logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(context.Background(), "cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(context.Background(), "cron: "+msg, append(keysAndValues, "error", err)...)
}

// startJobs schedules the housekeeping jobs and starts the scheduler. A
// panicking job is logged and does not stop the others.
func (a *App) startJobs(ctx context.Context) *cron.Cron {
	logger := cronLogger{log: a.log}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	c.Schedule(cron.Every(cacheGCEvery), cron.FuncJob(func() { a.collectCache(ctx) }))
	c.Schedule(cron.Every(expiryCheckEvery), cron.FuncJob(func() { a.expireSession(ctx) }))

	c.Start()
	return c
}

func (a *App) collectCache(ctx context.Context) {
	if n := a.cache.Collect(); n > 0 {
		a.log.Debug(ctx, "cache entries collected", "count", n, "left", a.cache.Len())
	}
}

// expireSession logs the user out once the token's exp claim has passed.
func (a *App) expireSession(ctx context.Context) {
	expired, err := a.auth.ExpireIfNeeded(ctx)
	switch {
	case errors.Is(err, common.ErrInvalidToken):
		a.log.Debug(ctx, "session token has no readable expiry", "error", err)
	case err != nil:
		a.log.Warn(ctx, "session expiry check failed", "error", err)
	case expired:
		printlnFn("Your session has expired. Please log in again.")
	}
}
