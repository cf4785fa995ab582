package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/loandesk/internal/client/guard"
	"github.com/dmitrijs2005/loandesk/internal/client/services"
	"github.com/dmitrijs2005/loandesk/internal/common"
)

// ErrNoRoute is returned for a location no route matches.
var ErrNoRoute = errors.New("no such page")

// maxRedirects bounds guard redirects for one navigation. Login resumes the
// original location and home always renders for a logged-in user, so two
// hops are enough; the rest is slack.
const maxRedirects = 4

// Navigate renders location after the route guard has approved it.
//
//   - RedirectToLogin: prompt for credentials (interactive mode only), then
//     resume the original location;
//   - RedirectToHome: tell the user and render home instead.
func (a *App) Navigate(ctx context.Context, location string) error {
	for hop := 0; hop < maxRedirects; hop++ {
		match, d, ok := a.guard.Check(location)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoRoute, location)
		}

		switch d.Verdict {
		case guard.RedirectToLogin:
			if !a.interactive {
				return fmt.Errorf("%w: run 'loandesk login' first", common.ErrNotLoggedIn)
			}
			a.println("Please log in to continue.")
			if err := a.Login(ctx); err != nil {
				return err
			}
			location = d.From
			continue

		case guard.RedirectToHome:
			a.println(fmt.Sprintf("You do not have access to %s.", location))
			location = guard.PathHome
			continue
		}

		a.mu.Lock()
		a.location = location
		a.mu.Unlock()

		err := a.render(ctx, match, location)
		if services.IsSessionError(err) && a.interactive {
			// The API rejected the token mid-render; the session is gone now,
			// so the next hop goes through login.
			a.println("Your session is no longer valid.")
			continue
		}
		return err
	}
	return fmt.Errorf("too many redirects for %s", location)
}

// Location is the last location rendered.
func (a *App) Location() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.location
}

// Page moves the contracts listing by delta pages.
func (a *App) Page(ctx context.Context, delta int) error {
	a.mu.Lock()
	l := a.listing
	a.mu.Unlock()

	next := l.page + delta
	if next < 1 {
		a.println("Already on the first page.")
		return nil
	}

	// Show what is already known about the target page while it loads.
	if r := a.contracts.Peek(next, l.limit, l.search); r.IsPlaceholder {
		a.println(fmt.Sprintf("Loading page %d...", next))
	}
	return a.Navigate(ctx, contractsLocation(next, l.limit, l.search))
}

// Refresh drops every cached read and renders the current location again
// from fresh data.
func (a *App) Refresh(ctx context.Context) error {
	a.cache.Remove(nil)
	return a.Navigate(ctx, a.Location())
}

func contractsLocation(page, limit int, search string) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if search != "" {
		q.Set("search", search)
	}
	return guard.PathContracts + "?" + q.Encode()
}

func contractLocation(id string) string {
	return "/contracts/" + url.PathEscape(id)
}
