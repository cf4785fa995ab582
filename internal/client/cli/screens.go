package cli

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/loandesk/internal/client/guard"
	"github.com/dmitrijs2005/loandesk/internal/client/models"
	"github.com/dmitrijs2005/loandesk/internal/client/query"
	"github.com/dmitrijs2005/loandesk/internal/common"
)

// render draws the screen of a route the guard has already approved.
func (a *App) render(ctx context.Context, m guard.Match, location string) error {
	switch m.Route.Path {
	case guard.PathHome:
		return a.showHome()
	case guard.PathLogin:
		if a.isLoggedIn() {
			return a.WhoAmI(ctx)
		}
		return a.Login(ctx)
	case guard.PathDashboard:
		return a.showDashboard(ctx)
	case guard.PathContracts:
		return a.showContracts(ctx, location)
	case guard.PathContract:
		id, err := url.PathUnescape(m.Params["id"])
		if err != nil {
			return fmt.Errorf("bad contract id: %w", err)
		}
		return a.showContract(ctx, id)
	case guard.PathClients:
		return a.showClients(ctx)
	case guard.PathUsers:
		return a.showUsers(ctx)
	case guard.PathUserNew:
		return a.CreateUser(ctx)
	}
	return fmt.Errorf("%w: %s", ErrNoRoute, location)
}

// menu lists the screens offered on the home page; each is shown only when
// the guard would let the current user open it.
var menu = []struct {
	command string
	path    string
	about   string
}{
	{"dashboard", guard.PathDashboard, "portfolio summary"},
	{"contracts [page] [search]", guard.PathContracts, "list contracts"},
	{"contract <id>", guard.PathContract, "show one contract"},
	{"clients", guard.PathClients, "list clients"},
	{"users", guard.PathUsers, "list users"},
	{"adduser", guard.PathUserNew, "create a user"},
}

func (a *App) showHome() error {
	s := a.store.Get()
	if a.jsonOut {
		return a.outputJSON(s.User)
	}

	if s.User == nil {
		a.println("Not logged in.")
		return nil
	}

	a.println(fmt.Sprintf("Hello, %s (%s).", s.User.Name, s.User.Role.Label()))
	a.println("You can open:")
	for _, item := range menu {
		_, d, ok := a.guard.Check(strings.ReplaceAll(item.path, ":id", "x"))
		if ok && d.Verdict == guard.Render {
			a.println(fmt.Sprintf("  %-26s %s", item.command, item.about))
		}
	}
	return nil
}

func (a *App) showDashboard(ctx context.Context) error {
	s, err := a.dashboard.Summary(ctx)
	if err != nil {
		return err
	}
	if a.jsonOut {
		return a.outputJSON(s)
	}

	a.println(fmt.Sprintf("Contracts: %s (last %s summarised)", formatCount(s.Contracts), formatCount(s.Sampled)))
	rows := make([][]string, 0, len(models.ContractStatuses))
	for _, st := range models.ContractStatuses {
		rows = append(rows, []string{st.Label(), formatCount(s.ByStatus[st])})
	}
	if err := a.table([]string{"STATUS", "COUNT"}, rows); err != nil {
		return err
	}
	a.println(fmt.Sprintf("Total loan:  %s", formatAmount(s.TotalLoan)))
	a.println(fmt.Sprintf("Outstanding: %s", formatAmount(s.Outstanding)))
	a.println(fmt.Sprintf("Clients: %s  Users: %s", formatCount(s.Clients), formatCount(s.Users)))
	return nil
}

// parseListing reads page/limit/search from a contracts location, falling
// back to the configured page size.
func (a *App) parseListing(location string) listing {
	l := listing{page: 1, limit: a.config.PageSize}
	_, rawQuery, _ := strings.Cut(location, "?")
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return l
	}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		l.page = n
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		l.limit = n
	}
	l.search = q.Get("search")
	return l
}

func (a *App) showContracts(ctx context.Context, location string) error {
	l := a.parseListing(location)

	r, err := a.contracts.List(ctx, l.page, l.limit, l.search)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.listing = l
	a.mu.Unlock()

	if a.jsonOut {
		return a.outputJSON(r.Data)
	}

	page := r.Data
	if len(page.Contracts) == 0 {
		a.println("No contracts found.")
	} else {
		rows := make([][]string, 0, len(page.Contracts))
		for _, c := range page.Contracts {
			rows = append(rows, []string{
				c.ID, c.Number(), c.Client.Name, c.Status.Label(),
				formatAmount(c.TotalLoan), formatAmount(c.RemainingLoan),
			})
		}
		if err := a.table([]string{"ID", "NUMBER", "CLIENT", "STATUS", "TOTAL", "REMAINING"}, rows); err != nil {
			return err
		}
	}

	p := page.Pagination
	footer := fmt.Sprintf("Page %d of %d", p.CurrentPage, p.TotalPages)
	if p.HasPrev {
		footer += "  (prev)"
	}
	if p.HasNext {
		footer += "  (next)"
	}
	a.println(footer + staleNote(r))
	return nil
}

func (a *App) showContract(ctx context.Context, id string) error {
	r, err := a.contracts.Get(ctx, id)
	if err != nil {
		return err
	}
	c := r.Data
	if c == nil {
		return fmt.Errorf("contract %s: %w", id, common.ErrNotFound)
	}
	if a.jsonOut {
		return a.outputJSON(c)
	}

	client := c.Client.Name
	if c.Client.CustomID != "" {
		client += " (" + c.Client.CustomID + ")"
	}
	rows := [][]string{
		{"Number", c.Number()},
		{"Client", client},
		{"Status", c.Status.Label()},
		{"OTR price", formatAmount(c.OTRPrice)},
		{"Down payment", formatAmount(c.DPAmount)},
		{"Principal", formatAmount(c.PrincipalAmount)},
		{"Interest rate", formatRate(c.InterestRate)},
		{"Duration", fmt.Sprintf("%d months", c.DurationMonth)},
		{"Installment", formatAmount(c.MonthlyInstallment)},
		{"Total loan", formatAmount(c.TotalLoan)},
		{"Remaining", formatAmount(c.RemainingLoan)},
		{"Created", c.CreatedAt},
	}
	if err := a.table([]string{"CONTRACT", c.ID}, rows); err != nil {
		return err
	}
	if note := staleNote(r); note != "" {
		a.println(strings.TrimSpace(note))
	}
	return nil
}

func (a *App) showClients(ctx context.Context) error {
	r, err := a.users.Clients(ctx)
	if err != nil {
		return err
	}
	return a.showUserList(r, "No clients found.")
}

func (a *App) showUsers(ctx context.Context) error {
	r, err := a.users.Users(ctx)
	if err != nil {
		return err
	}
	return a.showUserList(r, "No users found.")
}

func (a *App) showUserList(r query.Result[[]models.User], empty string) error {
	if a.jsonOut {
		return a.outputJSON(r.Data)
	}
	if len(r.Data) == 0 {
		a.println(empty)
		return nil
	}

	rows := make([][]string, 0, len(r.Data))
	for _, u := range r.Data {
		rows = append(rows, []string{u.ID, u.CustomID, u.Name, u.Username, u.Email, u.Role.Label(), u.Status.Label()})
	}
	if err := a.table([]string{"ID", "CUSTOM ID", "NAME", "USERNAME", "EMAIL", "ROLE", "STATUS"}, rows); err != nil {
		return err
	}
	if note := staleNote(r); note != "" {
		a.println(strings.TrimSpace(note))
	}
	return nil
}

// staleNote tells the user the data shown may be outdated.
func staleNote[T any](r query.Result[T]) string {
	switch {
	case r.IsStale && r.Err != nil:
		return "  [cached, refresh failed]"
	case r.IsStale:
		return "  [cached, refreshing]"
	}
	return ""
}
