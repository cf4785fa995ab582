package services

import (
	"context"

	"github.com/dmitrijs2005/loandesk/internal/client/models"
	"golang.org/x/sync/errgroup"
)

// dashboardSample is the number of most recent contracts the summary is
// computed over.
const dashboardSample = 100

type Summary struct {
	// Contracts is the server's total when it reports one, else the sample size.
	Contracts   int64                         `json:"contracts"`
	Sampled     int                           `json:"sampled"`
	ByStatus    map[models.ContractStatus]int `json:"by_status"`
	Outstanding float64                       `json:"outstanding"`
	TotalLoan   float64                       `json:"total_loan"`
	Clients     int                           `json:"clients"`
	Users       int                           `json:"users"`
}

type DashboardService interface {
	Summary(ctx context.Context) (*Summary, error)
}

type dashboardService struct {
	contracts ContractService
	users     UserService
}

func NewDashboardService(contracts ContractService, users UserService) DashboardService {
	return &dashboardService{contracts: contracts, users: users}
}

// Summary loads contracts and users concurrently; either failure fails the
// whole summary.
func (d *dashboardService) Summary(ctx context.Context) (*Summary, error) {
	var (
		page  models.ContractsPage
		users []models.User
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := d.contracts.List(gctx, DefaultPage, dashboardSample, "")
		page = r.Data
		return err
	})
	g.Go(func() error {
		r, err := d.users.Users(gctx)
		users = r.Data
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := &Summary{
		Contracts: page.Pagination.Total,
		Sampled:   len(page.Contracts),
		ByStatus:  make(map[models.ContractStatus]int, len(models.ContractStatuses)),
		Users:     len(users),
		Clients:   len(models.FilterByRole(users, models.RoleClient)),
	}
	if s.Contracts == 0 {
		s.Contracts = int64(len(page.Contracts))
	}
	for _, c := range page.Contracts {
		s.ByStatus[c.Status]++
		s.TotalLoan += c.TotalLoan
		if c.Status != models.ContractVoid {
			s.Outstanding += c.RemainingLoan
		}
	}
	return s, nil
}
