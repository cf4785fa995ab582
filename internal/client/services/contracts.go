package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/loandesk/internal/client/client"
	"github.com/dmitrijs2005/loandesk/internal/client/models"
	"github.com/dmitrijs2005/loandesk/internal/client/query"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// ContractsKey is the cache key of one contracts list page.
func ContractsKey(page, limit int, search string) query.Key {
	return query.Key{"contracts", page, limit, search}
}

// ContractKey is the cache key of a single contract.
func ContractKey(id string) query.Key {
	return query.Key{"contract", id}
}

// ContractService reads contracts through the query cache.
//
// Contract:
//   - List: one page of contracts; an empty API payload yields
//     models.DefaultContractsPage.
//   - Peek: non-blocking List that shows the previous page while the
//     requested one loads.
//   - Get: a single contract; an empty id performs no request and a missing
//     payload yields nil.
type ContractService interface {
	List(ctx context.Context, page, limit int, search string) (query.Result[models.ContractsPage], error)
	Peek(page, limit int, search string) query.Result[models.ContractsPage]
	Get(ctx context.Context, id string) (query.Result[*models.Contract], error)
}

type contractService struct {
	api   client.Client
	cache *query.Cache
}

func NewContractService(api client.Client, cache *query.Cache) ContractService {
	return &contractService{api: api, cache: cache}
}

func (s *contractService) listQuery(page, limit int, search string) query.Query[models.ContractsPage] {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	return query.Query[models.ContractsPage]{
		Key:          ContractsKey(page, limit, search),
		KeepPrevious: true,
		Fn: func(ctx context.Context) (models.ContractsPage, error) {
			p, err := s.api.ListContracts(ctx, page, limit, search)
			if err != nil {
				return models.ContractsPage{}, fmt.Errorf("list contracts: %w", err)
			}
			if p == nil {
				return models.DefaultContractsPage(), nil
			}
			if p.Contracts == nil {
				p.Contracts = []models.Contract{}
			}
			return *p, nil
		},
	}
}

func (s *contractService) List(ctx context.Context, page, limit int, search string) (query.Result[models.ContractsPage], error) {
	return query.Fetch(ctx, s.cache, s.listQuery(page, limit, search))
}

func (s *contractService) Peek(page, limit int, search string) query.Result[models.ContractsPage] {
	return query.Peek(s.cache, s.listQuery(page, limit, search))
}

func (s *contractService) Get(ctx context.Context, id string) (query.Result[*models.Contract], error) {
	return query.Fetch(ctx, s.cache, query.Query[*models.Contract]{
		Key:      ContractKey(id),
		Disabled: id == "",
		Fn: func(ctx context.Context) (*models.Contract, error) {
			c, err := s.api.GetContract(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("get contract %s: %w", id, err)
			}
			return c, nil
		},
	})
}
