package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/loandesk/internal/client/client"
	"github.com/dmitrijs2005/loandesk/internal/client/models"
	"github.com/dmitrijs2005/loandesk/internal/client/query"
	"github.com/dmitrijs2005/loandesk/internal/logging"
)

// UsersKey is the cache key of the full user list. Clients share it.
func UsersKey() query.Key {
	return query.Key{"users"}
}

type UserService interface {
	Users(ctx context.Context) (query.Result[[]models.User], error)
	// Clients returns the users with role CLIENT, in API order. The API has
	// no role filter, so the whole list is fetched.
	Clients(ctx context.Context) (query.Result[[]models.User], error)
	Create(ctx context.Context, form models.CreateUserForm) (*models.User, error)
}

type userService struct {
	api   client.Client
	cache *query.Cache
	log   logging.Logger
}

func NewUserService(api client.Client, cache *query.Cache, log logging.Logger) UserService {
	return &userService{api: api, cache: cache, log: log}
}

func (s *userService) Users(ctx context.Context) (query.Result[[]models.User], error) {
	return query.Fetch(ctx, s.cache, query.Query[[]models.User]{
		Key: UsersKey(),
		Fn: func(ctx context.Context) ([]models.User, error) {
			users, err := s.api.ListUsers(ctx)
			if err != nil {
				return nil, fmt.Errorf("list users: %w", err)
			}
			if users == nil {
				users = []models.User{}
			}
			return users, nil
		},
	})
}

func (s *userService) Clients(ctx context.Context) (query.Result[[]models.User], error) {
	r, err := s.Users(ctx)
	if err != nil {
		return r, err
	}
	r.Data = models.FilterByRole(r.Data, models.RoleClient)
	return r, nil
}

// Create validates the form, creates the account and marks the user list
// stale.
func (s *userService) Create(ctx context.Context, form models.CreateUserForm) (*models.User, error) {
	if err := form.Validate().Err(); err != nil {
		return nil, err
	}

	u, err := s.api.CreateUser(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.cache.Invalidate(UsersKey())
	s.log.Info(ctx, "user created", "username", form.Username, "role", form.Role)
	return u, nil
}
