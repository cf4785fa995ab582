package client

import (
	"context"

	"github.com/dmitrijs2005/loandesk/internal/client/models"
)

type Client interface {
	Login(ctx context.Context, form models.LoginForm) (*models.LoginResult, error)
	ListContracts(ctx context.Context, page, limit int, search string) (*models.ContractsPage, error)
	GetContract(ctx context.Context, id string) (*models.Contract, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, form models.CreateUserForm) (*models.User, error)
	Ping(ctx context.Context) error
}
