package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/loandesk/internal/client/models"
	"github.com/dmitrijs2005/loandesk/internal/common"
	"github.com/dmitrijs2005/loandesk/internal/logging"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const defaultTimeout = 10 * time.Second

// Options configures an HTTPClient.
type Options struct {
	// BaseURL is the API root, e.g. "https://api.example.com/api".
	BaseURL string
	// Timeout bounds a single request. Zero means 10s.
	Timeout time.Duration
	// Token returns the bearer token to send; empty sends none.
	Token func() string
	// OnUnauthorized is called when an authenticated request gets a 401.
	OnUnauthorized func(ctx context.Context)
	UserAgent      string
	Log            logging.Logger
}

type HTTPClient struct {
	baseURL        string
	timeout        time.Duration
	token          func() string
	onUnauthorized func(ctx context.Context)
	agents         *fiber.Client
	log            logging.Logger
}

func NewHTTPClient(opts Options) (*HTTPClient, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", opts.BaseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q: host is empty", opts.BaseURL)
	}

	c := &HTTPClient{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		timeout:        opts.Timeout,
		token:          opts.Token,
		onUnauthorized: opts.OnUnauthorized,
		agents:         &fiber.Client{UserAgent: opts.UserAgent},
		log:            opts.Log,
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.token == nil {
		c.token = func() string { return "" }
	}
	if c.log == nil {
		c.log = logging.Discard()
	}
	return c, nil
}

// SetUnauthorizedHandler replaces the 401 hook. The session owner is usually
// built after the client, so the hook is wired late.
func (c *HTTPClient) SetUnauthorizedHandler(fn func(ctx context.Context)) {
	c.onUnauthorized = fn
}

func (c *HTTPClient) Login(ctx context.Context, form models.LoginForm) (*models.LoginResult, error) {
	var env models.Envelope[models.LoginResult]
	// Anonymous: a wrong password must not end the current session.
	if err := c.send(ctx, fiber.MethodPost, "/auth/login", nil, form, &env, true); err != nil {
		return nil, err
	}
	if env.Data == nil || env.Data.Token == "" {
		return nil, ErrEmptyLogin
	}
	return env.Data, nil
}

func (c *HTTPClient) ListContracts(ctx context.Context, page, limit int, search string) (*models.ContractsPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("search", search)

	var env models.Envelope[models.ContractsPage]
	if err := c.do(ctx, fiber.MethodGet, "/contracts", q, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *HTTPClient) GetContract(ctx context.Context, id string) (*models.Contract, error) {
	var env models.Envelope[models.Contract]
	if err := c.do(ctx, fiber.MethodGet, "/contracts/"+url.PathEscape(id), nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]models.User, error) {
	var env models.Envelope[[]models.User]
	if err := c.do(ctx, fiber.MethodGet, "/users", nil, nil, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, nil
	}
	return *env.Data, nil
}

func (c *HTTPClient) CreateUser(ctx context.Context, form models.CreateUserForm) (*models.User, error) {
	var env models.Envelope[models.User]
	if err := c.do(ctx, fiber.MethodPost, "/users", nil, form, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, fiber.MethodGet, "/health", nil, nil, nil)
}

// do sends one authenticated request and decodes a 2xx body into out (when
// out is non-nil).
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	return c.send(ctx, method, path, query, body, out, false)
}

// send is do with an anonymous switch: anonymous requests carry no bearer
// token and never fire the 401 hook.
func (c *HTTPClient) send(ctx context.Context, method, path string, query url.Values, body any, out any, anonymous bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var agent *fiber.Agent
	switch method {
	case fiber.MethodPost:
		agent = c.agents.Post(target)
	default:
		agent = c.agents.Get(target)
	}

	reqID := uuid.NewString()
	agent.Set(common.RequestIDHeaderName, reqID)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	var token string
	if !anonymous {
		token = c.token()
	}
	if token != "" {
		agent.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}
	if body != nil {
		agent.JSON(body)
	}
	agent.Timeout(c.timeoutFor(ctx))
	// Escaped segments such as "a%2Fb" must reach the server as sent.
	agent.Request().URI().DisablePathNormalizing = true
	if agent.HostClient != nil {
		agent.HostClient.DisablePathNormalizing = true
	}

	started := time.Now()
	code, raw, errs := agent.Bytes()
	log := c.log.With("method", method, "path", path, "request_id", reqID)

	if err := ctx.Err(); err != nil {
		return err
	}
	if len(errs) > 0 {
		log.Warn(ctx, "request failed", "error", errors.Join(errs...))
		return fmt.Errorf("%w: %s %s: %w", common.ErrUnavailable, method, path, errors.Join(errs...))
	}

	log.Debug(ctx, "request done", "status", code, "elapsed", time.Since(started))

	if code == fiber.StatusUnauthorized && token != "" && c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
	if code < 200 || code >= 300 {
		return mapStatus(code, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// timeoutFor shortens the configured timeout to the context deadline.
func (c *HTTPClient) timeoutFor(ctx context.Context) time.Duration {
	t := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < t {
			t = left
		}
	}
	if t <= 0 {
		t = time.Millisecond
	}
	return t
}
