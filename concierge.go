package concierge

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/concierge/internal/logging"
	"github.com/aretw0/concierge/pkg/adapters/memory"
	"github.com/aretw0/concierge/pkg/api/auth"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/persistence/middleware"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/aretw0/concierge/pkg/session"
	"github.com/aretw0/concierge/pkg/transport"
)

// Version is the release of this module.
//
//go:embed VERSION
var Version string

// Client is the high-level entry point of the library. It owns one session and a
// transport that attaches its credential.
type Client struct {
	store      *session.Store
	gate       *session.Gate
	controller *session.Controller
	transport  *transport.Client

	kv          ports.KVStore
	middlewares []middleware.Middleware
	locker      ports.DistributedLocker
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	timeout     time.Duration
	httpClient  transport.HTTPDoer
	closers     []func() error
}

// Option defines a functional option for configuring the Client.
type Option func(*Client)

// WithStore sets the durable key-value store. Defaults to an in-memory store.
func WithStore(kv ports.KVStore) Option {
	return func(c *Client) {
		c.kv = kv
	}
}

// WithMiddleware wraps the store; the first middleware is the outermost.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(c *Client) {
		c.middlewares = append(c.middlewares, mws...)
	}
}

// WithLocker serialises lifecycle operations across processes sharing the store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(c *Client) {
		c.locker = locker
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Client) {
		c.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout bounds every HTTP request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the HTTP client used by the transport.
func WithHTTPClient(doer transport.HTTPDoer) Option {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithCloser registers a function run by Close, e.g. to release a store connection.
func WithCloser(fn func() error) Option {
	return func(c *Client) {
		c.closers = append(c.closers, fn)
	}
}

// New creates a Client for the API at baseURL and loads the persisted session.
//
// When the persisted session cannot be read (storage down, or an entry the configured
// encryption keys cannot open), New returns a usable, anonymous Client together with an
// error wrapping domain.ErrStorage. Logout on that Client removes the unreadable entries.
// Any other error comes with a nil Client.
func New(ctx context.Context, baseURL string, opts ...Option) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	if c.kv == nil {
		c.kv = memory.NewStore()
	}

	kv := middleware.Chain(c.kv, c.middlewares...)
	c.store = session.NewStore(kv, session.WithStoreLogger(c.logger))
	loadErr := c.store.Init(ctx)
	if loadErr != nil {
		c.logger.WarnContext(ctx, "stored session is unreadable, starting anonymous", "err", loadErr)
		loadErr = fmt.Errorf("failed to load session: %w", loadErr)
	}
	c.gate = session.NewGate(c.store)

	transportOpts := []transport.Option{
		transport.WithCredentials(c.gate),
		transport.WithLogger(c.logger),
		transport.WithUserAgent("concierge/" + strings.TrimSpace(Version)),
	}
	if c.timeout > 0 {
		transportOpts = append(transportOpts, transport.WithTimeout(c.timeout))
	}
	if c.httpClient != nil {
		transportOpts = append(transportOpts, transport.WithHTTPClient(c.httpClient))
	}
	tc, err := transport.New(baseURL, transportOpts...)
	if err != nil {
		return nil, err
	}
	c.transport = tc

	ctrlOpts := []session.Option{
		session.WithGate(c.gate),
		session.WithLogger(c.logger),
		session.WithHooks(c.hooks),
	}
	if c.locker != nil {
		ctrlOpts = append(ctrlOpts, session.WithLocker(c.locker))
	}
	c.controller = session.NewController(c.store, auth.New(tc), ctrlOpts...)

	c.logger.Debug("client ready", "base_url", baseURL, "phase", c.store.Phase())
	return c, loadErr
}

// Login authenticates and establishes the session.
func (c *Client) Login(ctx context.Context, username, password string) (*domain.Identity, error) {
	return c.controller.Login(ctx, domain.LoginRequest{Username: username, Password: password})
}

// RegisterClient creates a guest account and establishes its session.
func (c *Client) RegisterClient(ctx context.Context, req domain.ClientRegistration) (*domain.Identity, error) {
	return c.controller.RegisterClient(ctx, req)
}

// RegisterStaff creates a staff account and establishes its session.
func (c *Client) RegisterStaff(ctx context.Context, req domain.StaffRegistration) (*domain.Identity, error) {
	return c.controller.RegisterStaff(ctx, req)
}

// Logout ends the session. The local session is cleared even when the server is unreachable.
func (c *Client) Logout(ctx context.Context) error {
	return c.controller.Logout(ctx)
}

// Identity fetches the current identity from the server.
func (c *Client) Identity(ctx context.Context) (*domain.Identity, error) {
	return c.controller.Identity(ctx)
}

// Status returns the credential-free session status.
func (c *Client) Status() domain.Status {
	return c.store.Status()
}

// Watch streams status changes until ctx is done.
func (c *Client) Watch(ctx context.Context) <-chan domain.Status {
	return c.store.Watch(ctx)
}

// Transport returns the HTTP client that attaches the session credential. Resource
// modules (rooms, bookings) are built on it.
func (c *Client) Transport() *transport.Client {
	return c.transport
}

// Controller returns the lifecycle controller.
func (c *Client) Controller() *session.Controller {
	return c.controller
}

// Store returns the session store.
func (c *Client) Store() *session.Store {
	return c.store
}

// Close runs the registered closers.
func (c *Client) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}
