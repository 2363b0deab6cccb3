package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/concierge/internal/logging"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/ports"
)

// lockKey is the distributed lock shared by every controller using the same store.
const lockKey = "session"

// Controller starts and ends sessions. It is the only writer of the Store besides Init.
type Controller struct {
	store     *Store
	endpoints ports.AuthEndpoints
	gate      *Gate

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration

	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// Option configures the Controller.
type Option func(*Controller)

// WithGate shares a Gate with the transport so privileged calls wait for sagas to settle.
func WithGate(gate *Gate) Option {
	return func(c *Controller) {
		c.gate = gate
	}
}

// WithLocker enables distributed locking, for processes sharing one durable store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(c *Controller) {
		c.locker = locker
	}
}

// WithLockTTL bounds how long a crashed process can hold the distributed lock.
func WithLockTTL(ttl time.Duration) Option {
	return func(c *Controller) {
		c.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Controller.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// NewController creates a Controller committing to store and talking to endpoints.
func NewController(store *Store, endpoints ports.AuthEndpoints, opts ...Option) *Controller {
	c := &Controller{
		store:     store,
		endpoints: endpoints,
		lockTTL:   30 * time.Second,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.gate == nil {
		c.gate = NewGate(store)
	}
	return c
}

// Store returns the session store.
func (c *Controller) Store() *Store {
	return c.store
}

// Gate returns the credential source privileged callers should use.
func (c *Controller) Gate() *Gate {
	return c.gate
}

// Login authenticates with username and password and establishes the session.
func (c *Controller) Login(ctx context.Context, req domain.LoginRequest) (*domain.Identity, error) {
	return c.establish(ctx, domain.OpLogin, func(ctx context.Context) (string, error) {
		return c.endpoints.Login(ctx, req)
	})
}

// RegisterClient creates a guest account and establishes its session.
func (c *Controller) RegisterClient(ctx context.Context, req domain.ClientRegistration) (*domain.Identity, error) {
	return c.establish(ctx, domain.OpRegisterClient, func(ctx context.Context) (string, error) {
		return c.endpoints.RegisterClient(ctx, req)
	})
}

// RegisterStaff creates a staff account with an invitation code and establishes its session.
// The resulting role is whatever the server reports, not req.Role.
func (c *Controller) RegisterStaff(ctx context.Context, req domain.StaffRegistration) (*domain.Identity, error) {
	return c.establish(ctx, domain.OpRegisterStaff, func(ctx context.Context) (string, error) {
		return c.endpoints.RegisterStaff(ctx, req)
	})
}

// Identity fetches the current identity without changing the session.
func (c *Controller) Identity(ctx context.Context) (*domain.Identity, error) {
	id, err := c.endpoints.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIdentityLookup, err)
	}
	return id, nil
}

// authenticateFunc performs the variant-specific call of the establish saga.
type authenticateFunc func(ctx context.Context) (string, error)

// establish runs Anonymous -> CredentialOnly -> Established.
func (c *Controller) establish(ctx context.Context, op domain.Operation, authenticate authenticateFunc) (identity *domain.Identity, err error) {
	ctx, release, err := c.begin(ctx, op)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() {
		release()
		c.complete(ctx, op, start, err)
	}()

	token, err := authenticate(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if token == "" {
		return nil, fmt.Errorf("%s: %w: server issued an empty credential", op, domain.ErrAuthentication)
	}

	// The credential is committed: finish the saga even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	if err := c.commit(ctx, op, func(ctx context.Context) error {
		return c.store.Issue(ctx, token)
	}); err != nil {
		return nil, fmt.Errorf("%s: commit credential: %w", op, err)
	}

	// The credential stays committed if the lookup fails.
	identity, err = c.endpoints.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrIdentityLookup, err)
	}

	if err := c.commit(ctx, op, func(ctx context.Context) error {
		return c.store.SetRole(ctx, identity.Role)
	}); err != nil {
		return nil, fmt.Errorf("%s: commit role: %w", op, err)
	}

	return identity, nil
}

// Logout invalidates the credential remotely on a best-effort basis and always clears
// the store. Only local failures are returned: storage, or a distributed lock that could
// not be taken, in which case the remote call is skipped and the store is cleared anyway.
func (c *Controller) Logout(ctx context.Context) (err error) {
	leave, err := c.enter(ctx, domain.OpLogout)
	if err != nil {
		return err
	}
	unlock, lockErr := c.lock(context.WithoutCancel(ctx), domain.OpLogout)
	ctx = c.started(ctx, domain.OpLogout)
	start := time.Now()
	defer func() {
		unlock()
		leave()
		c.complete(ctx, domain.OpLogout, start, err)
	}()

	clearStore := func(ctx context.Context) error {
		return c.commit(ctx, domain.OpLogout, c.store.Clear)
	}
	if lockErr != nil {
		c.logger.WarnContext(ctx, "clearing session without distributed lock", "err", lockErr)
		return errors.Join(lockErr, clearStore(context.WithoutCancel(ctx)))
	}

	return c.attemptThenFinalize(ctx,
		func(ctx context.Context) error {
			if c.store.Credential() == "" {
				return nil
			}
			return c.endpoints.Logout(ctx)
		},
		clearStore,
	)
}

// attemptThenFinalize runs attempt, discards its outcome, then runs finalize on a context
// that cannot be canceled. Only finalize's error is returned.
func (c *Controller) attemptThenFinalize(ctx context.Context, attempt, finalize func(context.Context) error) error {
	if err := attempt(ctx); err != nil {
		c.logger.WarnContext(ctx, "remote session invalidation failed, clearing locally", "err", err)
	}
	return finalize(context.WithoutCancel(ctx))
}

// begin claims the gate and, when configured, the distributed lock. The returned context
// is marked as belonging to the saga.
func (c *Controller) begin(ctx context.Context, op domain.Operation) (context.Context, func(), error) {
	leave, err := c.enter(ctx, op)
	if err != nil {
		return ctx, nil, err
	}
	unlock, err := c.lock(ctx, op)
	if err != nil {
		leave()
		return ctx, nil, err
	}
	return c.started(ctx, op), func() {
		unlock()
		leave()
	}, nil
}

func (c *Controller) enter(ctx context.Context, op domain.Operation) (func(), error) {
	leave, err := c.gate.enter()
	if err != nil {
		c.logger.InfoContext(ctx, "lifecycle operation rejected", "op", op, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return leave, nil
}

// lock takes the distributed lock and reloads the store under it. The returned unlock
// is never nil. Waiting is bounded by the lock TTL, after which a crashed holder's lock
// has expired.
func (c *Controller) lock(ctx context.Context, op domain.Operation) (func(), error) {
	noop := func() {}
	if c.locker == nil {
		return noop, nil
	}

	lockCtx, cancel := context.WithTimeout(ctx, c.lockTTL)
	defer cancel()
	unlock, err := c.locker.Lock(lockCtx, lockKey, c.lockTTL)
	if err != nil {
		return noop, fmt.Errorf("%s: failed to acquire distributed lock: %w", op, err)
	}
	release := func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			c.logger.WarnContext(ctx, "Failed to release distributed lock (will expire via TTL)",
				"op", op,
				"err", err,
			)
		}
	}

	// Another process may have changed the shared store since we last looked.
	if err := c.store.Init(ctx); err != nil {
		release()
		return noop, fmt.Errorf("%s: refresh session: %w", op, err)
	}
	return release, nil
}

func (c *Controller) started(ctx context.Context, op domain.Operation) context.Context {
	if c.hooks.OnSagaStart != nil {
		c.hooks.OnSagaStart(ctx, op)
	}
	return withSaga(ctx)
}

// commit applies a store mutation and reports the resulting phase change.
func (c *Controller) commit(ctx context.Context, op domain.Operation, mutate func(context.Context) error) error {
	from := c.store.Phase()
	err := mutate(ctx)
	to := c.store.Phase()

	if from != to {
		c.logger.DebugContext(ctx, "session phase changed", "op", op, "from", from, "to", to)
		if c.hooks.OnPhaseChange != nil {
			c.hooks.OnPhaseChange(ctx, &domain.PhaseEvent{
				Timestamp: time.Now(),
				Operation: op,
				From:      from,
				To:        to,
			})
		}
	}
	return err
}

func (c *Controller) complete(ctx context.Context, op domain.Operation, start time.Time, err error) {
	elapsed := time.Since(start)
	switch {
	case err == nil:
		c.logger.InfoContext(ctx, "lifecycle operation completed",
			"op", op,
			"phase", c.store.Phase(),
			"role", c.store.Role(),
			"duration", elapsed,
		)
	case errors.Is(err, domain.ErrAuthentication):
		c.logger.InfoContext(ctx, "lifecycle operation rejected by server", "op", op, "err", err)
	default:
		c.logger.WarnContext(ctx, "lifecycle operation failed",
			"op", op,
			"phase", c.store.Phase(),
			"err", err,
		)
	}

	if c.hooks.OnSagaComplete != nil {
		c.hooks.OnSagaComplete(ctx, &domain.SagaEvent{
			Timestamp: time.Now(),
			Operation: op,
			Duration:  elapsed,
			Err:       err,
		})
	}
}
