package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/concierge/pkg/adapters/memory"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/aretw0/concierge/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// FakeAPI emulates the booking server's auth endpoints. Me and Logout read the credential
// through the configured source, the way the real transport does.
type FakeAPI struct {
	mu sync.Mutex

	source ports.CredentialSource

	users  map[string]string      // username -> password
	roles  map[string]domain.Role // token -> role
	tokens map[string]string      // username -> token
	code   string

	meErr     error
	logoutErr error

	loginHook func(ctx context.Context) // runs inside Login before it returns
	meHook    func(ctx context.Context) // runs inside Me before it returns

	logoutCalls int
	seenTokens  []string
}

func NewFakeAPI() *FakeAPI {
	return &FakeAPI{
		users:  map[string]string{"alice": "pw1"},
		roles:  map[string]domain.Role{"tok-1": domain.RoleClient},
		tokens: map[string]string{"alice": "tok-1"},
		code:   "staff-2026",
	}
}

func (f *FakeAPI) issue(username string, role domain.Role) string {
	token := "tok-" + username
	f.tokens[username] = token
	f.roles[token] = role
	return token
}

func (f *FakeAPI) Login(ctx context.Context, req domain.LoginRequest) (string, error) {
	f.mu.Lock()
	pw, ok := f.users[req.Username]
	token := f.tokens[req.Username]
	hook := f.loginHook
	f.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	if !ok || pw != req.Password {
		return "", fmt.Errorf("%w: unable to log in with provided credentials", domain.ErrAuthentication)
	}
	return token, nil
}

func (f *FakeAPI) RegisterClient(ctx context.Context, req domain.ClientRegistration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[req.Username]; exists {
		return "", fmt.Errorf("%w: username already taken", domain.ErrAuthentication)
	}
	f.users[req.Username] = req.Password
	return f.issue(req.Username, domain.RoleClient), nil
}

func (f *FakeAPI) RegisterStaff(ctx context.Context, req domain.StaffRegistration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.Code != f.code {
		return "", fmt.Errorf("%w: invalid staff code", domain.ErrAuthentication)
	}
	f.users[req.Username] = req.Password
	// The server decides: anything but "cleaner" becomes admin here.
	role := domain.RoleAdmin
	if req.Role == domain.RoleCleaner {
		role = domain.RoleCleaner
	}
	return f.issue(req.Username, role), nil
}

func (f *FakeAPI) Me(ctx context.Context) (*domain.Identity, error) {
	token, err := f.source.Credential(ctx)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.seenTokens = append(f.seenTokens, token)
	meErr := f.meErr
	hook := f.meHook
	role, ok := f.roles[token]
	f.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	if meErr != nil {
		return nil, meErr
	}
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return &domain.Identity{ID: 1, Username: "someone", Role: role}, nil
}

func (f *FakeAPI) Logout(ctx context.Context) error {
	if _, err := f.source.Credential(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	return f.logoutErr
}

type fixture struct {
	api   *FakeAPI
	kv    *memory.Store
	store *session.Store
	ctrl  *session.Controller
}

func newFixture(t *testing.T, opts ...session.Option) *fixture {
	t.Helper()
	kv := memory.NewStore()
	store := session.NewStore(kv)
	require.NoError(t, store.Init(context.Background()))

	gate := session.NewGate(store)
	api := NewFakeAPI()
	api.source = gate

	ctrl := session.NewController(store, api, append([]session.Option{session.WithGate(gate)}, opts...)...)
	return &fixture{api: api, kv: kv, store: store, ctrl: ctrl}
}

func TestController_Login(t *testing.T) {
	f := newFixture(t)

	identity, err := f.ctrl.Login(context.Background(), domain.LoginRequest{Username: "alice", Password: "pw1"})
	require.NoError(t, err)

	assert.Equal(t, "tok-1", f.store.Credential())
	assert.Equal(t, domain.RoleClient, f.store.Role())
	assert.Equal(t, domain.RoleClient, identity.Role)
	assert.Equal(t, domain.PhaseEstablished, f.store.Phase())
	assert.Equal(t, []string{"tok-1"}, f.api.seenTokens, "identity lookup must use the issued credential")

	got, err := f.kv.Get(context.Background(), domain.KeyCredential)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)
}

func TestController_LoginRejectedLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()

	t.Run("from anonymous", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.ctrl.Login(ctx, domain.LoginRequest{Username: "alice", Password: "wrong"})
		assert.ErrorIs(t, err, domain.ErrAuthentication)
		assert.Equal(t, "", f.store.Credential())
		assert.Equal(t, domain.RoleNone, f.store.Role())
		assert.Empty(t, f.kv.Keys())
	})

	t.Run("from established", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.ctrl.Login(ctx, domain.LoginRequest{Username: "alice", Password: "pw1"})
		require.NoError(t, err)

		_, err = f.ctrl.Login(ctx, domain.LoginRequest{Username: "mallory", Password: "x"})
		assert.ErrorIs(t, err, domain.ErrAuthentication)
		assert.Equal(t, "tok-1", f.store.Credential())
		assert.Equal(t, domain.RoleClient, f.store.Role())
	})
}

func TestController_RegisterClient(t *testing.T) {
	f := newFixture(t)

	identity, err := f.ctrl.RegisterClient(context.Background(), domain.ClientRegistration{
		Username: "bob", Password: "pw2", Email: "bob@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "tok-bob", f.store.Credential())
	assert.Equal(t, domain.RoleClient, identity.Role)
	assert.Equal(t, domain.RoleClient, f.store.Role())

	// Duplicate username is a user-correctable rejection.
	_, err = f.ctrl.RegisterClient(context.Background(), domain.ClientRegistration{Username: "bob", Password: "pw"})
	assert.ErrorIs(t, err, domain.ErrAuthentication)
	assert.Equal(t, "tok-bob", f.store.Credential())
}

func TestController_RegisterStaff(t *testing.T) {
	f := newFixture(t)

	identity, err := f.ctrl.RegisterStaff(context.Background(), domain.StaffRegistration{
		Username: "carol", Password: "pw3", Code: "staff-2026", HotelID: 1,
		Role: domain.RoleCleaner, FullName: "Carol C.",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCleaner, identity.Role)
	assert.Equal(t, domain.RoleCleaner, f.store.Role())
}

func TestController_RegisterStaffRoleComesFromServer(t *testing.T) {
	f := newFixture(t)

	_, err := f.ctrl.RegisterStaff(context.Background(), domain.StaffRegistration{
		Username: "dave", Password: "pw", Code: "staff-2026", HotelID: 1, Role: "overlord",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, f.store.Role(), "requested role is only relayed")
}

func TestController_RegisterStaffInvalidCode(t *testing.T) {
	f := newFixture(t)

	_, err := f.ctrl.RegisterStaff(context.Background(), domain.StaffRegistration{
		Username: "eve", Password: "pw", Code: "guess", HotelID: 1, Role: domain.RoleAdmin,
	})
	assert.ErrorIs(t, err, domain.ErrAuthentication)
	assert.Equal(t, "", f.store.Credential())
	assert.Equal(t, domain.PhaseAnonymous, f.store.Phase())
}

func TestController_IdentityLookupFailureKeepsCredential(t *testing.T) {
	f := newFixture(t)
	f.api.meErr = fmt.Errorf("%w: 502", domain.ErrServer)

	identity, err := f.ctrl.Login(context.Background(), domain.LoginRequest{Username: "alice", Password: "pw1"})
	assert.Nil(t, identity)
	assert.ErrorIs(t, err, domain.ErrIdentityLookup)
	assert.ErrorIs(t, err, domain.ErrServer, "underlying transport kind stays visible")

	assert.Equal(t, "tok-1", f.store.Credential())
	assert.Equal(t, domain.RoleNone, f.store.Role())
	assert.Equal(t, domain.PhaseCredentialOnly, f.store.Phase())
}

func TestController_ReloginDropsStaleRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ctrl.RegisterStaff(ctx, domain.StaffRegistration{
		Username: "frank", Password: "pw", Code: "staff-2026", HotelID: 1, Role: domain.RoleAdmin,
	})
	require.NoError(t, err)

	f.api.meErr = errors.New("boom")
	_, err = f.ctrl.Login(ctx, domain.LoginRequest{Username: "alice", Password: "pw1"})
	require.Error(t, err)

	assert.Equal(t, "tok-1", f.store.Credential())
	assert.Equal(t, domain.RoleNone, f.store.Role(), "admin role must not carry over to alice's token")
}

func TestController_StorageFailure(t *testing.T) {
	kv := NewFlakyStore()
	store := session.NewStore(kv)
	require.NoError(t, store.Init(context.Background()))
	gate := session.NewGate(store)
	api := NewFakeAPI()
	api.source = gate
	ctrl := session.NewController(store, api, session.WithGate(gate))

	kv.Break(errors.New("read-only filesystem"))

	_, err := ctrl.Login(context.Background(), domain.LoginRequest{Username: "alice", Password: "pw1"})
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Equal(t, "tok-1", store.Credential(), "in-memory state is still updated")
	assert.Empty(t, api.seenTokens, "saga stops at the failed commit")
}

func TestController_Logout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ctrl.Login(ctx, domain.LoginRequest{Username: "alice", Password: "pw1"})
	require.NoError(t, err)

	require.NoError(t, f.ctrl.Logout(ctx))

	assert.Equal(t, 1, f.api.logoutCalls)
	assert.Equal(t, "", f.store.Credential())
	assert.Equal(t, domain.RoleNone, f.store.Role())
	assert.Empty(t, f.kv.Keys())
}

func TestController_LogoutIgnoresRemoteFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ctrl.Login(ctx, domain.LoginRequest{Username: "alice", Password: "pw1"})
	require.NoError(t, err)

	f.api.logoutErr = fmt.Errorf("%w: connection refused", domain.ErrNetwork)

	assert.NoError(t, f.ctrl.Logout(ctx))
	assert.Equal(t, "", f.store.Credential())
	assert.Equal(t, domain.RoleNone, f.store.Role())
}

func TestController_LogoutWithCanceledContext(t *testing.T) {
	f := newFixture(t)
	_, err := f.ctrl.Login(context.Background(), domain.LoginRequest{Username: "alice", Password: "pw1"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, f.ctrl.Logout(ctx))
	assert.Equal(t, domain.PhaseAnonymous, f.store.Phase())
}

func TestController_LogoutWhenAnonymous(t *testing.T) {
	f := newFixture(t)

	assert.NoError(t, f.ctrl.Logout(context.Background()))
	assert.NoError(t, f.ctrl.Logout(context.Background()))
	assert.Equal(t, 0, f.api.logoutCalls, "nothing to invalidate remotely")
	assert.Equal(t, domain.PhaseAnonymous, f.store.Phase())
}

func TestController_RejectsConcurrentSaga(t *testing.T) {
	f := newFixture(t)
	entered := make(chan struct{})
	proceed := make(chan struct{})
	f.api.loginHook = func(ctx context.Context) {
		close(entered)
		<-proceed
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.ctrl.Login(context.Background(), domain.LoginRequest{Username: "alice", Password: "pw1"})
		done <- err
	}()
	<-entered

	_, err := f.ctrl.RegisterClient(context.Background(), domain.ClientRegistration{Username: "zed", Password: "pw"})
	assert.ErrorIs(t, err, domain.ErrSagaInProgress)
	assert.ErrorIs(t, f.ctrl.Logout(context.Background()), domain.ErrSagaInProgress)
	assert.True(t, f.ctrl.Gate().Busy())

	close(proceed)
	require.NoError(t, <-done)
	assert.False(t, f.ctrl.Gate().Busy())
	assert.Equal(t, domain.PhaseEstablished, f.store.Phase())
}

func TestController_GateHoldsPrivilegedCallsUntilEstablished(t *testing.T) {
	f := newFixture(t)
	inLookup := make(chan struct{})
	proceed := make(chan struct{})
	f.api.meHook = func(ctx context.Context) {
		close(inLookup)
		<-proceed
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.ctrl.Login(context.Background(), domain.LoginRequest{Username: "alice", Password: "pw1"})
		done <- err
	}()
	<-inLookup

	// Credential is committed but the role is not: privileged callers must wait.
	assert.Equal(t, domain.PhaseCredentialOnly, f.store.Phase())
	short, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := f.ctrl.Gate().Credential(short)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	waited := make(chan string, 1)
	go func() {
		token, _ := f.ctrl.Gate().Credential(context.Background())
		waited <- token
	}()

	close(proceed)
	require.NoError(t, <-done)
	assert.Equal(t, "tok-1", <-waited)
	assert.Equal(t, domain.RoleClient, f.store.Role())
}

func TestController_CallerCancelAfterCommit(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The caller gives up right as the credential is issued.
	f.api.loginHook = func(context.Context) { cancel() }

	identity, err := f.ctrl.Login(ctx, domain.LoginRequest{Username: "alice", Password: "pw1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, identity.Role)
	assert.Equal(t, domain.PhaseEstablished, f.store.Phase())
}

func TestController_Hooks(t *testing.T) {
	var (
		mu      sync.Mutex
		phases  []domain.Phase
		started []domain.Operation
		settled []*domain.SagaEvent
	)
	hooks := domain.LifecycleHooks{
		OnSagaStart: func(_ context.Context, op domain.Operation) {
			mu.Lock()
			defer mu.Unlock()
			started = append(started, op)
		},
		OnPhaseChange: func(_ context.Context, e *domain.PhaseEvent) {
			mu.Lock()
			defer mu.Unlock()
			phases = append(phases, e.To)
		},
		OnSagaComplete: func(_ context.Context, e *domain.SagaEvent) {
			mu.Lock()
			defer mu.Unlock()
			settled = append(settled, e)
		},
	}
	f := newFixture(t, session.WithHooks(hooks))
	ctx := context.Background()

	_, err := f.ctrl.Login(ctx, domain.LoginRequest{Username: "alice", Password: "pw1"})
	require.NoError(t, err)
	require.NoError(t, f.ctrl.Logout(ctx))
	_, err = f.ctrl.Login(ctx, domain.LoginRequest{Username: "alice", Password: "nope"})
	require.Error(t, err)

	assert.Equal(t, []domain.Operation{domain.OpLogin, domain.OpLogout, domain.OpLogin}, started)
	assert.Equal(t, []domain.Phase{
		domain.PhaseCredentialOnly,
		domain.PhaseEstablished,
		domain.PhaseAnonymous,
	}, phases)
	require.Len(t, settled, 3)
	assert.NoError(t, settled[0].Err)
	assert.NoError(t, settled[1].Err)
	assert.ErrorIs(t, settled[2].Err, domain.ErrAuthentication)
}

func TestController_Identity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ctrl.Identity(ctx)
	assert.ErrorIs(t, err, domain.ErrIdentityLookup)

	_, err = f.ctrl.Login(ctx, domain.LoginRequest{Username: "alice", Password: "pw1"})
	require.NoError(t, err)

	identity, err := f.ctrl.Identity(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, identity.Role)
}

// countingLocker records lock usage and can flip the shared store behind our back.
type countingLocker struct {
	mu       sync.Mutex
	locks    int
	unlocks  int
	onLocked func()
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	l.locks++
	hook := l.onLocked
	l.mu.Unlock()
	if hook != nil {
		hook()
	}
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocks++
		return nil
	}, nil
}

func TestController_DistributedLockRefreshesStore(t *testing.T) {
	locker := &countingLocker{}
	f := newFixture(t, session.WithLocker(locker))
	ctx := context.Background()

	// Another process logged in on the shared store.
	locker.onLocked = func() {
		_ = f.kv.Set(ctx, domain.KeyCredential, "tok-other")
		_ = f.kv.Set(ctx, domain.KeyRole, "admin")
	}

	// Logout must invalidate what is actually stored, not our stale view.
	require.NoError(t, f.ctrl.Logout(ctx))

	assert.Equal(t, 1, locker.locks)
	assert.Equal(t, 1, locker.unlocks)
	assert.Equal(t, 1, f.api.logoutCalls)
	assert.Empty(t, f.kv.Keys())
}
