package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/concierge/internal/logging"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/ports"
)

// Store holds the current credential and role and writes them through to durable storage.
// Readers never block on I/O; mutators hold the write lock until the durable write returns,
// so durable writes happen in the same order as in-memory changes.
type Store struct {
	kv     ports.KVStore
	logger *slog.Logger

	mu   sync.RWMutex
	snap domain.Snapshot

	watchMu  sync.Mutex
	watchers map[int]chan domain.Status
	nextID   int
}

// StoreOption configures the Store.
type StoreOption func(*Store)

// WithStoreLogger configures a logger for the Store.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates an empty Store backed by kv. Call Init to load the persisted session.
func NewStore(kv ports.KVStore, opts ...StoreOption) *Store {
	s := &Store{
		kv:       kv,
		logger:   logging.NewNop(),
		watchers: make(map[int]chan domain.Status),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init loads the session from durable storage, replacing the in-memory state.
// A persisted role without a persisted credential is dropped.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	prev := s.snap

	credential, err := s.get(ctx, domain.KeyCredential)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	role, err := s.get(ctx, domain.KeyRole)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	next := domain.Snapshot{Credential: credential, Role: domain.Role(role)}
	if !next.Valid() {
		s.logger.WarnContext(ctx, "dropping persisted role without credential", "role", role)
		next.Role = domain.RoleNone
		err = s.put(ctx, domain.KeyRole, "")
	}
	s.snap = next
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "session loaded", "phase", next.Phase(), "role", next.Role)
	s.publish(prev, next)
	return err
}

// Credential returns the current bearer token, or "" when logged out.
func (s *Store) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Credential
}

// Role returns the current role, or "" when unknown.
func (s *Store) Role() domain.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Role
}

// Status returns the credential-free view of the session.
func (s *Store) Status() domain.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Status()
}

// Phase returns the current lifecycle phase.
func (s *Store) Phase() domain.Phase {
	return s.Status().Phase
}

// SetCredential replaces the credential. An empty value removes the durable entry and,
// since a role cannot outlive its credential, the role as well.
func (s *Store) SetCredential(ctx context.Context, value string) error {
	s.mu.Lock()
	prev := s.snap
	s.snap.Credential = value

	var err error
	if value == "" {
		s.snap.Role = domain.RoleNone
		// Role first: a crash in between leaves a credential-only state, never a role-only one.
		err = errors.Join(
			s.put(ctx, domain.KeyRole, ""),
			s.put(ctx, domain.KeyCredential, ""),
		)
	} else {
		err = s.put(ctx, domain.KeyCredential, value)
	}
	next := s.snap
	s.mu.Unlock()

	s.publish(prev, next)
	return err
}

// SetRole replaces the role. An empty value removes the durable entry.
// A non-empty role requires a credential.
func (s *Store) SetRole(ctx context.Context, value domain.Role) error {
	s.mu.Lock()
	if value != domain.RoleNone && s.snap.Credential == "" {
		s.mu.Unlock()
		return domain.ErrRoleWithoutCredential
	}
	prev := s.snap
	s.snap.Role = value
	err := s.put(ctx, domain.KeyRole, string(value))
	next := s.snap
	s.mu.Unlock()

	s.publish(prev, next)
	return err
}

// Issue commits a freshly issued credential and resets the role, moving the session to
// the credential-only phase.
func (s *Store) Issue(ctx context.Context, credential string) error {
	if credential == "" {
		return s.Clear(ctx)
	}

	s.mu.Lock()
	prev := s.snap
	s.snap = domain.Snapshot{Credential: credential}
	err := s.put(ctx, domain.KeyRole, "")
	if err == nil {
		err = s.put(ctx, domain.KeyCredential, credential)
	}
	next := s.snap
	s.mu.Unlock()

	s.publish(prev, next)
	return err
}

// Clear removes both entries. It is idempotent.
func (s *Store) Clear(ctx context.Context) error {
	return s.SetCredential(ctx, "")
}

// Watch streams the session status. The current status is delivered first; slow
// receivers only see the latest one. The channel is closed when ctx is done.
func (s *Store) Watch(ctx context.Context) <-chan domain.Status {
	ch := make(chan domain.Status, 1)

	s.watchMu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = ch
	ch <- s.Status()
	s.watchMu.Unlock()

	go func() {
		<-ctx.Done()
		s.watchMu.Lock()
		delete(s.watchers, id)
		close(ch)
		s.watchMu.Unlock()
	}()

	return ch
}

func (s *Store) publish(prev, next domain.Snapshot) {
	if prev == next {
		return
	}
	status := next.Status()

	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for _, ch := range s.watchers {
		offer(ch, status)
	}
}

// offer replaces any undelivered status with the latest one.
func offer(ch chan domain.Status, status domain.Status) {
	for {
		select {
		case ch <- status:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	v, err := s.kv.Get(ctx, key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: load %s: %w", domain.ErrStorage, key, err)
	}
	return v, nil
}

// put writes value under key, removing the entry when value is empty.
func (s *Store) put(ctx context.Context, key, value string) error {
	var err error
	if value == "" {
		err = s.kv.Remove(ctx, key)
	} else {
		err = s.kv.Set(ctx, key, value)
	}
	if err != nil {
		return fmt.Errorf("%w: persist %s: %w", domain.ErrStorage, key, err)
	}
	return nil
}
