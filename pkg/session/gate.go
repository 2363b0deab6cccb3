package session

import (
	"context"
	"sync"

	"github.com/aretw0/concierge/pkg/domain"
)

type sagaKey struct{}

// withSaga marks ctx as belonging to the running saga so its own calls pass the Gate.
func withSaga(ctx context.Context) context.Context {
	return context.WithValue(ctx, sagaKey{}, true)
}

func inSaga(ctx context.Context) bool {
	v, _ := ctx.Value(sagaKey{}).(bool)
	return v
}

// Gate serialises lifecycle sagas and holds privileged credential reads back while one
// is in flight. It implements ports.CredentialSource.
type Gate struct {
	store *Store

	mu      sync.Mutex
	settled chan struct{} // non-nil while a saga runs
}

// NewGate creates a Gate reading credentials from store.
func NewGate(store *Store) *Gate {
	return &Gate{store: store}
}

// Credential returns the committed credential once no saga is in flight.
// Calls made by the saga itself are answered immediately.
func (g *Gate) Credential(ctx context.Context) (string, error) {
	if !inSaga(ctx) {
		if err := g.Wait(ctx); err != nil {
			return "", err
		}
	}
	return g.store.Credential(), nil
}

// Wait blocks until no saga is in flight or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	settled := g.settled
	g.mu.Unlock()

	if settled == nil {
		return nil
	}
	select {
	case <-settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Busy reports whether a saga is in flight.
func (g *Gate) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.settled != nil
}

// enter claims the gate for a saga. A second claim is rejected rather than queued.
func (g *Gate) enter() (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.settled != nil {
		return nil, domain.ErrSagaInProgress
	}
	settled := make(chan struct{})
	g.settled = settled

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			g.settled = nil
			g.mu.Unlock()
			close(settled)
		})
	}, nil
}
