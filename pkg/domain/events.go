package domain

import (
	"context"
	"time"
)

// Operation names a lifecycle operation of the controller.
type Operation string

const (
	OpLogin          Operation = "login"
	OpRegisterClient Operation = "register_client"
	OpRegisterStaff  Operation = "register_staff"
	OpLogout         Operation = "logout"
)

// PhaseEvent reports a transition between session phases.
type PhaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Operation Operation `json:"operation"`
	From      Phase     `json:"from"`
	To        Phase     `json:"to"`
}

// SagaEvent reports the settlement of a lifecycle operation.
type SagaEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Operation Operation     `json:"operation"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// LifecycleHooks defines callbacks for controller observability.
type LifecycleHooks struct {
	OnSagaStart    func(context.Context, Operation)
	OnPhaseChange  func(context.Context, *PhaseEvent)
	OnSagaComplete func(context.Context, *SagaEvent)
}
