package domain

// Phase is the lifecycle position of the session.
type Phase string

const (
	PhaseAnonymous      Phase = "anonymous"       // No credential
	PhaseCredentialOnly Phase = "credential_only" // Credential issued, role not yet known
	PhaseEstablished    Phase = "established"     // Credential and role committed
)

// Snapshot is the in-memory view of the session held by the store.
type Snapshot struct {
	Credential string
	Role       Role
}

// Phase derives the lifecycle position from the snapshot.
func (s Snapshot) Phase() Phase {
	switch {
	case s.Credential == "":
		return PhaseAnonymous
	case s.Role == RoleNone:
		return PhaseCredentialOnly
	default:
		return PhaseEstablished
	}
}

// Valid reports whether the snapshot honours the role-implies-credential invariant.
func (s Snapshot) Valid() bool {
	return s.Role == RoleNone || s.Credential != ""
}

// Authenticated reports whether a credential is present.
func (s Snapshot) Authenticated() bool {
	return s.Credential != ""
}

// Status is the credential-free view of a session published to observers.
type Status struct {
	Authenticated bool  `json:"authenticated"`
	Role          Role  `json:"role"`
	Phase         Phase `json:"phase"`
}

// Status strips the credential from the snapshot.
func (s Snapshot) Status() Status {
	return Status{
		Authenticated: s.Authenticated(),
		Role:          s.Role,
		Phase:         s.Phase(),
	}
}
