package domain

// Durable keys of the two session entries.
const (
	KeyCredential = "token"
	KeyRole       = "role"
)
