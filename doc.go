/*
Package concierge is the client-side session core for the hotel booking API.

It acquires a bearer credential and an authorization role, persists them, attaches the
credential to every outbound request and invalidates them again. Every other API module
(rooms, bookings, cleanings) only consumes the credential through the transport.

# Lifecycle

A session moves through three phases:

	anonymous -> credential_only -> established

Login and both registration flows share one saga: authenticate, commit the credential,
look up the identity with that credential, commit the role reported by the server.
Logout invalidates the credential remotely on a best-effort basis and always clears the
local session. Only one lifecycle operation runs at a time; requests made through the
transport while one is running wait for it to settle.

# Usage

	ctx := context.Background()
	c, err := concierge.New(ctx, "http://localhost:8000",
		concierge.WithStore(file.New(".concierge/session")),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	id, err := c.Login(ctx, "alice", "pw1")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(id.Role.HomePath())

	// Resource calls carry the credential automatically.
	rooms, err := c.Transport().Get(ctx, "/rooms/", nil)

# Persistence

The durable surface is a ports.KVStore with two keys, token and role. Adapters exist for
memory, one-file-per-key storage and Redis; the persistence/middleware package adds
encryption at rest and logging. The role entry is always removed before the credential,
so an interrupted write never leaves a role without a credential.
*/
package concierge
