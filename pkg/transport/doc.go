/*
Package transport is the HTTP client every call to the booking API goes through.

It attaches the bearer credential from a ports.CredentialSource to each request
("Authorization: Token <credential>"), sends nothing when the credential is empty, and
turns failures into *Error values that unwrap to the domain transport kinds
(ErrUnauthorized, ErrNotFound, ErrValidation, ErrServer, ErrNetwork).
*/
package transport
