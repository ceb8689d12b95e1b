package dataaccess

import "errors"

var (
	// ErrTicketNotFound is returned when no open ticket matches the given keys.
	ErrTicketNotFound = errors.New("no open ticket found")

	// ErrDuplicateOpenTicket is returned when inserting an open ticket for a user that already
	// has one. This is raised by the unique partial index on the tickets collection, so two
	// concurrent inserts can never both succeed.
	ErrDuplicateOpenTicket = errors.New("user already has an open ticket")

	// ErrGuildNotFound is returned when a guild has no stored configuration.
	ErrGuildNotFound = errors.New("guild configuration not found")
)
