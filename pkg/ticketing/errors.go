package ticketing

import "errors"

var (
	// ErrInsufficientPermissions is returned when the bot itself lacks the Manage Channels or
	// Manage Roles permission needed to provision a ticket channel. Raised before any channel
	// is created.
	ErrInsufficientPermissions = errors.New("bot is missing manage channels or manage roles")

	// ErrNotConfigured is returned when the guild has no ticket category configured.
	ErrNotConfigured = errors.New("ticket category is not configured")

	// ErrInvalidCategory is returned when the configured ticket category no longer resolves to
	// a category channel.
	ErrInvalidCategory = errors.New("configured ticket category is not a category channel")

	// ErrDuplicateTicket is returned when the user already has an open ticket in the guild.
	ErrDuplicateTicket = errors.New("user already has an open ticket")

	// ErrOpenContention is returned when an open loses the insert race and the winning ticket
	// is already gone by the time it is looked up again. The caller should just retry.
	ErrOpenContention = errors.New("ticket open raced with another request, try again")

	// ErrNotATicket is returned when a channel has no open ticket record. This covers both a
	// channel that never was a ticket and one whose ticket is already closed.
	ErrNotATicket = errors.New("channel is not an open ticket")

	// ErrForbidden is returned when a close is requested by an identity that is neither the
	// ticket owner nor staff.
	ErrForbidden = errors.New("only the ticket owner or staff may close a ticket")
)
