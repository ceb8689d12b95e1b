package messages

const (
	// ErrUserErrorProcessing is sent to the user when a command fails for an unexpected reason.
	ErrUserErrorProcessing = "There was an error processing your request, please try again later"

	// ErrUserNotStaff is sent to the user when a staff command is used without Manage Server.
	ErrUserNotStaff = "You need the **Manage Server** permission to use this command"

	// ErrUserNotAdmin is sent to the user when an admin command is used without Administrator.
	ErrUserNotAdmin = "You must be an administrator to use this command"

	// ErrTicketsNotConfigured is sent when a ticket is opened before /setup has been run.
	ErrTicketsNotConfigured = "The ticket system is not configured. Ask an administrator to run `/setup`"

	// ErrTicketCategoryInvalid is sent when the configured ticket category no longer resolves to a category.
	ErrTicketCategoryInvalid = "The configured ticket category is invalid. Ask an administrator to re-run `/setup`"

	// ErrBotMissingTicketPerms is sent when the bot itself lacks the permissions to provision a ticket.
	ErrBotMissingTicketPerms = "The bot needs the **Manage Channels** and **Manage Roles** permissions to open tickets"

	// ErrNotATicketChannel is sent when a close is requested in a channel with no open ticket.
	ErrNotATicketChannel = "This channel is not an open ticket"

	// ErrTicketCloseForbidden is sent when a close is requested by a non-owner without Manage Channels.
	ErrTicketCloseForbidden = "Only the ticket owner or staff can close this ticket"

	// ErrTicketTransient is sent when a ticket operation failed on a platform call.
	ErrTicketTransient = "Something went wrong talking to Discord, please try again"
)
