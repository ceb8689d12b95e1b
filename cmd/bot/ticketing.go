package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/k1llbot/k1ll/cmd/bot/monitoring"
	"github.com/k1llbot/k1ll/pkg/dataaccess"
	"github.com/k1llbot/k1ll/pkg/entities"
	"github.com/k1llbot/k1ll/pkg/logging"
	"github.com/k1llbot/k1ll/pkg/messages"
	"github.com/k1llbot/k1ll/pkg/ticketing"
)

const (
	// OpenTicketButtonID is the ID for the open ticket panel button. It is stable across
	// restarts so panels posted by previous processes keep working.
	OpenTicketButtonID = "k1ll_ticket_open"

	// CloseTicketButtonID is the ID for the close button inside a ticket channel.
	CloseTicketButtonID = "k1ll_ticket_close"
)

const (
	// TicketEmoji is the emoji for the open button. (Ticket)
	TicketEmoji = "\U0001F3AB"

	// CloseEmoji is the emoji for the close button. (Padlock)
	CloseEmoji = "\U0001F510"
)

const (
	// TicketPanelCmdName is the command for posting the ticket panel.
	TicketPanelCmdName = "ticketpanel"

	// TicketCmdName is the command for controlling the ticket in the current channel.
	TicketCmdName = "ticket"

	// CloseCmdName is the sub command for closing the ticket.
	CloseCmdName = "close"

	// AddCmdName is the sub command for adding a member to the ticket.
	AddCmdName = "add"

	// RemoveCmdName is the sub command for removing a member from the ticket.
	RemoveCmdName = "remove"
)

// openDebounce is how long a second press of the open button is swallowed for.
const openDebounce = 3 * time.Second

var (
	// ticketPanelCmd is the command for posting or refreshing the ticket panel.
	ticketPanelCmd = &discordgo.ApplicationCommand{
		Name:        TicketPanelCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Posts the ticket panel in the current channel, replacing any previous panel.",
	}

	// ticketCmd is the command for controlling the ticket in the current channel.
	ticketCmd = &discordgo.ApplicationCommand{
		Name:        TicketCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "This is the command for controlling tickets.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        CloseCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This closes the ticket for the channel that the command was executed in.",
			},
			{
				Name:        AddCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This adds a member to the ticket for the current channel.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "member",
						Type:        discordgo.ApplicationCommandOptionUser,
						Description: "The member to add to the ticket.",
						Required:    true,
					},
				},
			},
			{
				Name:        RemoveCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This removes a member from the ticket for the current channel.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "member",
						Type:        discordgo.ApplicationCommandOptionUser,
						Description: "The member to remove from the ticket.",
						Required:    true,
					},
				},
			},
		},
	}
)

// ticketPanelMessage is the panel message members press to open a ticket.
var ticketPanelMessage = &discordgo.MessageSend{
	Content: `Need help?
Press **Open Ticket** below to open a private channel with the staff.`,
	Components: []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    fmt.Sprintf("%s Open Ticket", TicketEmoji),
					Style:    discordgo.SuccessButton,
					Emoji:    discordgo.ComponentEmoji{},
					CustomID: OpenTicketButtonID,
				},
			},
		},
	},
}

// newTicketMessage is the first message in a freshly provisioned ticket channel.
func newTicketMessage(userID string) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content: fmt.Sprintf(`<@%s> your ticket has been created. Explain your issue here.
Staff can use `+"`/ticket add`"+` to bring someone else in.`, userID),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    fmt.Sprintf("%s Close Ticket", CloseEmoji),
						Style:    discordgo.DangerButton,
						Emoji:    discordgo.ComponentEmoji{},
						CustomID: CloseTicketButtonID,
					},
				},
			},
		},
	}
}

func ticketPanelController(_ IApp, i *discordgo.InteractionCreate) (commandProcessor, error) {
	if !isStaff(i) {
		return nil, errors.New(messages.ErrUserNotStaff)
	}
	return ticketPanelHandler, nil
}

// ticketPanelHandler posts the panel into the current channel. Any previously posted panel is
// removed first so there is only ever one live panel per guild.
func ticketPanelHandler(a IApp, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guild, err := a.GuildDal().GetGuildByID(ctx, i.GuildID)
	if err != nil {
		if !errors.Is(err, dataaccess.ErrGuildNotFound) {
			a.Log().Error("Error getting guild configuration",
				slog.String(logging.KeyGuildID, i.GuildID),
				slog.String(logging.KeyError, err.Error()),
			)
			_ = respondSlashError(a, i)
			return
		}
		guild = &entities.Guild{ID: i.GuildID}
	}

	if guild.TicketPanelMessageID != "" {
		// Best effort. The old panel may have been deleted by hand already.
		if err := a.Session().ChannelMessageDelete(guild.TicketPanelChannelID, guild.TicketPanelMessageID); err != nil {
			a.Log().Warn("Error deleting previous ticket panel",
				slog.String(logging.KeyChannelID, guild.TicketPanelChannelID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}

	msg, err := a.Session().ChannelMessageSendComplex(i.ChannelID, ticketPanelMessage)
	if err != nil {
		a.Log().Error("Error sending ticket panel",
			slog.String(logging.KeyChannelID, i.ChannelID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}

	guild.TicketPanelChannelID = i.ChannelID
	guild.TicketPanelMessageID = msg.ID
	if err := a.GuildDal().SaveGuild(ctx, guild); err != nil {
		a.Log().Error("Error saving guild configuration",
			slog.String(logging.KeyGuildID, i.GuildID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}

	_ = respondEphemeral(a, i, "Ticket panel posted.")
}

// openTicketHandler handles a press of the panel button. The heavy work happens after an
// immediate defer so the interaction never times out while a channel is being provisioned.
func openTicketHandler(a IApp, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	// Swallow double presses before doing any work.
	free, err := a.Limiter().Once(ctx, fmt.Sprintf("ticketopen:%s:%s", i.GuildID, i.Member.User.ID), openDebounce)
	if err != nil {
		a.Log().Error("Error claiming open debounce",
			slog.String(logging.KeyUserID, i.Member.User.ID),
			slog.String(logging.KeyError, err.Error()),
		)
	} else if !free {
		_ = respondEphemeral(a, i, "Your ticket is already being opened, one moment.")
		return
	}

	if err := deferEphemeral(a, i); err != nil {
		a.Log().Error("Error deferring interaction", slog.String(logging.KeyError, err.Error()))
		return
	}

	categoryID := ""
	guild, err := a.GuildDal().GetGuildByID(ctx, i.GuildID)
	if err != nil && !errors.Is(err, dataaccess.ErrGuildNotFound) {
		a.Log().Error("Error getting guild configuration",
			slog.String(logging.KeyGuildID, i.GuildID),
			slog.String(logging.KeyError, err.Error()),
		)
		monitoring.TicketOpenOutcomes.WithLabelValues("error").Inc()
		_ = followUp(a, i, messages.ErrUserErrorProcessing)
		return
	} else if err == nil {
		categoryID = guild.TicketCategoryID
	}

	ticket, err := a.Tickets().Open(ctx, i.GuildID, i.Member.User.ID, i.Member.User.Username, categoryID)
	if err != nil {
		dup := new(ticketing.DuplicateTicketError)
		switch {
		case errors.As(err, &dup):
			monitoring.TicketOpenOutcomes.WithLabelValues("duplicate").Inc()
			_ = followUp(a, i, fmt.Sprintf("You already have an open ticket: <#%s>", dup.ChannelID))
		case errors.Is(err, ticketing.ErrNotConfigured):
			monitoring.TicketOpenOutcomes.WithLabelValues("not_configured").Inc()
			_ = followUp(a, i, messages.ErrTicketsNotConfigured)
		case errors.Is(err, ticketing.ErrInvalidCategory):
			monitoring.TicketOpenOutcomes.WithLabelValues("invalid_category").Inc()
			_ = followUp(a, i, messages.ErrTicketCategoryInvalid)
		case errors.Is(err, ticketing.ErrInsufficientPermissions):
			monitoring.TicketOpenOutcomes.WithLabelValues("missing_permissions").Inc()
			_ = followUp(a, i, messages.ErrBotMissingTicketPerms)
		default:
			a.Log().Error("Error opening ticket",
				slog.String(logging.KeyGuildID, i.GuildID),
				slog.String(logging.KeyUserID, i.Member.User.ID),
				slog.String(logging.KeyError, err.Error()),
			)
			monitoring.TicketOpenOutcomes.WithLabelValues("error").Inc()
			_ = followUp(a, i, messages.ErrTicketTransient)
		}
		return
	}

	monitoring.TicketOpenOutcomes.WithLabelValues("opened").Inc()

	if _, err := a.Session().ChannelMessageSendComplex(ticket.ChannelID, newTicketMessage(ticket.UserID)); err != nil {
		a.Log().Error("Error sending ticket welcome message",
			slog.String(logging.KeyChannelID, ticket.ChannelID),
			slog.String(logging.KeyError, err.Error()),
		)
	}

	_ = followUp(a, i, fmt.Sprintf("Your ticket has been created: <#%s>", ticket.ChannelID))
}

func ticketController(_ IApp, i *discordgo.InteractionCreate) (commandProcessor, error) {
	sub := i.ApplicationCommandData().Options[0].Name
	switch sub {
	case CloseCmdName:
		// Close authority (owner or staff) is decided against the ticket itself.
		return closeTicketCommandHandler, nil
	case AddCmdName, RemoveCmdName:
		if !isStaff(i) {
			return nil, errors.New(messages.ErrUserNotStaff)
		}
		if sub == AddCmdName {
			return addTicketMemberHandler, nil
		}
		return removeTicketMemberHandler, nil
	default:
		return nil, errors.New(messages.ErrUserErrorProcessing)
	}
}

func closeTicketCommandHandler(a IApp, i *discordgo.InteractionCreate) {
	closeTicket(a, i)
}

func closeTicketButtonHandler(a IApp, i *discordgo.InteractionCreate) {
	closeTicket(a, i)
}

// closeTicket resolves and closes the ticket for the current channel. The transcript paging can
// outlive the interaction deadline, hence the defer.
func closeTicket(a IApp, i *discordgo.InteractionCreate) {
	if err := deferEphemeral(a, i); err != nil {
		a.Log().Error("Error deferring interaction", slog.String(logging.KeyError, err.Error()))
		return
	}

	ticket, err := a.Tickets().Close(context.Background(), i.GuildID, i.ChannelID, i.Member.User.ID, canManageChannels(i))
	if err != nil {
		switch {
		case errors.Is(err, ticketing.ErrNotATicket):
			_ = followUp(a, i, messages.ErrNotATicketChannel)
		case errors.Is(err, ticketing.ErrForbidden):
			_ = followUp(a, i, messages.ErrTicketCloseForbidden)
		default:
			a.Log().Error("Error closing ticket",
				slog.String(logging.KeyChannelID, i.ChannelID),
				slog.String(logging.KeyError, err.Error()),
			)
			_ = followUp(a, i, messages.ErrTicketTransient)
		}
		return
	}

	a.Log().Info("Ticket closed",
		slog.String(logging.KeyGuildID, ticket.GuildID),
		slog.String(logging.KeyChannelID, ticket.ChannelID),
		slog.String(logging.KeyUserID, i.Member.User.ID),
	)
	_ = followUp(a, i, "Ticket closed. The channel can now be archived or deleted.")
}

// addTicketMemberHandler grants a member access to the current channel. Deliberately not
// gated on the registry: staff can use it to pull someone into any channel overwrite they
// manage, matching the access-management surface rather than the lifecycle.
func addTicketMemberHandler(a IApp, i *discordgo.InteractionCreate) {
	member := i.ApplicationCommandData().Options[0].Options[0].UserValue(a.Session())
	if err := a.Provisioner().GrantAccess(context.Background(), i.ChannelID, member.ID); err != nil {
		a.Log().Error("Error granting ticket access",
			slog.String(logging.KeyChannelID, i.ChannelID),
			slog.String(logging.KeyUserID, member.ID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondEphemeral(a, i, messages.ErrTicketTransient)
		return
	}
	_ = respondEphemeral(a, i, fmt.Sprintf("<@%s> has been added to the ticket.", member.ID))
}

func removeTicketMemberHandler(a IApp, i *discordgo.InteractionCreate) {
	member := i.ApplicationCommandData().Options[0].Options[0].UserValue(a.Session())
	if err := a.Provisioner().RevokeAccess(context.Background(), i.ChannelID, member.ID); err != nil {
		a.Log().Error("Error revoking ticket access",
			slog.String(logging.KeyChannelID, i.ChannelID),
			slog.String(logging.KeyUserID, member.ID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondEphemeral(a, i, messages.ErrTicketTransient)
		return
	}
	_ = respondEphemeral(a, i, fmt.Sprintf("<@%s> has been removed from the ticket.", member.ID))
}
