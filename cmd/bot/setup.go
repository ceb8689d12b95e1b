package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/k1llbot/k1ll/pkg/dataaccess"
	"github.com/k1llbot/k1ll/pkg/entities"
	"github.com/k1llbot/k1ll/pkg/logging"
	"github.com/k1llbot/k1ll/pkg/messages"
)

const (
	// SetupCmdName is the command for configuring the guild.
	SetupCmdName = "setup"
)

var setupCmd = &discordgo.ApplicationCommand{
	Name:        SetupCmdName,
	Type:        discordgo.ChatApplicationCommand,
	Description: "Configures the channels and roles the bot uses in this server.",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Name:         "log_channel",
			Type:         discordgo.ApplicationCommandOptionChannel,
			Description:  "The channel for moderation and message logs.",
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
		},
		{
			Name:         "welcome_channel",
			Type:         discordgo.ApplicationCommandOptionChannel,
			Description:  "The channel for welcome and leave messages.",
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
		},
		{
			Name:        "autorole",
			Type:        discordgo.ApplicationCommandOptionRole,
			Description: "The role given to new members.",
		},
		{
			Name:         "ticket_category",
			Type:         discordgo.ApplicationCommandOptionChannel,
			Description:  "The category that ticket channels are created under.",
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory},
		},
		{
			Name:        "anti_links",
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Description: "Whether links get deleted automatically.",
		},
	},
}

func setupController(_ IApp, i *discordgo.InteractionCreate) (commandProcessor, error) {
	if !isAdmin(i) {
		return nil, errors.New(messages.ErrUserNotAdmin)
	}
	return setupHandler, nil
}

func setupHandler(a IApp, i *discordgo.InteractionCreate) {
	// Channel creation below can take longer than the interaction deadline.
	if err := deferEphemeral(a, i); err != nil {
		a.Log().Error("Error deferring interaction", slog.String(logging.KeyError, err.Error()))
		return
	}

	ctx := context.Background()

	guild, err := a.GuildDal().GetGuildByID(ctx, i.GuildID)
	if err != nil {
		if !errors.Is(err, dataaccess.ErrGuildNotFound) {
			a.Log().Error("Error getting guild configuration",
				slog.String(logging.KeyGuildID, i.GuildID),
				slog.String(logging.KeyError, err.Error()),
			)
			_ = followUp(a, i, messages.ErrUserErrorProcessing)
			return
		}
		guild = &entities.Guild{ID: i.GuildID}
	}

	opts := optionMap(i.ApplicationCommandData().Options)

	if opt, ok := opts["log_channel"]; ok {
		guild.LogChannelID = opt.ChannelValue(a.Session()).ID
	}
	if opt, ok := opts["welcome_channel"]; ok {
		guild.WelcomeChannelID = opt.ChannelValue(a.Session()).ID
	}
	if opt, ok := opts["autorole"]; ok {
		guild.AutoroleID = opt.RoleValue(a.Session(), i.GuildID).ID
	}
	if opt, ok := opts["ticket_category"]; ok {
		guild.TicketCategoryID = opt.ChannelValue(a.Session()).ID
	}
	if opt, ok := opts["anti_links"]; ok {
		guild.AntiLinks = opt.BoolValue()
	}

	// Create defaults for anything still unset.
	if guild.LogChannelID == "" {
		ch, err := a.Session().GuildChannelCreate(i.GuildID, "logs", discordgo.ChannelTypeGuildText)
		if err != nil {
			a.Log().Error("Error creating default log channel", slog.String(logging.KeyError, err.Error()))
			_ = followUp(a, i, messages.ErrUserErrorProcessing)
			return
		}
		guild.LogChannelID = ch.ID
	}
	if guild.WelcomeChannelID == "" {
		ch, err := a.Session().GuildChannelCreate(i.GuildID, "welcome", discordgo.ChannelTypeGuildText)
		if err != nil {
			a.Log().Error("Error creating default welcome channel", slog.String(logging.KeyError, err.Error()))
			_ = followUp(a, i, messages.ErrUserErrorProcessing)
			return
		}
		guild.WelcomeChannelID = ch.ID
	}
	if guild.TicketCategoryID == "" {
		ch, err := a.Session().GuildChannelCreate(i.GuildID, "TICKETS", discordgo.ChannelTypeGuildCategory)
		if err != nil {
			a.Log().Error("Error creating default ticket category", slog.String(logging.KeyError, err.Error()))
			_ = followUp(a, i, messages.ErrUserErrorProcessing)
			return
		}
		guild.TicketCategoryID = ch.ID
	}

	if err := a.GuildDal().SaveGuild(ctx, guild); err != nil {
		a.Log().Error("Error saving guild configuration",
			slog.String(logging.KeyGuildID, i.GuildID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = followUp(a, i, messages.ErrUserErrorProcessing)
		return
	}

	autorole := "-"
	if guild.AutoroleID != "" {
		autorole = fmt.Sprintf("<@&%s>", guild.AutoroleID)
	}
	antiLinks := "disabled"
	if guild.AntiLinks {
		antiLinks = "enabled"
	}

	summary := fmt.Sprintf("**Setup complete**\nLogs: <#%s>\nWelcome: <#%s>\nAutorole: %s\nTickets: <#%s>\nAnti-links: %s",
		guild.LogChannelID, guild.WelcomeChannelID, autorole, guild.TicketCategoryID, antiLinks)
	if err := followUp(a, i, summary); err != nil {
		a.Log().Error("Error sending setup summary", slog.String(logging.KeyError, err.Error()))
	}
}
