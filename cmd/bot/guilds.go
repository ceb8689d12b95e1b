package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/k1llbot/k1ll/cmd/bot/monitoring"
	"github.com/k1llbot/k1ll/pkg/dataaccess"
	"github.com/k1llbot/k1ll/pkg/logging"
)

func guildJoinedHandler(a IApp) func(s *discordgo.Session, g *discordgo.GuildCreate) {
	return func(_ *discordgo.Session, g *discordgo.GuildCreate) {
		a.Log().Info(fmt.Sprintf("Joined guild %s", g.Name))

		// Increment the total number of guilds.
		monitoring.TotalDiscordGuilds.Inc()
	}
}

func guildLeaveHandler(a IApp) func(s *discordgo.Session, g *discordgo.GuildDelete) {
	return func(_ *discordgo.Session, g *discordgo.GuildDelete) {
		a.Log().Info(fmt.Sprintf("Left guild %s", g.Name))

		// Decrement the total number of guilds.
		monitoring.TotalDiscordGuilds.Dec()
	}
}

func memberJoinedHandler(a IApp) func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	return func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
		guild, err := a.GuildDal().GetGuildByID(context.Background(), m.GuildID)
		if err != nil {
			if !errors.Is(err, dataaccess.ErrGuildNotFound) {
				a.Log().Error("Error getting guild configuration",
					slog.String(logging.KeyGuildID, m.GuildID),
					slog.String(logging.KeyError, err.Error()),
				)
			}
			return
		}

		if guild.WelcomeChannelID != "" {
			msg := fmt.Sprintf("Welcome <@%s>! You are member #%d.", m.User.ID, guildMemberCount(s, m.GuildID))
			if _, err := s.ChannelMessageSend(guild.WelcomeChannelID, msg); err != nil {
				a.Log().Error("Error sending welcome message",
					slog.String(logging.KeyGuildID, m.GuildID),
					slog.String(logging.KeyError, err.Error()),
				)
			}
		}

		if guild.AutoroleID != "" {
			if err := s.GuildMemberRoleAdd(m.GuildID, m.User.ID, guild.AutoroleID); err != nil {
				a.Log().Error("Error assigning autorole",
					slog.String(logging.KeyGuildID, m.GuildID),
					slog.String(logging.KeyUserID, m.User.ID),
					slog.String(logging.KeyError, err.Error()),
				)
			}
		}
	}
}

func memberLeaveHandler(a IApp) func(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	return func(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
		guild, err := a.GuildDal().GetGuildByID(context.Background(), m.GuildID)
		if err != nil {
			if !errors.Is(err, dataaccess.ErrGuildNotFound) {
				a.Log().Error("Error getting guild configuration",
					slog.String(logging.KeyGuildID, m.GuildID),
					slog.String(logging.KeyError, err.Error()),
				)
			}
			return
		}

		if guild.WelcomeChannelID == "" {
			return
		}
		msg := fmt.Sprintf("**%s** has left the server.", m.User.Username)
		if _, err := s.ChannelMessageSend(guild.WelcomeChannelID, msg); err != nil {
			a.Log().Error("Error sending leave message",
				slog.String(logging.KeyGuildID, m.GuildID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}
}

// guildMemberCount reads the member count from the session state, falling back
// to zero when the guild is not cached yet.
func guildMemberCount(s *discordgo.Session, guildID string) int {
	g, err := s.State.Guild(guildID)
	if err != nil {
		return 0
	}
	return g.MemberCount
}
