package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/k1llbot/k1ll/pkg/dataaccess"
	"github.com/k1llbot/k1ll/pkg/logging"
)

const (
	// spamWindow is how far back messages count towards the spam limit.
	spamWindow = 8 * time.Second

	// spamLimit is the number of messages within the window before a timeout.
	spamLimit = 7

	// mentionLimit is the number of mentions in a single message before a timeout.
	mentionLimit = 8

	// spamTimeout is how long a member is timed out for spamming.
	spamTimeout = 5 * time.Minute

	// xpCooldown is the minimum gap between messages that award experience.
	xpCooldown = 3 * time.Second

	// xpPerMessage is the experience awarded per counted message.
	xpPerMessage = 5
)

// antiLinkRegex matches the link shapes that get deleted when anti-links is enabled.
var antiLinkRegex = regexp.MustCompile(`(?i)(?:https?://|discord\.gg/|www\.)`)

func messageCreateHandler(a IApp) func(s *discordgo.Session, m *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.GuildID == "" || m.Author == nil || m.Author.Bot {
			return
		}

		ctx := context.Background()

		if timedOut := applySpamChecks(ctx, a, s, m); timedOut {
			return
		}

		guild, err := a.GuildDal().GetGuildByID(ctx, m.GuildID)
		if err != nil && !errors.Is(err, dataaccess.ErrGuildNotFound) {
			a.Log().Error("Error getting guild configuration",
				slog.String(logging.KeyGuildID, m.GuildID),
				slog.String(logging.KeyError, err.Error()),
			)
			return
		}

		if guild != nil && guild.AntiLinks && antiLinkRegex.MatchString(m.Content) {
			if err := s.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
				a.Log().Error("Error deleting link message",
					slog.String(logging.KeyChannelID, m.ChannelID),
					slog.String(logging.KeyError, err.Error()),
				)
				return
			}
			_, _ = s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("<@%s> links are not allowed here.", m.Author.ID))
			return
		}

		awardMessageXP(ctx, a, s, m)
	}
}

// applySpamChecks counts the message against the redis spam window and times the member
// out on breach. Returns true when the member was timed out.
func applySpamChecks(ctx context.Context, a IApp, s *discordgo.Session, m *discordgo.MessageCreate) bool {
	key := fmt.Sprintf("spam:%s:%s", m.GuildID, m.Author.ID)
	count, err := a.Limiter().Hit(ctx, key, spamWindow)
	if err != nil {
		a.Log().Error("Error counting message towards spam window",
			slog.String(logging.KeyUserID, m.Author.ID),
			slog.String(logging.KeyError, err.Error()),
		)
		return false
	}

	if count <= spamLimit && len(m.Mentions) < mentionLimit {
		return false
	}

	until := time.Now().UTC().Add(spamTimeout)
	if err := s.GuildMemberTimeout(m.GuildID, m.Author.ID, &until); err != nil {
		a.Log().Error("Error timing out member for spam",
			slog.String(logging.KeyGuildID, m.GuildID),
			slog.String(logging.KeyUserID, m.Author.ID),
			slog.String(logging.KeyError, err.Error()),
		)
		return false
	}
	_, _ = s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("<@%s> has been timed out for spam (5 min).", m.Author.ID))
	return true
}

// awardMessageXP grants experience for the message unless the member is still on the
// experience cooldown.
func awardMessageXP(ctx context.Context, a IApp, s *discordgo.Session, m *discordgo.MessageCreate) {
	key := fmt.Sprintf("xp:%s:%s", m.GuildID, m.Author.ID)
	ok, err := a.Limiter().Once(ctx, key, xpCooldown)
	if err != nil {
		a.Log().Error("Error claiming experience cooldown",
			slog.String(logging.KeyUserID, m.Author.ID),
			slog.String(logging.KeyError, err.Error()),
		)
		return
	}
	if !ok {
		return
	}

	profile, err := a.XPDal().GetProfile(ctx, m.GuildID, m.Author.ID)
	if err != nil {
		a.Log().Error("Error getting experience profile",
			slog.String(logging.KeyUserID, m.Author.ID),
			slog.String(logging.KeyError, err.Error()),
		)
		return
	}

	levelled := profile.Award(xpPerMessage)

	if err := a.XPDal().SaveProfile(ctx, profile); err != nil {
		a.Log().Error("Error saving experience profile",
			slog.String(logging.KeyUserID, m.Author.ID),
			slog.String(logging.KeyError, err.Error()),
		)
		return
	}

	if levelled {
		_, _ = s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("<@%s> levelled up to **%d**!", m.Author.ID, profile.Level))
	}
}

func messageDeleteHandler(a IApp) func(s *discordgo.Session, m *discordgo.MessageDelete) {
	return func(_ *discordgo.Session, m *discordgo.MessageDelete) {
		if m.GuildID == "" || m.BeforeDelete == nil || m.BeforeDelete.Author == nil ||
			m.BeforeDelete.Author.Bot || m.BeforeDelete.Content == "" {
			return
		}

		embed := &discordgo.MessageEmbed{
			Title:       "Message deleted",
			Description: truncate(m.BeforeDelete.Content, 2000),
			Color:       0xff0000,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
			Author: &discordgo.MessageEmbedAuthor{
				Name:    m.BeforeDelete.Author.Username,
				IconURL: m.BeforeDelete.Author.AvatarURL(""),
			},
		}
		if err := sendLogEmbed(a, m.GuildID, embed); err != nil {
			a.Log().Error("Error logging deleted message",
				slog.String(logging.KeyGuildID, m.GuildID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}
}

func messageUpdateHandler(a IApp) func(s *discordgo.Session, m *discordgo.MessageUpdate) {
	return func(_ *discordgo.Session, m *discordgo.MessageUpdate) {
		if m.GuildID == "" || m.Author == nil || m.Author.Bot || m.BeforeUpdate == nil {
			return
		}
		if m.BeforeUpdate.Content == m.Content {
			return
		}

		embed := &discordgo.MessageEmbed{
			Title:     "Message edited",
			Color:     0xffa500,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Author: &discordgo.MessageEmbedAuthor{
				Name:    m.Author.Username,
				IconURL: m.Author.AvatarURL(""),
			},
			Fields: []*discordgo.MessageEmbedField{
				{
					Name:  "Before",
					Value: orDash(truncate(m.BeforeUpdate.Content, 1000)),
				},
				{
					Name:  "After",
					Value: orDash(truncate(m.Content, 1000)),
				},
			},
		}
		if err := sendLogEmbed(a, m.GuildID, embed); err != nil {
			a.Log().Error("Error logging edited message",
				slog.String(logging.KeyGuildID, m.GuildID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
