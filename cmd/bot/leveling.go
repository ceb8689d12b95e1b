package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/k1llbot/k1ll/pkg/logging"
)

const (
	RankCmdName        = "rank"
	LeaderboardCmdName = "leaderboard"
)

// leaderboardSize is how many members the leaderboard shows.
const leaderboardSize = 10

var (
	rankCmd = &discordgo.ApplicationCommand{
		Name:        RankCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Shows a member's level and experience.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "member",
				Type:        discordgo.ApplicationCommandOptionUser,
				Description: "The member to look up. Defaults to you.",
			},
		},
	}

	leaderboardCmd = &discordgo.ApplicationCommand{
		Name:        LeaderboardCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Shows the top members of the server by level.",
	}
)

func rankHandler(a IApp, i *discordgo.InteractionCreate) {
	target := i.Member.User
	if opt, ok := optionMap(i.ApplicationCommandData().Options)["member"]; ok {
		target = opt.UserValue(a.Session())
	}

	profile, err := a.XPDal().GetProfile(context.Background(), i.GuildID, target.ID)
	if err != nil {
		a.Log().Error("Error getting experience profile",
			slog.String(logging.KeyUserID, target.ID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}

	_ = respondMessage(a, i, fmt.Sprintf("<@%s> is level **%d** with **%d**/%d XP.",
		target.ID, profile.Level, profile.XP, profile.NextLevelXP()))
}

func leaderboardHandler(a IApp, i *discordgo.InteractionCreate) {
	profiles, err := a.XPDal().TopProfiles(context.Background(), i.GuildID, leaderboardSize)
	if err != nil {
		a.Log().Error("Error getting leaderboard",
			slog.String(logging.KeyGuildID, i.GuildID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}

	if len(profiles) == 0 {
		_ = respondMessage(a, i, "No one has earned experience yet.")
		return
	}

	lines := make([]string, 0, len(profiles))
	for n, p := range profiles {
		lines = append(lines, fmt.Sprintf("**%d.** <@%s> - level %d (%d XP)", n+1, p.UserID, p.Level, p.XP))
	}
	_ = respondMessage(a, i, strings.Join(lines, "\n"))
}
