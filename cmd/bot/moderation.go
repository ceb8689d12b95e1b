package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/k1llbot/k1ll/pkg/custom"
	"github.com/k1llbot/k1ll/pkg/entities"
	"github.com/k1llbot/k1ll/pkg/logging"
	"github.com/k1llbot/k1ll/pkg/messages"
)

const (
	BanCmdName        = "ban"
	UnbanCmdName      = "unban"
	KickCmdName       = "kick"
	MuteCmdName       = "mute"
	UnmuteCmdName     = "unmute"
	ClearCmdName      = "clear"
	SlowmodeCmdName   = "slowmode"
	WarnCmdName       = "warn"
	WarningsCmdName   = "warnings"
	ClearWarnsCmdName = "clearwarns"
)

var (
	banCmd = &discordgo.ApplicationCommand{
		Name:        BanCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Bans a member from the server.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "member",
				Type:        discordgo.ApplicationCommandOptionUser,
				Description: "The member to ban.",
				Required:    true,
			},
			{
				Name:        "reason",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "The reason for the ban.",
			},
		},
	}

	unbanCmd = &discordgo.ApplicationCommand{
		Name:        UnbanCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Removes a ban by user ID.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "user_id",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "The ID of the user to unban.",
				Required:    true,
			},
		},
	}

	kickCmd = &discordgo.ApplicationCommand{
		Name:        KickCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Kicks a member from the server.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "member",
				Type:        discordgo.ApplicationCommandOptionUser,
				Description: "The member to kick.",
				Required:    true,
			},
			{
				Name:        "reason",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "The reason for the kick.",
			},
		},
	}

	muteCmd = &discordgo.ApplicationCommand{
		Name:        MuteCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Times a member out.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "member",
				Type:        discordgo.ApplicationCommandOptionUser,
				Description: "The member to time out.",
				Required:    true,
			},
			{
				Name:        "minutes",
				Type:        discordgo.ApplicationCommandOptionInteger,
				Description: "How long to time the member out for, in minutes. Defaults to 10.",
			},
			{
				Name:        "reason",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "The reason for the timeout.",
			},
		},
	}

	unmuteCmd = &discordgo.ApplicationCommand{
		Name:        UnmuteCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Removes a member's timeout.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "member",
				Type:        discordgo.ApplicationCommandOptionUser,
				Description: "The member to unmute.",
				Required:    true,
			},
		},
	}

	clearCmd = &discordgo.ApplicationCommand{
		Name:        ClearCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Deletes recent messages in the current channel.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "amount",
				Type:        discordgo.ApplicationCommandOptionInteger,
				Description: "How many messages to delete. Defaults to 10, max 100.",
			},
		},
	}

	slowmodeCmd = &discordgo.ApplicationCommand{
		Name:        SlowmodeCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Sets the slowmode delay for the current channel.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "seconds",
				Type:        discordgo.ApplicationCommandOptionInteger,
				Description: "The slowmode delay in seconds. 0 disables it.",
				Required:    true,
			},
		},
	}

	warnCmd = &discordgo.ApplicationCommand{
		Name:        WarnCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Warns a member.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "member",
				Type:        discordgo.ApplicationCommandOptionUser,
				Description: "The member to warn.",
				Required:    true,
			},
			{
				Name:        "reason",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "The reason for the warning.",
				Required:    true,
			},
		},
	}

	warningsCmd = &discordgo.ApplicationCommand{
		Name:        WarningsCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Lists a member's warnings.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "member",
				Type:        discordgo.ApplicationCommandOptionUser,
				Description: "The member whose warnings to list.",
				Required:    true,
			},
		},
	}

	clearWarnsCmd = &discordgo.ApplicationCommand{
		Name:        ClearWarnsCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Removes all warnings from a member.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "member",
				Type:        discordgo.ApplicationCommandOptionUser,
				Description: "The member whose warnings to clear.",
				Required:    true,
			},
		},
	}
)

func orNoReason(reason string) string {
	if reason == "" {
		return "-"
	}
	return reason
}

// logModeration posts a moderation notice to the guild log channel. Failures are logged and
// swallowed so the moderation action itself still reads as successful.
func logModeration(a IApp, guildID, description string) {
	err := sendLogEmbed(a, guildID, &discordgo.MessageEmbed{
		Description: description,
		Color:       0xffa500,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		a.Log().Error("Error logging moderation action",
			slog.String(logging.KeyGuildID, guildID),
			slog.String(logging.KeyError, err.Error()),
		)
	}
}

func banHandler(a IApp, i *discordgo.InteractionCreate) {
	opts := optionMap(i.ApplicationCommandData().Options)
	member := opts["member"].UserValue(a.Session())
	reason := ""
	if opt, ok := opts["reason"]; ok {
		reason = opt.StringValue()
	}

	if err := a.Session().GuildBanCreateWithReason(i.GuildID, member.ID, reason, 0); err != nil {
		a.Log().Error("Error banning member",
			slog.String(logging.KeyUserID, member.ID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}
	_ = respondMessage(a, i, fmt.Sprintf("**%s** has been banned. Reason: %s", member.Username, orNoReason(reason)))
	logModeration(a, i.GuildID, fmt.Sprintf("**%s** banned by <@%s>. Reason: %s", member.Username, i.Member.User.ID, orNoReason(reason)))
}

func unbanHandler(a IApp, i *discordgo.InteractionCreate) {
	userID := optionMap(i.ApplicationCommandData().Options)["user_id"].StringValue()

	if err := a.Session().GuildBanDelete(i.GuildID, userID); err != nil {
		a.Log().Error("Error unbanning user",
			slog.String(logging.KeyUserID, userID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}
	_ = respondMessage(a, i, fmt.Sprintf("<@%s> has been unbanned.", userID))
	logModeration(a, i.GuildID, fmt.Sprintf("<@%s> unbanned by <@%s>.", userID, i.Member.User.ID))
}

func kickHandler(a IApp, i *discordgo.InteractionCreate) {
	opts := optionMap(i.ApplicationCommandData().Options)
	member := opts["member"].UserValue(a.Session())
	reason := ""
	if opt, ok := opts["reason"]; ok {
		reason = opt.StringValue()
	}

	if err := a.Session().GuildMemberDeleteWithReason(i.GuildID, member.ID, reason); err != nil {
		a.Log().Error("Error kicking member",
			slog.String(logging.KeyUserID, member.ID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}
	_ = respondMessage(a, i, fmt.Sprintf("**%s** has been kicked. Reason: %s", member.Username, orNoReason(reason)))
	logModeration(a, i.GuildID, fmt.Sprintf("**%s** kicked by <@%s>. Reason: %s", member.Username, i.Member.User.ID, orNoReason(reason)))
}

func muteHandler(a IApp, i *discordgo.InteractionCreate) {
	opts := optionMap(i.ApplicationCommandData().Options)
	member := opts["member"].UserValue(a.Session())
	minutes := int64(10)
	if opt, ok := opts["minutes"]; ok {
		minutes = opt.IntValue()
	}
	reason := ""
	if opt, ok := opts["reason"]; ok {
		reason = opt.StringValue()
	}

	until := time.Now().UTC().Add(time.Duration(minutes) * time.Minute)
	if err := a.Session().GuildMemberTimeout(i.GuildID, member.ID, &until); err != nil {
		a.Log().Error("Error timing out member",
			slog.String(logging.KeyUserID, member.ID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}
	_ = respondMessage(a, i, fmt.Sprintf("<@%s> has been muted for %d minutes.", member.ID, minutes))
	logModeration(a, i.GuildID, fmt.Sprintf("**%s** timed out for %d minutes by <@%s>. Reason: %s",
		member.Username, minutes, i.Member.User.ID, orNoReason(reason)))
}

func unmuteHandler(a IApp, i *discordgo.InteractionCreate) {
	member := optionMap(i.ApplicationCommandData().Options)["member"].UserValue(a.Session())

	if err := a.Session().GuildMemberTimeout(i.GuildID, member.ID, nil); err != nil {
		a.Log().Error("Error removing member timeout",
			slog.String(logging.KeyUserID, member.ID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}
	_ = respondMessage(a, i, fmt.Sprintf("<@%s> has been unmuted.", member.ID))
	logModeration(a, i.GuildID, fmt.Sprintf("**%s** unmuted by <@%s>.", member.Username, i.Member.User.ID))
}

func clearHandler(a IApp, i *discordgo.InteractionCreate) {
	amount := 10
	if opt, ok := optionMap(i.ApplicationCommandData().Options)["amount"]; ok {
		amount = int(opt.IntValue())
	}
	// Bulk delete caps out at 100 per call.
	if amount < 1 {
		amount = 1
	} else if amount > 100 {
		amount = 100
	}

	if err := deferEphemeral(a, i); err != nil {
		a.Log().Error("Error deferring interaction", slog.String(logging.KeyError, err.Error()))
		return
	}

	msgs, err := a.Session().ChannelMessages(i.ChannelID, amount, "", "", "")
	if err != nil {
		a.Log().Error("Error listing messages to clear",
			slog.String(logging.KeyChannelID, i.ChannelID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = followUp(a, i, messages.ErrUserErrorProcessing)
		return
	}

	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}

	if err := a.Session().ChannelMessagesBulkDelete(i.ChannelID, ids); err != nil {
		a.Log().Error("Error bulk deleting messages",
			slog.String(logging.KeyChannelID, i.ChannelID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = followUp(a, i, messages.ErrUserErrorProcessing)
		return
	}
	_ = followUp(a, i, fmt.Sprintf("Deleted %d messages.", len(ids)))
}

func slowmodeHandler(a IApp, i *discordgo.InteractionCreate) {
	seconds := int(optionMap(i.ApplicationCommandData().Options)["seconds"].IntValue())
	if seconds < 0 {
		seconds = 0
	} else if seconds > 21600 {
		seconds = 21600
	}

	if _, err := a.Session().ChannelEditComplex(i.ChannelID, &discordgo.ChannelEdit{
		RateLimitPerUser: &seconds,
	}); err != nil {
		a.Log().Error("Error setting slowmode",
			slog.String(logging.KeyChannelID, i.ChannelID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}
	_ = respondMessage(a, i, fmt.Sprintf("Slowmode set to %d seconds.", seconds))
}

func warnHandler(a IApp, i *discordgo.InteractionCreate) {
	opts := optionMap(i.ApplicationCommandData().Options)
	member := opts["member"].UserValue(a.Session())
	reason := opts["reason"].StringValue()

	warn := &entities.Warn{
		GuildID:     i.GuildID,
		UserID:      member.ID,
		ModeratorID: i.Member.User.ID,
		Reason:      reason,
		Timestamp:   custom.Now(),
	}
	if err := a.WarnDal().InsertWarn(context.Background(), warn); err != nil {
		a.Log().Error("Error saving warning",
			slog.String(logging.KeyUserID, member.ID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}
	_ = respondMessage(a, i, fmt.Sprintf("<@%s> has been warned: %s", member.ID, reason))
	logModeration(a, i.GuildID, fmt.Sprintf("**%s** warned by <@%s>: %s", member.Username, i.Member.User.ID, reason))
}

func warningsHandler(a IApp, i *discordgo.InteractionCreate) {
	member := optionMap(i.ApplicationCommandData().Options)["member"].UserValue(a.Session())

	warns, err := a.WarnDal().GetWarnsByUser(context.Background(), i.GuildID, member.ID)
	if err != nil {
		a.Log().Error("Error getting warnings",
			slog.String(logging.KeyUserID, member.ID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}

	if len(warns) == 0 {
		_ = respondMessage(a, i, fmt.Sprintf("**%s** has no warnings.", member.Username))
		return
	}

	lines := make([]string, 0, len(warns))
	for _, w := range warns {
		lines = append(lines, fmt.Sprintf("- %s <@%s>: %s",
			w.Timestamp.Time().UTC().Format("02/01/2006 15:04"), w.ModeratorID, w.Reason))
	}
	_ = respondMessage(a, i, strings.Join(lines, "\n"))
}

func clearWarnsHandler(a IApp, i *discordgo.InteractionCreate) {
	member := optionMap(i.ApplicationCommandData().Options)["member"].UserValue(a.Session())

	removed, err := a.WarnDal().ClearWarns(context.Background(), i.GuildID, member.ID)
	if err != nil {
		a.Log().Error("Error clearing warnings",
			slog.String(logging.KeyUserID, member.ID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}
	_ = respondMessage(a, i, fmt.Sprintf("Removed %d warnings from **%s**.", removed, member.Username))
}
