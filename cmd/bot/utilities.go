package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/k1llbot/k1ll/pkg/logging"
)

const (
	HelpCmdName       = "help"
	PingCmdName       = "ping"
	ServerInfoCmdName = "serverinfo"
	UserInfoCmdName   = "userinfo"
	SuggestCmdName    = "suggest"
	PollCmdName       = "poll"
)

// pollEmojis are the numbered reactions seeded onto a poll, in option order.
var pollEmojis = []string{"1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣"}

var (
	helpCmd = &discordgo.ApplicationCommand{
		Name:        HelpCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Lists the bot's main commands.",
	}

	pingCmd = &discordgo.ApplicationCommand{
		Name:        PingCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Shows the bot's latency.",
	}

	serverInfoCmd = &discordgo.ApplicationCommand{
		Name:        ServerInfoCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Shows information about this server.",
	}

	userInfoCmd = &discordgo.ApplicationCommand{
		Name:        UserInfoCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Shows information about a member.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "member",
				Type:        discordgo.ApplicationCommandOptionUser,
				Description: "The member to look up. Defaults to you.",
			},
		},
	}

	suggestCmd = &discordgo.ApplicationCommand{
		Name:        SuggestCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Posts a suggestion in the current channel.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "message",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "The suggestion.",
				Required:    true,
			},
		},
	}

	pollCmd = &discordgo.ApplicationCommand{
		Name:        PollCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Creates a quick poll with 2 to 5 options.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "question",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "The question to ask.",
				Required:    true,
			},
			{
				Name:        "option1",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "The first option.",
				Required:    true,
			},
			{
				Name:        "option2",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "The second option.",
				Required:    true,
			},
			{
				Name:        "option3",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "The third option.",
			},
			{
				Name:        "option4",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "The fourth option.",
			},
			{
				Name:        "option5",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "The fifth option.",
			},
		},
	}
)

func helpHandler(a IApp, i *discordgo.InteractionCreate) {
	_ = respondEphemeralEmbed(a, i, helpEmbed())
}

// helpEmbed is the static command listing, grouped by feature.
func helpEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Help",
		Color: 0x5865f2,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "Setup",
				Value: "`/setup` configures the log channel, welcome channel, autorole, ticket category and anti-links.",
			},
			{
				Name:  "Tickets",
				Value: "`/ticketpanel` posts the open-ticket panel. `/ticket close`, `/ticket add`, `/ticket remove`.",
			},
			{
				Name:  "Moderation",
				Value: "`/ban`, `/unban`, `/kick`, `/mute`, `/unmute`, `/clear`, `/slowmode`, `/warn`, `/warnings`, `/clearwarns`",
			},
			{
				Name:  "Levels",
				Value: "`/rank`, `/leaderboard`",
			},
			{
				Name:  "Economy",
				Value: "`/balance`, `/daily`, `/pay`, `/shop`, `/buy`, `/inventory`",
			},
			{
				Name:  "Roles",
				Value: "`/rolesetup` posts a self-assign role menu.",
			},
			{
				Name:  "Utilities",
				Value: "`/ping`, `/serverinfo`, `/userinfo`, `/suggest`, `/poll`",
			},
		},
	}
}

func pingHandler(a IApp, i *discordgo.InteractionCreate) {
	_ = respondMessage(a, i, fmt.Sprintf("Pong! %dms", a.Session().HeartbeatLatency().Milliseconds()))
}

func serverInfoHandler(a IApp, i *discordgo.InteractionCreate) {
	guild, err := a.Session().State.Guild(i.GuildID)
	if err != nil {
		guild, err = a.Session().Guild(i.GuildID)
		if err != nil {
			a.Log().Error("Error getting guild",
				slog.String(logging.KeyGuildID, i.GuildID),
				slog.String(logging.KeyError, err.Error()),
			)
			_ = respondSlashError(a, i)
			return
		}
	}

	created, err := discordgo.SnowflakeTimestamp(guild.ID)
	if err != nil {
		a.Log().Error("Error parsing guild snowflake", slog.String(logging.KeyError, err.Error()))
		_ = respondSlashError(a, i)
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: guild.Name,
		Color: 0x5865f2,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Members",
				Value:  fmt.Sprintf("%d", guild.MemberCount),
				Inline: true,
			},
			{
				Name:   "Channels",
				Value:  fmt.Sprintf("%d", len(guild.Channels)),
				Inline: true,
			},
			{
				Name:   "Created",
				Value:  created.UTC().Format("02/01/2006"),
				Inline: true,
			},
		},
	}
	if guild.Icon != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: guild.IconURL("")}
	}
	_ = respondEmbed(a, i, embed)
}

func userInfoHandler(a IApp, i *discordgo.InteractionCreate) {
	target := i.Member.User
	if opt, ok := optionMap(i.ApplicationCommandData().Options)["member"]; ok {
		target = opt.UserValue(a.Session())
	}

	created, err := discordgo.SnowflakeTimestamp(target.ID)
	if err != nil {
		a.Log().Error("Error parsing user snowflake", slog.String(logging.KeyError, err.Error()))
		_ = respondSlashError(a, i)
		return
	}

	joined := "-"
	if member, err := a.Session().GuildMember(i.GuildID, target.ID); err == nil && !member.JoinedAt.IsZero() {
		joined = member.JoinedAt.UTC().Format("02/01/2006")
	}

	embed := &discordgo.MessageEmbed{
		Title: target.Username,
		Color: 0x5865f2,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Joined",
				Value:  joined,
				Inline: true,
			},
			{
				Name:   "Created",
				Value:  created.UTC().Format("02/01/2006"),
				Inline: true,
			},
			{
				Name:   "ID",
				Value:  target.ID,
				Inline: true,
			},
		},
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: target.AvatarURL("")},
	}
	_ = respondEmbed(a, i, embed)
}

func suggestHandler(a IApp, i *discordgo.InteractionCreate) {
	suggestion := optionMap(i.ApplicationCommandData().Options)["message"].StringValue()

	msg, err := a.Session().ChannelMessageSendEmbed(i.ChannelID, &discordgo.MessageEmbed{
		Title:       "Suggestion",
		Description: suggestion,
		Color:       0xffd700,
		Author: &discordgo.MessageEmbedAuthor{
			Name:    i.Member.User.Username,
			IconURL: i.Member.User.AvatarURL(""),
		},
	})
	if err != nil {
		a.Log().Error("Error sending suggestion",
			slog.String(logging.KeyChannelID, i.ChannelID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}

	for _, emoji := range []string{"\U0001F44D", "\U0001F44E"} {
		if err := a.Session().MessageReactionAdd(i.ChannelID, msg.ID, emoji); err != nil {
			a.Log().Warn("Error seeding suggestion reaction", slog.String(logging.KeyError, err.Error()))
		}
	}
	_ = respondEphemeral(a, i, "Suggestion posted!")
}

func pollHandler(a IApp, i *discordgo.InteractionCreate) {
	opts := optionMap(i.ApplicationCommandData().Options)
	question := opts["question"].StringValue()

	options := make([]string, 0, len(pollEmojis))
	for n := 1; n <= len(pollEmojis); n++ {
		opt, ok := opts[fmt.Sprintf("option%d", n)]
		if !ok || opt.StringValue() == "" {
			continue
		}
		options = append(options, opt.StringValue())
	}

	lines := make([]string, 0, len(options))
	for n, opt := range options {
		lines = append(lines, fmt.Sprintf("%s %s", pollEmojis[n], opt))
	}

	msg, err := a.Session().ChannelMessageSendEmbed(i.ChannelID, &discordgo.MessageEmbed{
		Title:       "Poll",
		Description: fmt.Sprintf("**%s**\n\n%s", question, strings.Join(lines, "\n")),
		Color:       0x5865f2,
	})
	if err != nil {
		a.Log().Error("Error sending poll",
			slog.String(logging.KeyChannelID, i.ChannelID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}

	for n := range options {
		if err := a.Session().MessageReactionAdd(i.ChannelID, msg.ID, pollEmojis[n]); err != nil {
			a.Log().Warn("Error seeding poll reaction", slog.String(logging.KeyError, err.Error()))
		}
	}
	_ = respondEphemeral(a, i, "Poll created.")
}
