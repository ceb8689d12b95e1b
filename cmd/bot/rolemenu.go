package main

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/k1llbot/k1ll/pkg/logging"
	"github.com/k1llbot/k1ll/pkg/messages"
)

const (
	// RoleMenuSelectID is the ID for the role select menu. Stable across restarts so menus
	// posted by previous processes keep working.
	RoleMenuSelectID = "k1ll_rolemenu"

	// RoleSetupCmdName is the command for posting a role menu.
	RoleSetupCmdName = "rolesetup"
)

// roleMenuLimit is the platform cap on select menu options.
const roleMenuLimit = 25

var roleSetupCmd = &discordgo.ApplicationCommand{
	Name:        RoleSetupCmdName,
	Type:        discordgo.ChatApplicationCommand,
	Description: "Posts a self-assign role menu in the current channel.",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Name:        "roles",
			Type:        discordgo.ApplicationCommandOptionString,
			Description: "The roles to offer, as mentions or IDs separated by spaces. Up to 25.",
			Required:    true,
		},
	},
}

func roleSetupController(_ IApp, i *discordgo.InteractionCreate) (commandProcessor, error) {
	if !isStaff(i) {
		return nil, errors.New(messages.ErrUserNotStaff)
	}
	return roleSetupHandler, nil
}

// parseRoleTokens extracts role IDs from a string of role mentions and raw IDs.
func parseRoleTokens(raw string) []string {
	cleaned := strings.NewReplacer("<@&", "", ">", "").Replace(raw)

	var ids []string
	for _, token := range strings.Fields(cleaned) {
		if token == "" {
			continue
		}
		digits := true
		for _, r := range token {
			if r < '0' || r > '9' {
				digits = false
				break
			}
		}
		if digits {
			ids = append(ids, token)
		}
	}
	return ids
}

func roleSetupHandler(a IApp, i *discordgo.InteractionCreate) {
	raw := optionMap(i.ApplicationCommandData().Options)["roles"].StringValue()
	wanted := parseRoleTokens(raw)

	roles, err := a.Session().GuildRoles(i.GuildID)
	if err != nil {
		a.Log().Error("Error getting guild roles",
			slog.String(logging.KeyGuildID, i.GuildID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}

	byID := make(map[string]*discordgo.Role, len(roles))
	for _, r := range roles {
		byID[r.ID] = r
	}

	var options []discordgo.SelectMenuOption
	for _, id := range wanted {
		role, ok := byID[id]
		if !ok || role.Managed {
			continue
		}
		options = append(options, discordgo.SelectMenuOption{
			Label: role.Name,
			Value: role.ID,
		})
		if len(options) == roleMenuLimit {
			break
		}
	}

	if len(options) == 0 {
		_ = respondEphemeral(a, i, "Provide valid roles as mentions or IDs.")
		return
	}

	minValues := 0
	menu := discordgo.SelectMenu{
		CustomID:    RoleMenuSelectID,
		Placeholder: "Pick your roles",
		MinValues:   &minValues,
		MaxValues:   len(options),
		Options:     options,
	}

	if _, err := a.Session().ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{
		Content: "Select your roles:",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{menu},
			},
		},
	}); err != nil {
		a.Log().Error("Error sending role menu",
			slog.String(logging.KeyChannelID, i.ChannelID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}

	_ = respondEphemeral(a, i, "Role menu posted.")
}

// roleMenuHandler syncs the member's roles with the menu selection: every role offered by the
// menu is removed first, then the chosen subset is added back, so deselecting works.
func roleMenuHandler(a IApp, i *discordgo.InteractionCreate) {
	offered := roleMenuOptions(i.Message)
	if len(offered) == 0 {
		a.Log().Error("Role menu interaction with no readable options",
			slog.String(logging.KeyChannelID, i.ChannelID),
		)
		_ = respondSlashError(a, i)
		return
	}

	chosen := make(map[string]struct{})
	for _, v := range i.MessageComponentData().Values {
		chosen[v] = struct{}{}
	}

	userID := i.Member.User.ID
	for _, roleID := range offered {
		if _, ok := chosen[roleID]; ok {
			if err := a.Session().GuildMemberRoleAdd(i.GuildID, userID, roleID); err != nil {
				a.Log().Error("Error adding role",
					slog.String(logging.KeyUserID, userID),
					slog.String(logging.KeyError, err.Error()),
				)
			}
			continue
		}
		if !hasRole(i.Member, roleID) {
			continue
		}
		if err := a.Session().GuildMemberRoleRemove(i.GuildID, userID, roleID); err != nil {
			a.Log().Error("Error removing role",
				slog.String(logging.KeyUserID, userID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}

	_ = respondEphemeral(a, i, "Roles updated!")
}

// roleMenuOptions reads the role IDs offered by the select menu on a message.
func roleMenuOptions(msg *discordgo.Message) []string {
	if msg == nil {
		return nil
	}
	for _, comp := range msg.Components {
		row, ok := comp.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			menu, ok := inner.(*discordgo.SelectMenu)
			if !ok || menu.CustomID != RoleMenuSelectID {
				continue
			}
			ids := make([]string, 0, len(menu.Options))
			for _, opt := range menu.Options {
				ids = append(ids, opt.Value)
			}
			return ids
		}
	}
	return nil
}

