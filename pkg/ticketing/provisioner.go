package ticketing

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jacobbrewer1/discordgo"
)

// ChannelAccess is the permission set granted to a ticket member.
const ChannelAccess = discordgo.PermissionAllText

// ChannelProvisioner creates and destroys the external channel for a ticket and manages its
// access list. It is platform-facing; the registry never calls it directly, the control
// surface drives both.
type ChannelProvisioner interface {
	// Provision creates a ticket channel under the given category, visible only to the
	// requester, staff (via role overrides on the category) and the bot itself. The bot's own
	// Manage Channels and Manage Roles permissions are checked before anything is created;
	// Provision never partially creates.
	Provision(ctx context.Context, guildID, requesterID, categoryID, name string) (string, error)

	// GrantAccess adds a member to a ticket channel. Idempotent.
	GrantAccess(ctx context.Context, channelID, userID string) error

	// RevokeAccess removes a member's overwrite from a ticket channel. Idempotent.
	RevokeAccess(ctx context.Context, channelID, userID string) error

	// Teardown deletes a provisioned channel. Used as the compensating action when the open
	// ticket insert is rejected as a duplicate after the channel was already created.
	Teardown(ctx context.Context, channelID string) error
}

type sessionProvisioner struct {
	// s is the discord session.
	s *discordgo.Session
}

// NewChannelProvisioner creates a ChannelProvisioner backed by a discord session.
func NewChannelProvisioner(s *discordgo.Session) ChannelProvisioner {
	return &sessionProvisioner{
		s: s,
	}
}

// botGuildPermissions computes the bot's own guild-level permissions from its roles.
func (p *sessionProvisioner) botGuildPermissions(guildID string) (int64, error) {
	member, err := p.s.GuildMember(guildID, p.s.State.User.ID)
	if err != nil {
		return 0, fmt.Errorf("error getting bot member: %w", err)
	}

	roles, err := p.s.GuildRoles(guildID)
	if err != nil {
		return 0, fmt.Errorf("error getting guild roles: %w", err)
	}

	var perms int64
	for _, role := range roles {
		// The @everyone role shares its ID with the guild and applies to every member.
		if role.ID == guildID {
			perms |= role.Permissions
			continue
		}
		for _, id := range member.Roles {
			if id == role.ID {
				perms |= role.Permissions
				break
			}
		}
	}
	return perms, nil
}

func (p *sessionProvisioner) Provision(_ context.Context, guildID, requesterID, categoryID, name string) (string, error) {
	// Capability pre-check. This has to happen before any channel is created so a failure
	// never leaves a half-provisioned ticket.
	perms, err := p.botGuildPermissions(guildID)
	if err != nil {
		return "", fmt.Errorf("error checking bot permissions: %w", err)
	}
	if perms&discordgo.PermissionAdministrator == 0 &&
		(perms&discordgo.PermissionManageChannels == 0 || perms&discordgo.PermissionManageRoles == 0) {
		return "", ErrInsufficientPermissions
	}

	category, err := p.s.Channel(categoryID)
	if err != nil {
		er := new(discordgo.RESTError)
		if errors.As(err, &er) && (er.Message.Code == discordgo.ErrCodeUnknownChannel || er.Message.Code == discordgo.ErrCodeGeneralError) {
			return "", ErrInvalidCategory
		}
		return "", fmt.Errorf("error getting category: %w", err)
	}
	if category.Type != discordgo.ChannelTypeGuildCategory {
		return "", ErrInvalidCategory
	}

	channel, err := p.s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:  name,
		Type:  discordgo.ChannelTypeGuildText,
		Topic: fmt.Sprintf("Ticket opened by <@%s>", requesterID),
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			// Deny @everyone from seeing the ticket.
			{
				ID:    guildID,
				Type:  discordgo.PermissionOverwriteTypeRole,
				Allow: 0,
				Deny:  discordgo.PermissionAll,
			},
			// The requester can see and use the ticket.
			{
				ID:    requesterID,
				Type:  discordgo.PermissionOverwriteTypeMember,
				Allow: ChannelAccess,
				Deny:  discordgo.PermissionMentionEveryone,
			},
			// The bot needs to manage the channel it just created.
			{
				ID:    p.s.State.User.ID,
				Type:  discordgo.PermissionOverwriteTypeMember,
				Allow: ChannelAccess | discordgo.PermissionManageChannels,
				Deny:  0,
			},
		},
		ParentID: category.ID,
	})
	if err != nil {
		return "", fmt.Errorf("error creating ticket channel: %w", err)
	}
	return channel.ID, nil
}

func (p *sessionProvisioner) GrantAccess(_ context.Context, channelID, userID string) error {
	err := p.s.ChannelPermissionSet(channelID, userID, discordgo.PermissionOverwriteTypeMember,
		ChannelAccess, discordgo.PermissionMentionEveryone)
	if err != nil {
		return fmt.Errorf("error granting channel access: %w", err)
	}
	return nil
}

func (p *sessionProvisioner) RevokeAccess(_ context.Context, channelID, userID string) error {
	if err := p.s.ChannelPermissionDelete(channelID, userID); err != nil {
		return fmt.Errorf("error revoking channel access: %w", err)
	}
	return nil
}

func (p *sessionProvisioner) Teardown(_ context.Context, channelID string) error {
	if _, err := p.s.ChannelDelete(channelID); err != nil {
		return fmt.Errorf("error deleting channel: %w", err)
	}
	return nil
}
