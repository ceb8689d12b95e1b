package entities

import "github.com/k1llbot/k1ll/pkg/custom"

// Warn is a single warning issued against a member.
type Warn struct {
	// GuildID is the ID of the guild that the warning was issued in.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// UserID is the ID of the warned user.
	UserID string `json:"user_id" bson:"user_id"`

	// ModeratorID is the ID of the staff member that issued the warning.
	ModeratorID string `json:"moderator_id" bson:"moderator_id"`

	// Reason is the reason given for the warning.
	Reason string `json:"reason" bson:"reason"`

	// Timestamp is the time that the warning was issued.
	Timestamp custom.Datetime `json:"timestamp" bson:"timestamp"`
}
