package entities

import (
	"fmt"
	"strings"

	"github.com/k1llbot/k1ll/pkg/custom"
)

// Ticket is one per-user support channel and its lifecycle state. A ticket is inserted with
// Open set to true once its channel has been provisioned, flipped to false exactly once on
// close, and retained forever after that. For any (GuildID, UserID) pair there is at most one
// row with Open set to true; the tickets collection carries a unique partial index enforcing
// this.
type Ticket struct {
	// GuildID is the ID of the guild that the ticket is in.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// UserID is the ID of the user that owns the ticket.
	UserID string `json:"user_id" bson:"user_id"`

	// Username is the username of the owner at creation time. Used for the channel name.
	Username string `json:"username" bson:"username"`

	// ChannelID is the ID of the ticket channel. This is a weak reference; the channel may be
	// deleted out-of-band without the ticket record being updated.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// Open is whether the ticket is currently open.
	Open bool `json:"open" bson:"open"`

	// CreatedAt is the time that the ticket was created.
	CreatedAt custom.Datetime `json:"created_at" bson:"created_at"`
}

// ChannelName is the name given to the ticket channel.
func (t *Ticket) ChannelName() string {
	return fmt.Sprintf("ticket-%s", strings.ToLower(t.Username))
}
