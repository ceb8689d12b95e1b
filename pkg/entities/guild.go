package entities

// Guild is the configuration for a guild. It is created lazily on the first configuration
// write and only ever upserted, never deleted.
type Guild struct {
	// ID is the ID of the guild.
	ID string `json:"id" bson:"id"`

	// LogChannelID is the ID of the channel that moderation logs are sent to.
	LogChannelID string `json:"log_channel_id" bson:"log_channel_id"`

	// WelcomeChannelID is the ID of the channel that welcome messages are sent to.
	WelcomeChannelID string `json:"welcome_channel_id" bson:"welcome_channel_id"`

	// AutoroleID is the ID of the role given to new members.
	AutoroleID string `json:"autorole_id" bson:"autorole_id"`

	// TicketCategoryID is the ID of the category that ticket channels are created under.
	TicketCategoryID string `json:"ticket_category_id" bson:"ticket_category_id"`

	// AntiLinks is whether messages containing links are deleted.
	AntiLinks bool `json:"anti_links" bson:"anti_links"`

	// TicketPanelChannelID is the ID of the channel that holds the ticket panel message.
	TicketPanelChannelID string `json:"ticket_panel_channel_id" bson:"ticket_panel_channel_id"`

	// TicketPanelMessageID is the ID of the ticket panel message.
	TicketPanelMessageID string `json:"ticket_panel_message_id" bson:"ticket_panel_message_id"`
}
