package entities

// XPProfile is the experience record for a member of a guild.
type XPProfile struct {
	// GuildID is the ID of the guild.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// UserID is the ID of the member.
	UserID string `json:"user_id" bson:"user_id"`

	// XP is the experience accumulated towards the next level.
	XP int `json:"xp" bson:"xp"`

	// Level is the current level.
	Level int `json:"level" bson:"level"`
}

// NextLevelXP is the experience required to advance from the current level.
func (p *XPProfile) NextLevelXP() int {
	return (p.Level + 1) * 100
}

// Award adds the given experience and reports whether the member levelled up. Residual
// experience rolls over into the new level.
func (p *XPProfile) Award(xp int) bool {
	p.XP += xp
	if p.XP < p.NextLevelXP() {
		return false
	}
	p.XP -= p.NextLevelXP()
	p.Level++
	return true
}
