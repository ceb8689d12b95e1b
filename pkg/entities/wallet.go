package entities

import "github.com/k1llbot/k1ll/pkg/custom"

// Wallet is the economy record for a member of a guild.
type Wallet struct {
	// GuildID is the ID of the guild.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// UserID is the ID of the member.
	UserID string `json:"user_id" bson:"user_id"`

	// Balance is the coin balance.
	Balance int64 `json:"balance" bson:"balance"`

	// LastDaily is the last time the daily reward was collected.
	LastDaily custom.Datetime `json:"last_daily" bson:"last_daily"`

	// Inventory maps item names to owned quantities.
	Inventory map[string]int `json:"inventory" bson:"inventory"`
}

// CanCollectDaily reports whether the daily reward has not yet been collected on the given
// UTC day.
func (w *Wallet) CanCollectDaily(todayUTC custom.Datetime) bool {
	last := w.LastDaily.Time().UTC()
	if last.IsZero() {
		return true
	}
	today := todayUTC.Time().UTC()
	y1, m1, d1 := last.Date()
	y2, m2, d2 := today.Date()
	return y1 != y2 || m1 != m2 || d1 != d2
}

// AddItem increments the owned quantity of an item.
func (w *Wallet) AddItem(item string) {
	if w.Inventory == nil {
		w.Inventory = make(map[string]int)
	}
	w.Inventory[item]++
}
