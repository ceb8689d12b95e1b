package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/k1llbot/k1ll/pkg/custom"
	"github.com/k1llbot/k1ll/pkg/logging"
)

const (
	BalanceCmdName   = "balance"
	DailyCmdName     = "daily"
	PayCmdName       = "pay"
	ShopCmdName      = "shop"
	BuyCmdName       = "buy"
	InventoryCmdName = "inventory"
)

// dailyAmount is the coin reward for /daily, collectable once per UTC day.
const dailyAmount = 250

// shopItems maps purchasable item names to their price.
var shopItems = map[string]int64{
	"vip":       1500,
	"nickcolor": 800,
	"crate":     400,
}

var (
	balanceCmd = &discordgo.ApplicationCommand{
		Name:        BalanceCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Shows a member's coin balance.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "member",
				Type:        discordgo.ApplicationCommandOptionUser,
				Description: "The member to look up. Defaults to you.",
			},
		},
	}

	dailyCmd = &discordgo.ApplicationCommand{
		Name:        DailyCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Collects your daily coin reward.",
	}

	payCmd = &discordgo.ApplicationCommand{
		Name:        PayCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Transfers coins to another member.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "member",
				Type:        discordgo.ApplicationCommandOptionUser,
				Description: "The member to pay.",
				Required:    true,
			},
			{
				Name:        "amount",
				Type:        discordgo.ApplicationCommandOptionInteger,
				Description: "How many coins to transfer.",
				Required:    true,
			},
		},
	}

	shopCmd = &discordgo.ApplicationCommand{
		Name:        ShopCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Lists the items in the shop.",
	}

	buyCmd = &discordgo.ApplicationCommand{
		Name:        BuyCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Buys an item from the shop.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "item",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "The name of the item to buy.",
				Required:    true,
			},
		},
	}

	inventoryCmd = &discordgo.ApplicationCommand{
		Name:        InventoryCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Shows a member's items.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "member",
				Type:        discordgo.ApplicationCommandOptionUser,
				Description: "The member to look up. Defaults to you.",
			},
		},
	}
)

func balanceHandler(a IApp, i *discordgo.InteractionCreate) {
	target := i.Member.User
	if opt, ok := optionMap(i.ApplicationCommandData().Options)["member"]; ok {
		target = opt.UserValue(a.Session())
	}

	wallet, err := a.WalletDal().GetWallet(context.Background(), i.GuildID, target.ID)
	if err != nil {
		a.Log().Error("Error getting wallet",
			slog.String(logging.KeyUserID, target.ID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}
	_ = respondMessage(a, i, fmt.Sprintf("<@%s> has **%d** coins.", target.ID, wallet.Balance))
}

func dailyHandler(a IApp, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	wallet, err := a.WalletDal().GetWallet(ctx, i.GuildID, i.Member.User.ID)
	if err != nil {
		a.Log().Error("Error getting wallet",
			slog.String(logging.KeyUserID, i.Member.User.ID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}

	if !wallet.CanCollectDaily(custom.Now()) {
		_ = respondEphemeral(a, i, "You already collected your daily reward today. Come back tomorrow!")
		return
	}

	wallet.Balance += dailyAmount
	wallet.LastDaily = custom.Now()
	if err := a.WalletDal().SaveWallet(ctx, wallet); err != nil {
		a.Log().Error("Error saving wallet",
			slog.String(logging.KeyUserID, i.Member.User.ID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}
	_ = respondMessage(a, i, fmt.Sprintf("You collected **%d** coins!", dailyAmount))
}

func payHandler(a IApp, i *discordgo.InteractionCreate) {
	opts := optionMap(i.ApplicationCommandData().Options)
	target := opts["member"].UserValue(a.Session())
	amount := opts["amount"].IntValue()

	if amount <= 0 {
		_ = respondEphemeral(a, i, "The amount has to be positive.")
		return
	}
	if target.ID == i.Member.User.ID {
		_ = respondEphemeral(a, i, "You cannot pay yourself.")
		return
	}

	ctx := context.Background()

	payer, err := a.WalletDal().GetWallet(ctx, i.GuildID, i.Member.User.ID)
	if err != nil {
		a.Log().Error("Error getting wallet",
			slog.String(logging.KeyUserID, i.Member.User.ID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}
	if payer.Balance < amount {
		_ = respondEphemeral(a, i, "You do not have enough coins.")
		return
	}

	payee, err := a.WalletDal().GetWallet(ctx, i.GuildID, target.ID)
	if err != nil {
		a.Log().Error("Error getting wallet",
			slog.String(logging.KeyUserID, target.ID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}

	payer.Balance -= amount
	payee.Balance += amount

	if err := a.WalletDal().SaveWallet(ctx, payer); err != nil {
		a.Log().Error("Error saving wallet",
			slog.String(logging.KeyUserID, payer.UserID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}
	if err := a.WalletDal().SaveWallet(ctx, payee); err != nil {
		a.Log().Error("Error saving wallet",
			slog.String(logging.KeyUserID, payee.UserID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}
	_ = respondMessage(a, i, fmt.Sprintf("Paid **%d** coins to <@%s>.", amount, target.ID))
}

func shopHandler(a IApp, i *discordgo.InteractionCreate) {
	names := make([]string, 0, len(shopItems))
	for name := range shopItems {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("- **%s** - %d coins", name, shopItems[name]))
	}
	_ = respondMessage(a, i, "**Shop**\n"+strings.Join(lines, "\n"))
}

func buyHandler(a IApp, i *discordgo.InteractionCreate) {
	item := strings.ToLower(optionMap(i.ApplicationCommandData().Options)["item"].StringValue())

	price, ok := shopItems[item]
	if !ok {
		_ = respondEphemeral(a, i, "That item does not exist.")
		return
	}

	ctx := context.Background()

	wallet, err := a.WalletDal().GetWallet(ctx, i.GuildID, i.Member.User.ID)
	if err != nil {
		a.Log().Error("Error getting wallet",
			slog.String(logging.KeyUserID, i.Member.User.ID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}
	if wallet.Balance < price {
		_ = respondEphemeral(a, i, "You do not have enough coins.")
		return
	}

	wallet.Balance -= price
	wallet.AddItem(item)

	if err := a.WalletDal().SaveWallet(ctx, wallet); err != nil {
		a.Log().Error("Error saving wallet",
			slog.String(logging.KeyUserID, i.Member.User.ID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}
	_ = respondMessage(a, i, fmt.Sprintf("You bought **%s** for %d coins.", item, price))
}

func inventoryHandler(a IApp, i *discordgo.InteractionCreate) {
	target := i.Member.User
	if opt, ok := optionMap(i.ApplicationCommandData().Options)["member"]; ok {
		target = opt.UserValue(a.Session())
	}

	wallet, err := a.WalletDal().GetWallet(context.Background(), i.GuildID, target.ID)
	if err != nil {
		a.Log().Error("Error getting wallet",
			slog.String(logging.KeyUserID, target.ID),
			slog.String(logging.KeyError, err.Error()),
		)
		_ = respondSlashError(a, i)
		return
	}

	if len(wallet.Inventory) == 0 {
		_ = respondMessage(a, i, "The inventory is empty.")
		return
	}

	items := make([]string, 0, len(wallet.Inventory))
	for name := range wallet.Inventory {
		items = append(items, name)
	}
	sort.Strings(items)

	lines := make([]string, 0, len(items))
	for _, name := range items {
		lines = append(lines, fmt.Sprintf("- %s x%d", name, wallet.Inventory[name]))
	}
	_ = respondMessage(a, i, "**Inventory**\n"+strings.Join(lines, "\n"))
}
