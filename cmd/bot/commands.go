package main

import (
	"errors"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/k1llbot/k1ll/pkg/messages"
)

// slashCommands is every slash command the bot registers per guild.
func slashCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		setupCmd,
		ticketPanelCmd,
		ticketCmd,
		banCmd,
		unbanCmd,
		kickCmd,
		muteCmd,
		unmuteCmd,
		clearCmd,
		slowmodeCmd,
		warnCmd,
		warningsCmd,
		clearWarnsCmd,
		rankCmd,
		leaderboardCmd,
		balanceCmd,
		dailyCmd,
		payCmd,
		shopCmd,
		buyCmd,
		inventoryCmd,
		roleSetupCmd,
		helpCmd,
		pingCmd,
		serverInfoCmd,
		userInfoCmd,
		suggestCmd,
		pollCmd,
	}
}

// slashControllers routes each slash command to the controller that authorises it.
func slashControllers() map[string]commandController {
	return map[string]commandController{
		SetupCmdName:       setupController,
		TicketPanelCmdName: ticketPanelController,
		TicketCmdName:      ticketController,

		BanCmdName:        staffOnly(banHandler),
		UnbanCmdName:      staffOnly(unbanHandler),
		KickCmdName:       staffOnly(kickHandler),
		MuteCmdName:       staffOnly(muteHandler),
		UnmuteCmdName:     staffOnly(unmuteHandler),
		ClearCmdName:      staffOnly(clearHandler),
		SlowmodeCmdName:   staffOnly(slowmodeHandler),
		WarnCmdName:       staffOnly(warnHandler),
		WarningsCmdName:   staffOnly(warningsHandler),
		ClearWarnsCmdName: staffOnly(clearWarnsHandler),
		RoleSetupCmdName:  roleSetupController,

		RankCmdName:        open(rankHandler),
		LeaderboardCmdName: open(leaderboardHandler),
		BalanceCmdName:     open(balanceHandler),
		DailyCmdName:       open(dailyHandler),
		PayCmdName:         open(payHandler),
		ShopCmdName:        open(shopHandler),
		BuyCmdName:         open(buyHandler),
		InventoryCmdName:   open(inventoryHandler),
		HelpCmdName:        open(helpHandler),
		PingCmdName:        open(pingHandler),
		ServerInfoCmdName:  open(serverInfoHandler),
		UserInfoCmdName:    open(userInfoHandler),
		SuggestCmdName:     open(suggestHandler),
		PollCmdName:        open(pollHandler),
	}
}

// staffOnly wraps a processor behind the Manage Server permission.
func staffOnly(p commandProcessor) commandController {
	return func(_ IApp, i *discordgo.InteractionCreate) (commandProcessor, error) {
		if !isStaff(i) {
			return nil, errors.New(messages.ErrUserNotStaff)
		}
		return p, nil
	}
}

// open exposes a processor to every member.
func open(p commandProcessor) commandController {
	return func(_ IApp, _ *discordgo.InteractionCreate) (commandProcessor, error) {
		return p, nil
	}
}
