package discord

import "github.com/bwmarrin/discordgo"

const (
	buttonAcceptCoinflip = "accept_coinflip"
	buttonDenyCoinflip   = "deny_coinflip"
	buttonCancelCoinflip = "cancel_coinflip"
)

type commandHelp struct {
	Name        string
	Description string
}

var commandSummaries = []commandHelp{
	{"myrank", "View your rank details."},
	{"give", "Give Points to a user (admin)."},
	{"remove", "Remove Points from a user (admin)."},
	{"set", "Set a new Points score for a user (admin)."},
	{"reset", "Reset the leaderboard scores to 0 (admin)."},
	{"resetgame", "Start the next production run (admin)."},
	{"addtoken", "Add Tokens to a user (admin)."},
	{"removetoken", "Remove Tokens from a user (admin)."},
	{"token", "Check a user's Token balance."},
	{"top", "Display the top 20 Token holders."},
	{"registerwallet", "Register your wallet address."},
	{"editwallet", "Edit your registered wallet address."},
	{"viewwallet", "View a user's wallet and rank details (admin)."},
	{"coinflip", "Challenge a user to a Token coinflip."},
	{"help", "List all available commands."},
}

func applicationCommands() []*discordgo.ApplicationCommand {
	userOption := func(desc string) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: desc,
			Required:    true,
		}
	}
	amountOption := func(desc string) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "amount",
			Description: desc,
			Required:    true,
		}
	}
	walletOption := func(desc string) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "wallet_address",
			Description: desc,
			Required:    true,
		}
	}

	return []*discordgo.ApplicationCommand{
		{Name: "myrank", Description: "View your rank details."},
		{Name: "give", Description: "Give Points to a user.", Options: []*discordgo.ApplicationCommandOption{
			userOption("The user to give Points to."),
			amountOption("The amount of Points to give."),
		}},
		{Name: "remove", Description: "Remove Points from a user.", Options: []*discordgo.ApplicationCommandOption{
			userOption("The user to remove Points from."),
			amountOption("The amount of Points to remove."),
		}},
		{Name: "set", Description: "Set a new Points score for a user.", Options: []*discordgo.ApplicationCommandOption{
			userOption("The user to set the score for."),
			amountOption("The new score to set."),
		}},
		{Name: "reset", Description: "Reset the leaderboard scores to 0."},
		{Name: "resetgame", Description: "Reset the game, including updating production runs and leaderboard."},
		{Name: "addtoken", Description: "Add Tokens to a user.", Options: []*discordgo.ApplicationCommandOption{
			userOption("The user to add Tokens to."),
			amountOption("The amount of Tokens to add."),
		}},
		{Name: "removetoken", Description: "Remove Tokens from a user.", Options: []*discordgo.ApplicationCommandOption{
			userOption("The user to remove Tokens from."),
			amountOption("The amount of Tokens to remove."),
		}},
		{Name: "token", Description: "Check a user's Token balance.", Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "The user to check (defaults to you).",
				Required:    false,
			},
		}},
		{Name: "top", Description: "Display the top 20 Token holders."},
		{Name: "registerwallet", Description: "Register your cryptocurrency wallet address.", Options: []*discordgo.ApplicationCommandOption{
			walletOption("Your 0x wallet address."),
		}},
		{Name: "editwallet", Description: "Edit your registered cryptocurrency wallet address.", Options: []*discordgo.ApplicationCommandOption{
			walletOption("Your new 0x wallet address."),
		}},
		{Name: "viewwallet", Description: "View the wallet address and rank details of a user.", Options: []*discordgo.ApplicationCommandOption{
			userOption("The user whose wallet address you want to view."),
		}},
		{Name: "coinflip", Description: "Challenge a user to a Token coinflip.", Options: []*discordgo.ApplicationCommandOption{
			userOption("The user to challenge."),
			amountOption("The amount of Tokens to wager."),
		}},
		{Name: "help", Description: "List all available commands."},
	}
}
