package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"prodbot/internal/config"
	"prodbot/internal/game"
)

// How long the "Calculating result..." message stays up before the coinflip
// outcome is shown.
const coinflipRevealDelay = 3 * time.Second

// Bot is the slash-command layer: it validates input, checks the invoker's
// permissions and hands validated arguments to the game service. All domain
// rules live in internal/game.
type Bot struct {
	sess *discordgo.Session
	svc  *game.Service
	pub  *game.Publisher
	cfg  config.BotConfig
	log  *slog.Logger
}

func NewBot(sess *discordgo.Session, svc *game.Service, pub *game.Publisher, cfg config.BotConfig, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bot{sess: sess, svc: svc, pub: pub, cfg: cfg, log: logger}
	sess.AddHandler(b.onInteraction)
	return b
}

// Start opens the gateway connection and registers the guild slash
// commands.
func (b *Bot) Start(ctx context.Context) error {
	b.sess.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers
	if err := b.sess.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	if _, err := b.sess.ApplicationCommandBulkOverwrite(b.cfg.AppID, b.cfg.GuildID, applicationCommands(), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("register slash commands: %w", err)
	}
	b.log.Info("slash commands registered", "guild_id", b.cfg.GuildID)
	return nil
}

func (b *Bot) Stop() error {
	return b.sess.Close()
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.onCommand(ctx, i)
	case discordgo.InteractionMessageComponent:
		b.onButton(ctx, i)
	}
}

func (b *Bot) onCommand(ctx context.Context, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name
	var err error
	switch name {
	case "myrank":
		err = b.handleMyRank(ctx, i)
	case "give":
		err = b.handlePointDelta(ctx, i, true)
	case "remove":
		err = b.handlePointDelta(ctx, i, false)
	case "set":
		err = b.handleSet(ctx, i)
	case "reset":
		err = b.handleReset(ctx, i)
	case "resetgame":
		err = b.handleResetGame(ctx, i)
	case "addtoken":
		err = b.handleTokenDelta(ctx, i, true)
	case "removetoken":
		err = b.handleTokenDelta(ctx, i, false)
	case "token":
		err = b.handleTokenBalance(ctx, i)
	case "top":
		err = b.handleTopTokens(ctx, i)
	case "registerwallet":
		err = b.handleWallet(ctx, i, true)
	case "editwallet":
		err = b.handleWallet(ctx, i, false)
	case "viewwallet":
		err = b.handleViewWallet(ctx, i)
	case "coinflip":
		err = b.handleCoinflip(ctx, i)
	case "help":
		err = b.handleHelp(i)
	default:
		return
	}
	if err != nil {
		b.log.Error("command failed", "command", name, "err", err)
		b.replyEphemeral(i, "An error occurred while processing your command. Please try again later.")
	}
}

func (b *Bot) handleMyRank(ctx context.Context, i *discordgo.InteractionCreate) error {
	userID, err := interactionUserID(i)
	if err != nil {
		return err
	}
	return b.sendRankEmbed(ctx, i, userID, displayNameOf(i))
}

func (b *Bot) handleViewWallet(ctx context.Context, i *discordgo.InteractionCreate) error {
	if !isAdmin(i) {
		b.replyEphemeral(i, "You do not have permission to use this command.")
		return nil
	}
	target, targetID, err := userOptionValue(b.sess, i)
	if err != nil {
		return err
	}
	return b.sendRankEmbed(ctx, i, targetID, target.Username)
}

func (b *Bot) sendRankEmbed(ctx context.Context, i *discordgo.InteractionCreate, userID int64, username string) error {
	stats, err := b.svc.UserStats(ctx, userID)
	if err != nil {
		return err
	}
	wallet, ok, err := b.svc.WalletAddress(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		wallet = "Not registered"
	}

	embed := &discordgo.MessageEmbed{
		Color: embedColor,
		Title: fmt.Sprintf("%s's Rank Details", username),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Wallet Address 🔐", Value: wallet},
			{Name: "Tokens 🪙", Value: strconv.FormatInt(stats.TokenBalance, 10), Inline: true},
		},
		Description: fmt.Sprintf(
			"**Current Position**: %s %s\n\n**Current Points**: %d 💰\n\n**Production Runs**: %d ♾️\n\n**Finished in Top 30**: %d 🎖️\n",
			stats.RankLabel(), rankEmoji(stats), stats.Score, stats.SeasonsPlayed, stats.Top30Finishes),
	}
	return b.replyEmbedEphemeral(i, embed)
}

func (b *Bot) handlePointDelta(ctx context.Context, i *discordgo.InteractionCreate, give bool) error {
	if !isAdmin(i) {
		b.replyEphemeral(i, "You do not have permission to use this command.")
		return nil
	}
	target, targetID, err := userOptionValue(b.sess, i)
	if err != nil {
		return err
	}
	amount := integerOptionValue(i, "amount")
	if amount <= 0 {
		b.replyEphemeral(i, "Please specify a valid amount greater than 0.")
		return nil
	}

	var content string
	if give {
		if _, err := b.svc.GivePoints(ctx, targetID, amount); err != nil {
			return err
		}
		content = fmt.Sprintf("Successfully gave %d Points 💰 to %s.", amount, target.Username)
	} else {
		if _, err := b.svc.TakePoints(ctx, targetID, amount); err != nil {
			return err
		}
		content = fmt.Sprintf("Successfully removed %d Points from %s.", amount, target.Username)
	}
	b.reply(i, content)
	b.publishLeaderboard(ctx)
	return nil
}

func (b *Bot) handleSet(ctx context.Context, i *discordgo.InteractionCreate) error {
	if !isAdmin(i) {
		b.replyEphemeral(i, "You do not have permission to use this command.")
		return nil
	}
	target, targetID, err := userOptionValue(b.sess, i)
	if err != nil {
		return err
	}
	score := integerOptionValue(i, "amount")
	if score < 0 {
		b.replyEphemeral(i, "Please specify a valid score greater than or equal to 0.")
		return nil
	}

	if err := b.svc.SetPoints(ctx, targetID, score); err != nil {
		if errors.Is(err, game.ErrScoreNotRaised) {
			b.replyEphemeral(i, fmt.Sprintf("The new Points score must be higher than the current score. %v.", err))
			return nil
		}
		return err
	}
	b.replyEmbed(i, &discordgo.MessageEmbed{
		Color:       embedColor,
		Title:       "Points Set",
		Description: fmt.Sprintf("Successfully set %s's new Points score to %d.", target.Username, score),
	})
	b.publishLeaderboard(ctx)
	return nil
}

func (b *Bot) handleTokenDelta(ctx context.Context, i *discordgo.InteractionCreate, give bool) error {
	if !isAdmin(i) {
		b.replyEphemeral(i, "You do not have permission to use this command.")
		return nil
	}
	target, targetID, err := userOptionValue(b.sess, i)
	if err != nil {
		return err
	}
	amount := integerOptionValue(i, "amount")
	if amount <= 0 {
		b.replyEphemeral(i, "Please specify a valid amount greater than 0.")
		return nil
	}

	var balance int64
	if give {
		balance, err = b.svc.GiveTokens(ctx, targetID, amount)
	} else {
		balance, err = b.svc.TakeTokens(ctx, targetID, amount)
	}
	if err != nil {
		return err
	}

	verb := "Added"
	preposition := "to"
	if !give {
		verb = "Removed"
		preposition = "from"
	}
	b.reply(i, fmt.Sprintf("%s %d Tokens 🪙 %s %s. New balance: **%d** 🪙 ($%.2f USD).",
		verb, amount, preposition, target.Username, balance, game.TokenValueUSD(balance, b.cfg.SandPriceUSD)))
	return nil
}

func (b *Bot) handleTokenBalance(ctx context.Context, i *discordgo.InteractionCreate) error {
	target, targetID, err := optionalUserOptionValue(b.sess, i)
	if err != nil {
		return err
	}
	balance, err := b.svc.TokenBalance(ctx, targetID)
	if err != nil {
		return err
	}
	b.replyEmbed(i, &discordgo.MessageEmbed{
		Color: embedColor,
		Description: fmt.Sprintf("%s has **%d** 🪙 Tokens ($%.2f USD)",
			target, balance, game.TokenValueUSD(balance, b.cfg.SandPriceUSD)),
	})
	return nil
}

func (b *Bot) handleTopTokens(ctx context.Context, i *discordgo.InteractionCreate) error {
	top, err := b.svc.TopTokenHolders(ctx, 20)
	if err != nil {
		return err
	}
	embed := &discordgo.MessageEmbed{
		Color:       embedColor,
		Title:       "Top 20 Token Holders",
		Description: "Here are the top 20 Token holders:",
	}
	for idx, entry := range top {
		name, err := b.displayName(ctx, entry.UserID)
		if err != nil {
			name = fmt.Sprintf("Unknown User (%d)", entry.UserID)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("%d. %s", idx+1, name),
			Value: fmt.Sprintf("%d Tokens", entry.Score),
		})
	}
	b.replyEmbed(i, embed)
	return nil
}

func (b *Bot) handleWallet(ctx context.Context, i *discordgo.InteractionCreate, register bool) error {
	userID, err := interactionUserID(i)
	if err != nil {
		return err
	}
	address := stringOptionValue(i, "wallet_address")

	if register {
		err = b.svc.RegisterWallet(ctx, userID, address)
	} else {
		err = b.svc.UpdateWalletAddress(ctx, userID, address)
	}
	switch {
	case err == nil:
	case errors.Is(err, game.ErrInvalidWallet),
		errors.Is(err, game.ErrWalletExists),
		errors.Is(err, game.ErrWalletNotFound):
		b.replyEphemeral(i, capitalize(err.Error())+".")
		return nil
	default:
		return err
	}

	if register {
		b.replyEphemeral(i, "Your wallet address has been registered.")
	} else {
		b.replyEphemeral(i, "Your wallet address has been updated.")
	}
	return nil
}

func (b *Bot) handleReset(ctx context.Context, i *discordgo.InteractionCreate) error {
	if !isAdmin(i) {
		b.replyEphemeral(i, "You do not have permission to use this command.")
		return nil
	}
	if err := b.svc.ResetScores(ctx); err != nil {
		return err
	}
	b.replyEphemeral(i, "The leaderboard has been reset.")
	return nil
}

func (b *Bot) handleResetGame(ctx context.Context, i *discordgo.InteractionCreate) error {
	if !isAdmin(i) {
		b.replyEphemeral(i, "You do not have permission to use this command.")
		return nil
	}
	if err := b.deferReply(i); err != nil {
		return err
	}

	summary, err := b.svc.SeasonReset(ctx, b.cfg.SeasonLength)
	if err != nil {
		// The interaction is already acknowledged; the error has to go
		// through the deferred reply.
		b.log.Error("season reset failed", "err", err)
		b.editReply(i, "An error occurred while resetting the game. Please check the bot logs.")
		return nil
	}
	if b.cfg.WinnersThreadID != "" {
		var sb strings.Builder
		fmt.Fprintf(&sb, "**Weekly Winners - Production Run %d:**", summary.PreviousRun)
		for idx, entry := range summary.TopFinishers {
			name, err := b.displayName(ctx, entry.UserID)
			if err != nil {
				name = fmt.Sprintf("Unknown User (%d)", entry.UserID)
			} else {
				name = game.EscapeMarkdown(name)
			}
			fmt.Fprintf(&sb, "\n%d. %s - %d 💰", idx+1, name, entry.Score)
		}
		if _, err := b.sess.ChannelMessageSend(b.cfg.WinnersThreadID, sb.String(), discordgo.WithContext(ctx)); err != nil {
			b.log.Warn("winners thread announcement failed", "thread_id", b.cfg.WinnersThreadID, "err", err)
		}
	}
	b.editReply(i, fmt.Sprintf("Game has been reset. Production run %d has started; the leaderboard resets <t:%d:R>.",
		summary.CurrentRun, summary.Deadline.Unix()))
	return nil
}

func (b *Bot) handleCoinflip(ctx context.Context, i *discordgo.InteractionCreate) error {
	challengerID, err := interactionUserID(i)
	if err != nil {
		return err
	}
	target, targetID, err := userOptionValue(b.sess, i)
	if err != nil {
		return err
	}
	bet := integerOptionValue(i, "amount")

	challenge, err := b.svc.ChallengeCoinflip(ctx, challengerID, targetID, bet)
	switch {
	case err == nil:
	case errors.Is(err, game.ErrInvalidAmount),
		errors.Is(err, game.ErrSelfChallenge),
		errors.Is(err, game.ErrChallengePending),
		errors.Is(err, game.ErrChallengerBusy),
		errors.Is(err, game.ErrInsufficientTokens):
		b.replyEphemeral(i, capitalize(err.Error())+".")
		return nil
	default:
		return err
	}

	content := fmt.Sprintf("%s, %s has challenged you to a coinflip for **%d** Tokens 🪙!",
		target.Mention(), displayNameOf(i), challenge.Bet)
	return b.sess.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.Button{Label: "Accept", Style: discordgo.SuccessButton, CustomID: buttonAcceptCoinflip},
					discordgo.Button{Label: "Deny", Style: discordgo.DangerButton, CustomID: buttonDenyCoinflip},
					discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: buttonCancelCoinflip},
				}},
			},
		},
	})
}

func (b *Bot) handleHelp(i *discordgo.InteractionCreate) error {
	embed := &discordgo.MessageEmbed{
		Color:       embedColor,
		Title:       "Available Commands",
		Description: "Here are all the available commands:",
	}
	for _, c := range commandSummaries {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "/" + c.Name,
			Value: c.Description,
		})
	}
	return b.replyEmbedEphemeral(i, embed)
}

func (b *Bot) onButton(ctx context.Context, i *discordgo.InteractionCreate) {
	userID, err := interactionUserID(i)
	if err != nil {
		b.log.Error("button press without parsable user id", "err", err)
		return
	}

	switch i.MessageComponentData().CustomID {
	case buttonAcceptCoinflip:
		b.onAcceptCoinflip(ctx, i, userID)
	case buttonDenyCoinflip:
		b.onDenyCoinflip(ctx, i, userID)
	case buttonCancelCoinflip:
		b.onCancelCoinflip(ctx, i, userID)
	}
}

func (b *Bot) onAcceptCoinflip(ctx context.Context, i *discordgo.InteractionCreate, userID int64) {
	result, err := b.svc.AcceptCoinflip(ctx, userID)
	if errors.Is(err, game.ErrNoChallenge) {
		b.replyEphemeral(i, "You are not the challenged user.")
		return
	}
	if err != nil {
		b.log.Error("coinflip settlement failed", "err", err)
		b.replyEphemeral(i, "An error occurred while resolving the coinflip.")
		return
	}

	if err := b.sess.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    "Calculating result...",
			Components: []discordgo.MessageComponent{},
		},
	}); err != nil {
		b.log.Error("coinflip update failed", "err", err)
		return
	}

	side := "Heads"
	if !result.Heads {
		side = "Tails"
	}
	winnerName, err := b.displayName(ctx, result.WinnerID)
	if err != nil {
		winnerName = fmt.Sprintf("<@%d>", result.WinnerID)
	}
	resultEmbed := &discordgo.MessageEmbed{
		Color:       embedColor,
		Description: fmt.Sprintf("%s! %s wins %d Tokens!", side, winnerName, result.Bet),
	}

	time.AfterFunc(coinflipRevealDelay, func() {
		content := "Cha ching!"
		if _, err := b.sess.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Content: &content,
			Embeds:  &[]*discordgo.MessageEmbed{resultEmbed},
		}); err != nil {
			b.log.Error("coinflip result edit failed", "err", err)
		}
	})
}

func (b *Bot) onDenyCoinflip(ctx context.Context, i *discordgo.InteractionCreate, userID int64) {
	challenge, err := b.svc.DenyCoinflip(userID)
	if err != nil {
		b.replyEphemeral(i, "You are not the challenged user.")
		return
	}
	if err := b.sess.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{Components: []discordgo.MessageComponent{}},
	}); err != nil {
		b.log.Error("coinflip update failed", "err", err)
		return
	}
	embed := &discordgo.MessageEmbed{
		Color:       0xff0000,
		Description: fmt.Sprintf("%s has refused to participate in a coinflip for %d Tokens.", mentionOf(i), challenge.Bet),
	}
	if _, err := b.sess.ChannelMessageSendEmbed(i.ChannelID, embed, discordgo.WithContext(ctx)); err != nil {
		b.log.Error("refusal notification failed", "err", err)
	}
}

func (b *Bot) onCancelCoinflip(ctx context.Context, i *discordgo.InteractionCreate, userID int64) {
	challenge, err := b.svc.CancelCoinflip(userID)
	if err != nil {
		b.replyEphemeral(i, "You are not part of this coinflip challenge.")
		return
	}
	if err := b.sess.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{Components: []discordgo.MessageComponent{}},
	}); err != nil {
		b.log.Error("coinflip update failed", "err", err)
		return
	}
	embed := &discordgo.MessageEmbed{
		Color:       embedColor,
		Description: fmt.Sprintf("🛑 %s cancelled the %d Tokens coin flip.", mentionOf(i), challenge.Bet),
	}
	if _, err := b.sess.ChannelMessageSendEmbed(i.ChannelID, embed, discordgo.WithContext(ctx)); err != nil {
		b.log.Error("cancellation notification failed", "err", err)
	}
}

func (b *Bot) publishLeaderboard(ctx context.Context) {
	if err := b.pub.Publish(ctx); err != nil {
		b.log.Error("leaderboard publish failed", "err", err)
	}
}

func rankEmoji(stats game.RankDetails) string {
	if !stats.Ranked {
		return ""
	}
	switch stats.Rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return "🔹"
	}
}

func (b *Bot) displayName(ctx context.Context, userID int64) (string, error) {
	user, err := b.sess.User(strconv.FormatInt(userID, 10), discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return user.Username, nil
}
