package discord

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

// interactionUserID parses the invoking user's snowflake. Interactions carry
// the user under Member in guilds and under User in DMs.
func interactionUserID(i *discordgo.InteractionCreate) (int64, error) {
	user := interactionUser(i)
	if user == nil {
		return 0, fmt.Errorf("interaction %s has no user", i.ID)
	}
	id, err := strconv.ParseInt(user.ID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse user id %q: %w", user.ID, err)
	}
	return id, nil
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

func displayNameOf(i *discordgo.InteractionCreate) string {
	if user := interactionUser(i); user != nil {
		return user.Username
	}
	return "Unknown User"
}

func mentionOf(i *discordgo.InteractionCreate) string {
	if user := interactionUser(i); user != nil {
		return user.Mention()
	}
	return "Unknown User"
}

func isAdmin(i *discordgo.InteractionCreate) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

// userOptionValue resolves the required "user" option to the target user and
// their numeric id.
func userOptionValue(sess *discordgo.Session, i *discordgo.InteractionCreate) (*discordgo.User, int64, error) {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name != "user" || opt.Type != discordgo.ApplicationCommandOptionUser {
			continue
		}
		user := opt.UserValue(sess)
		if user == nil {
			break
		}
		id, err := strconv.ParseInt(user.ID, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("parse user id %q: %w", user.ID, err)
		}
		return user, id, nil
	}
	return nil, 0, fmt.Errorf("interaction %s is missing the user option", i.ID)
}

// optionalUserOptionValue is userOptionValue falling back to the invoker.
func optionalUserOptionValue(sess *discordgo.Session, i *discordgo.InteractionCreate) (string, int64, error) {
	if user, id, err := userOptionValue(sess, i); err == nil {
		return user.Username, id, nil
	}
	id, err := interactionUserID(i)
	if err != nil {
		return "", 0, err
	}
	return displayNameOf(i), id, nil
}

func integerOptionValue(i *discordgo.InteractionCreate, name string) int64 {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionInteger {
			return opt.IntValue()
		}
	}
	return 0
}

func stringOptionValue(i *discordgo.InteractionCreate, name string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return strings.TrimSpace(opt.StringValue())
		}
	}
	return ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func (b *Bot) reply(i *discordgo.InteractionCreate, content string) {
	b.respond(i, &discordgo.InteractionResponseData{Content: content})
}

func (b *Bot) replyEphemeral(i *discordgo.InteractionCreate, content string) {
	b.respond(i, &discordgo.InteractionResponseData{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

func (b *Bot) replyEmbed(i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	b.respond(i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
}

func (b *Bot) replyEmbedEphemeral(i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	return b.sess.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}

func (b *Bot) respond(i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	err := b.sess.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.log.Error("interaction response failed", "interaction_id", i.ID, "err", err)
	}
}

func (b *Bot) deferReply(i *discordgo.InteractionCreate) error {
	return b.sess.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

func (b *Bot) editReply(i *discordgo.InteractionCreate, content string) {
	if _, err := b.sess.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content}); err != nil {
		b.log.Error("interaction edit failed", "interaction_id", i.ID, "err", err)
	}
}
