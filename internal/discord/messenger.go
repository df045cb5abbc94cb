package discord

import (
	"context"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"prodbot/internal/game"
)

const embedColor = 0x0099ff

// Messenger adapts a discordgo session to the game package's display
// interfaces. It is constructed before the Bot so the leaderboard publisher
// can be wired without the full command layer.
type Messenger struct {
	sess *discordgo.Session
}

func NewMessenger(sess *discordgo.Session) *Messenger {
	return &Messenger{sess: sess}
}

func (m *Messenger) DisplayName(ctx context.Context, userID int64) (string, error) {
	user, err := m.sess.User(strconv.FormatInt(userID, 10), discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

func (m *Messenger) EditMessage(ctx context.Context, channelID, messageID string, payload game.LeaderboardPayload) error {
	_, err := m.sess.ChannelMessageEditEmbed(channelID, messageID, embedFromPayload(payload), discordgo.WithContext(ctx))
	return err
}

func (m *Messenger) SendMessage(ctx context.Context, channelID string, payload game.LeaderboardPayload) (string, error) {
	msg, err := m.sess.ChannelMessageSendEmbed(channelID, embedFromPayload(payload), discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func embedFromPayload(payload game.LeaderboardPayload) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       payload.Title,
		Description: payload.Description,
		Color:       embedColor,
	}
	for _, f := range payload.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  f.Name,
			Value: f.Value,
		})
	}
	return embed
}
