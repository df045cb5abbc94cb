package game

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"prodbot/internal/store"
)

// Entries per embed field. Discord caps field values well below 30 full
// leaderboard lines.
const leaderboardChunk = 10

// LeaderboardPayload is the rendered leaderboard, display-agnostic except
// for the chat markup the product already commits to (medal emoji and the
// <t:..:R> relative timestamp).
type LeaderboardPayload struct {
	Title       string
	Description string
	Fields      []LeaderboardField
}

type LeaderboardField struct {
	Name  string
	Value string
}

// NameResolver looks up a user's display name. Lookups may fail per-user
// (left the community, rate limit); the publisher substitutes a placeholder
// and keeps going.
type NameResolver interface {
	DisplayName(ctx context.Context, userID int64) (string, error)
}

// MessagePoster owns the single published leaderboard message.
type MessagePoster interface {
	EditMessage(ctx context.Context, channelID, messageID string, payload LeaderboardPayload) error
	SendMessage(ctx context.Context, channelID string, payload LeaderboardPayload) (string, error)
}

// Publisher renders the current top 30 plus the production-run countdown
// into one message, editing the previously published message in place when
// it still exists. Overlapping Publish calls are tolerated: last write wins
// on the displayed content.
type Publisher struct {
	store     Store
	names     NameResolver
	poster    MessagePoster
	channelID string
	log       *slog.Logger
}

func NewPublisher(st Store, names NameResolver, poster MessagePoster, channelID string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		store:     st,
		names:     names,
		poster:    poster,
		channelID: channelID,
		log:       logger,
	}
}

func (p *Publisher) Publish(ctx context.Context) error {
	payload, err := p.render(ctx)
	if err != nil {
		return err
	}

	messageID, ok, err := p.store.Setting(ctx, store.SettingLeaderboardMessageID)
	if err != nil {
		return err
	}
	if ok && messageID != "" {
		if err := p.poster.EditMessage(ctx, p.channelID, messageID, payload); err == nil {
			return nil
		} else {
			p.log.Warn("stored leaderboard message not editable, posting a new one",
				"message_id", messageID, "err", err)
		}
	}

	newID, err := p.poster.SendMessage(ctx, p.channelID, payload)
	if err != nil {
		return err
	}
	return p.store.SetSetting(ctx, store.SettingLeaderboardMessageID, newID)
}

func (p *Publisher) render(ctx context.Context) (LeaderboardPayload, error) {
	var out LeaderboardPayload

	top, err := p.store.TopPoints(ctx, LeaderboardSize)
	if err != nil {
		return out, err
	}

	run := int64(1)
	if raw, ok, err := p.store.Setting(ctx, store.SettingProductionRun); err != nil {
		return out, err
	} else if ok {
		if parsed, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			run = parsed
		}
	}

	countdown := "Not set"
	if raw, ok, err := p.store.Setting(ctx, store.SettingLeaderboardResetTime); err != nil {
		return out, err
	} else if ok {
		if millis, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			countdown = fmt.Sprintf("<t:%d:R>", millis/1000)
		}
	}

	out.Title = "🏆 Leaderboard 🏆"
	out.Description = fmt.Sprintf(
		"This leaderboard tracks your Production Game performance. Every 48 hours it resets itself and rewards the top 30 finishers based on their earnings.\n\n"+
			"**PRODUCTION RUN #%d** 🏆 [Ends in %s]\n\nTop players and their scores:",
		run, countdown)

	lines := make([]string, 0, len(top))
	for i, entry := range top {
		lines = append(lines, p.renderLine(ctx, i, entry))
	}
	for i := 0; i < len(lines); i += leaderboardChunk {
		end := i + leaderboardChunk
		if end > len(lines) {
			end = len(lines)
		}
		out.Fields = append(out.Fields, LeaderboardField{
			Name:  "\u200b",
			Value: strings.Join(lines[i:end], "\n"),
		})
	}
	return out, nil
}

func (p *Publisher) renderLine(ctx context.Context, index int, entry store.LeaderboardEntry) string {
	name, err := p.names.DisplayName(ctx, entry.UserID)
	if err != nil {
		p.log.Warn("leaderboard name lookup failed", "user_id", entry.UserID, "err", err)
		return fmt.Sprintf("%s %d. Unknown User (%d) - %d", positionEmoji(index), index+1, entry.UserID, entry.Score)
	}
	return fmt.Sprintf("%s %d. %s - %d 💰", positionEmoji(index), index+1, EscapeMarkdown(name), entry.Score)
}

func positionEmoji(index int) string {
	switch index {
	case 0:
		return "🥇"
	case 1:
		return "🥈"
	case 2:
		return "🥉"
	default:
		return "🔹"
	}
}
