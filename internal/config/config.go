package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type BotConfig struct {
	DiscordToken         string
	DatabaseURL          string
	AppID                string
	GuildID              string
	LeaderboardChannelID string
	WinnersThreadID      string
	OpsAddr              string
	OpsToken             string
	PublishEvery         time.Duration
	SeasonLength         time.Duration
	SandPriceUSD         float64
	StartupInitSchema    bool
}

type CtlConfig struct {
	OpsBaseURL string
	OpsToken   string
}

func LoadBotFromEnv() (BotConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("PRODBOT_OPS_ADDR", ":8080")
	}

	cfg := BotConfig{
		DiscordToken:         strings.TrimSpace(os.Getenv("DISCORD_TOKEN")),
		DatabaseURL:          strings.TrimSpace(os.Getenv("DATABASE_URL")),
		AppID:                strings.TrimSpace(os.Getenv("CLIENT_ID")),
		GuildID:              strings.TrimSpace(os.Getenv("GUILD_ID")),
		LeaderboardChannelID: strings.TrimSpace(os.Getenv("LEADERBOARD_CHANNEL_ID")),
		WinnersThreadID:      strings.TrimSpace(os.Getenv("WEEKLY_WINNERS_THREAD_ID")),
		OpsAddr:              addr,
		OpsToken:             strings.TrimSpace(os.Getenv("PRODBOT_OPS_TOKEN")),
		PublishEvery:         envDurationDefault("PRODBOT_PUBLISH_EVERY", time.Hour),
		SeasonLength:         envDurationDefault("PRODBOT_SEASON_LENGTH", 48*time.Hour),
		SandPriceUSD:         envFloatDefault("PRODBOT_SAND_PRICE_USD", 0.30),
		StartupInitSchema:    envBoolDefault("PRODBOT_STARTUP_INIT_SCHEMA", true),
	}
	if cfg.DiscordToken == "" {
		return cfg, fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.AppID == "" {
		return cfg, fmt.Errorf("CLIENT_ID is required")
	}
	if cfg.GuildID == "" {
		return cfg, fmt.Errorf("GUILD_ID is required")
	}
	if cfg.LeaderboardChannelID == "" {
		return cfg, fmt.Errorf("LEADERBOARD_CHANNEL_ID is required")
	}
	return cfg, nil
}

func LoadCtlFromEnv() CtlConfig {
	return CtlConfig{
		OpsBaseURL: strings.TrimRight(envDefault("PRODCTL_OPS_BASE_URL", "http://localhost:8080"), "/"),
		OpsToken:   strings.TrimSpace(os.Getenv("PRODBOT_OPS_TOKEN")),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envFloatDefault(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
