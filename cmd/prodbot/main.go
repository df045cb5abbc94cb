package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	"prodbot/internal/api"
	"prodbot/internal/config"
	"prodbot/internal/db"
	"prodbot/internal/discord"
	"prodbot/internal/game"
	"prodbot/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.LoadBotFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.StartupInitSchema {
		if err := db.InitSchema(ctx, pool); err != nil {
			logger.Error("schema init failed", "err", err)
			os.Exit(1)
		}
	}

	sess, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		logger.Error("discord session failed", "err", err)
		os.Exit(1)
	}

	st := store.NewPostgres(pool)
	messenger := discord.NewMessenger(sess)
	pub := game.NewPublisher(st, messenger, messenger, cfg.LeaderboardChannelID, logger)
	svc := game.NewService(st, pub, logger)
	bot := discord.NewBot(sess, svc, pub, cfg, logger)

	if err := bot.Start(ctx); err != nil {
		logger.Error("bot start failed", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := bot.Stop(); err != nil {
			logger.Error("bot stop failed", "err", err)
		}
	}()

	server := api.New(cfg, logger, svc, pub)
	httpServer := &http.Server{
		Addr:              cfg.OpsAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Info("ops api listening", "addr", cfg.OpsAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("ops server failed", "err", err)
			stop()
		}
	}()

	if err := pub.Publish(ctx); err != nil {
		logger.Error("startup leaderboard publish failed", "err", err)
	}

	ticker := time.NewTicker(cfg.PublishEvery)
	defer ticker.Stop()

	logger.Info("bot started", "publish_every", cfg.PublishEvery.String(), "season_length", cfg.SeasonLength.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("bot shutdown")
			return
		case <-ticker.C:
			if err := pub.Publish(ctx); err != nil {
				logger.Error("scheduled leaderboard publish failed", "err", err)
				continue
			}
			logger.Info("leaderboard published")
		}
	}
}
