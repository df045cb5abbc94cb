package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"prodbot/internal/config"
	"prodbot/internal/opsclient"
)

func main() {
	cfg := config.LoadCtlFromEnv()

	root := &cobra.Command{
		Use:          "prodctl",
		Short:        "Operations CLI for the production game bot",
		SilenceUsage: true,
	}

	root.AddCommand(
		newHealthCmd(cfg),
		newLeaderboardCmd(cfg),
		newRankCmd(cfg),
		newTopCmd(cfg),
		newPublishCmd(cfg),
		newResetCmd(cfg),
		newPointsCmd(cfg),
		newTokensCmd(cfg),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(cfg config.CtlConfig) *opsclient.Client {
	return opsclient.New(cfg.OpsBaseURL, cfg.OpsToken)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func newHealthCmd(cfg config.CtlConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the bot's ops API is up",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			if _, err := newClient(cfg).Health(ctx); err != nil {
				return err
			}
			printSuccess("Bot is up.")
			return nil
		},
	}
}

func newLeaderboardCmd(cfg config.CtlConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the current Points leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := newClient(cfg).Leaderboard(ctx)
			if err != nil {
				return err
			}
			renderRows("POINTS LEADERBOARD", out, "score")
			return nil
		},
	}
}

func newRankCmd(cfg config.CtlConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "rank <user_id>",
		Short: "Show a user's rank details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := newClient(cfg).UserStats(ctx, args[0])
			if err != nil {
				return err
			}
			renderUserStats(out)
			return nil
		},
	}
}

func newTopCmd(cfg config.CtlConfig) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the top Token holders",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := newClient(cfg).TopTokens(ctx, limit)
			if err != nil {
				return err
			}
			renderRows("TOP TOKEN HOLDERS", out, "balance")
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of holders to show")
	return cmd
}

func newPublishCmd(cfg config.CtlConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Force a leaderboard message refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			if _, err := newClient(cfg).Publish(ctx); err != nil {
				return err
			}
			printSuccess("Leaderboard refreshed.")
			return nil
		},
	}
}

func newResetCmd(cfg config.CtlConfig) *cobra.Command {
	var scoresOnly bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Start the next production run (or zero scores with --scores-only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			label := "Start the next production run"
			if scoresOnly {
				label = "Zero all Points scores"
			}
			confirmed, err := promptConfirm(label + "?")
			if err != nil {
				return err
			}
			if !confirmed {
				printWarn("Aborted.")
				return nil
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := newClient(cfg).Reset(ctx, scoresOnly)
			if err != nil {
				return err
			}
			if scoresOnly {
				printSuccess("All Points scores set to 0.")
				return nil
			}
			printSuccess(fmt.Sprintf("Production run %s started (previous run %s, %s participants).",
				formatNumber(out["current_run"]), formatNumber(out["previous_run"]), formatNumber(out["participants"])))
			return nil
		},
	}
	cmd.Flags().BoolVar(&scoresOnly, "scores-only", false, "zero scores without advancing the production run")
	return cmd
}

func newPointsCmd(cfg config.CtlConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "points <user_id> <amount>",
		Short: "Adjust a user's Points (negative amount removes)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q", args[1])
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := newClient(cfg).AdjustPoints(ctx, args[0], amount)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("User %s now has %s Points.", args[0], formatNumber(out["score"])))
			return nil
		},
	}
}

func newTokensCmd(cfg config.CtlConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <user_id> <amount>",
		Short: "Adjust a user's Tokens (negative amount removes)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q", args[1])
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := newClient(cfg).AdjustTokens(ctx, args[0], amount)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("User %s now has %s Tokens.", args[0], formatNumber(out["balance"])))
			return nil
		},
	}
}
