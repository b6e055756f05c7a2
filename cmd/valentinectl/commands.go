package main

import (
	"errors"
	"fmt"
	"strconv"
	"valentine_week_backend/pkg/client"

	"github.com/spf13/cobra"
)

var daysCmd = &cobra.Command{
	Use:   "days",
	Short: "List the days of Valentine's Week",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		days, err := newClient(cmd).Days(cmd.Context())
		if err != nil {
			return fmt.Errorf("list days: %w", err)
		}
		return printDays(cmd, days)
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Inspect or manage a user's progress",
}

var progressGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := resolveUser(cmd)
		if err != nil {
			return err
		}
		p, err := newClient(cmd).GetProgress(cmd.Context(), user)
		if errors.Is(err, client.ErrNotFound) {
			return fmt.Errorf("no progress for %s yet, run `valentinectl progress init`", user)
		}
		if err != nil {
			return fmt.Errorf("get progress: %w", err)
		}
		return printProgress(cmd, p)
	},
}

var progressInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create progress (day 1 unlocked); no-op when it exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := resolveUser(cmd)
		if err != nil {
			return err
		}
		p, err := newClient(cmd).InitProgress(cmd.Context(), user)
		if err != nil {
			return fmt.Errorf("init progress: %w", err)
		}
		return printProgress(cmd, p)
	},
}

var progressResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset progress and clear completion history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := resolveUser(cmd)
		if err != nil {
			return err
		}
		p, err := newClient(cmd).ResetProgress(cmd.Context(), user)
		if err != nil {
			return fmt.Errorf("reset progress: %w", err)
		}
		return printProgress(cmd, p)
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete <day>",
	Short: "Mark a day as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := strconv.Atoi(args[0])
		if err != nil || day < 1 {
			return fmt.Errorf("day must be a positive number, got %q", args[0])
		}
		user, err := resolveUser(cmd)
		if err != nil {
			return err
		}

		p, err := newClient(cmd).CompleteDay(cmd.Context(), user, day)
		switch {
		case errors.Is(err, client.ErrLockedDay):
			return fmt.Errorf("day %d is still locked, finish day %d first", day, day-1)
		case errors.Is(err, client.ErrNotFound):
			return fmt.Errorf("no progress for %s yet, run `valentinectl progress init`", user)
		case err != nil:
			return fmt.Errorf("complete day %d: %w", day, err)
		}
		return printProgress(cmd, p)
	},
}

var replayCmd = &cobra.Command{
	Use:       "replay on|off",
	Short:     "Toggle replay mode (all days unlocked)",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := resolveUser(cmd)
		if err != nil {
			return err
		}
		p, err := newClient(cmd).SetReplayMode(cmd.Context(), user, args[0] == "on")
		if err != nil {
			return fmt.Errorf("set replay mode: %w", err)
		}
		return printProgress(cmd, p)
	},
}

func init() {
	progressCmd.AddCommand(progressGetCmd)
	progressCmd.AddCommand(progressInitCmd)
	progressCmd.AddCommand(progressResetCmd)
}
