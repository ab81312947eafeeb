package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Thashar/Stalker-sub001/internal/ipc"
	"github.com/Thashar/Stalker-sub001/internal/logging"
	"github.com/Thashar/Stalker-sub001/internal/punish"
)

func newPunishCommand(ctx *commandContext) *cobra.Command {
	punishCmd := &cobra.Command{
		Use:   "punish",
		Short: "Manage penalty points",
	}

	punishCmd.AddCommand(newPunishListCommand(ctx))
	punishCmd.AddCommand(newPunishAddCommand(ctx))
	punishCmd.AddCommand(newPunishRemoveCommand(ctx))

	return punishCmd
}

func openLedger(ctx *commandContext) (*punish.Ledger, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return punish.NewLedger(cfg.PunishmentsPath(), cfg.WeeklyRemovalPath(), logging.NewNop()), nil
}

func newPunishListCommand(ctx *commandContext) *cobra.Command {
	var guildID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List penalty points for a guild",
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := openLedger(ctx)
			if err != nil {
				return err
			}
			entries, err := ledger.Guild(guildID)
			if err != nil {
				return fmt.Errorf("read ledger: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No penalty points recorded for guild %s\n", guildID)
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				lastReason := ""
				if n := len(entry.Record.History); n > 0 {
					lastReason = entry.Record.History[n-1].Reason
				}
				rows = append(rows, []string{
					entry.UserID,
					strconv.Itoa(entry.Record.Points),
					lastReason,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"User", "Points", "Last reason"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&guildID, "guild", "g", "", "Guild ID")
	_ = cmd.MarkFlagRequired("guild")
	return cmd
}

func newPunishAddCommand(ctx *commandContext) *cobra.Command {
	var guildID string
	var reason string

	cmd := &cobra.Command{
		Use:   "add <user-id> <points>",
		Short: "Add penalty points to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := args[0]
			points, err := strconv.Atoi(args[1])
			if err != nil || points <= 0 {
				return fmt.Errorf("points must be a positive integer, got %q", args[1])
			}
			out := cmd.OutOrStdout()

			// The daemon path reconciles roles and warnings against the live
			// gateway. Without a daemon only the ledger is updated.
			if client, dialErr := ctx.dialClient(); dialErr == nil {
				defer client.Close()
				resp, err := client.PunishAdd(ipc.PunishAddRequest{
					GuildID: guildID,
					UserID:  userID,
					Points:  points,
					Reason:  reason,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "User %s now has %d penalty point(s)\n", userID, resp.Points)
				return nil
			}

			ledger, err := openLedger(ctx)
			if err != nil {
				return err
			}
			record, err := ledger.AddPoints(guildID, userID, points, reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "User %s now has %d penalty point(s)\n", userID, record.Points)
			fmt.Fprintln(out, "Daemon not reachable; roles and warnings were not updated")
			return nil
		},
	}

	cmd.Flags().StringVarP(&guildID, "guild", "g", "", "Guild ID")
	cmd.Flags().StringVarP(&reason, "reason", "r", "Manual addition", "Reason recorded in the ledger history")
	_ = cmd.MarkFlagRequired("guild")
	return cmd
}

func newPunishRemoveCommand(ctx *commandContext) *cobra.Command {
	var guildID string

	cmd := &cobra.Command{
		Use:   "remove <user-id> <points>",
		Short: "Remove penalty points from a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := args[0]
			points, err := strconv.Atoi(args[1])
			if err != nil || points <= 0 {
				return fmt.Errorf("points must be a positive integer, got %q", args[1])
			}
			out := cmd.OutOrStdout()

			if client, dialErr := ctx.dialClient(); dialErr == nil {
				defer client.Close()
				resp, err := client.PunishRemove(ipc.PunishRemoveRequest{
					GuildID: guildID,
					UserID:  userID,
					Points:  points,
				})
				if err != nil {
					return err
				}
				if !resp.Found {
					fmt.Fprintf(out, "User %s has no penalty points\n", userID)
					return nil
				}
				fmt.Fprintf(out, "User %s now has %d penalty point(s)\n", userID, resp.Points)
				return nil
			}

			ledger, err := openLedger(ctx)
			if err != nil {
				return err
			}
			record, err := ledger.RemovePoints(guildID, userID, points)
			if err != nil {
				return err
			}
			if record == nil {
				fmt.Fprintf(out, "User %s has no penalty points\n", userID)
				return nil
			}
			fmt.Fprintf(out, "User %s now has %d penalty point(s)\n", userID, record.Points)
			fmt.Fprintln(out, "Daemon not reachable; roles and warnings were not updated")
			return nil
		},
	}

	cmd.Flags().StringVarP(&guildID, "guild", "g", "", "Guild ID")
	_ = cmd.MarkFlagRequired("guild")
	return cmd
}
