package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thashar/Stalker-sub001/internal/isoweek"
	"github.com/Thashar/Stalker-sub001/internal/logging"
	"github.com/Thashar/Stalker-sub001/internal/results"
)

// weekFlags are the record coordinates shared by the weeks subcommands.
type weekFlags struct {
	guildID string
	phase   int
	year    int
	week    int
	clan    string
}

func (f *weekFlags) register(cmd *cobra.Command, withWeek bool) {
	cmd.Flags().StringVarP(&f.guildID, "guild", "g", "", "Guild ID")
	cmd.Flags().IntVarP(&f.phase, "phase", "p", 1, "Ingestion phase (1 or 2)")
	if withWeek {
		cmd.Flags().IntVarP(&f.year, "year", "y", 0, "Record year (defaults to the current scoring week)")
		cmd.Flags().IntVarP(&f.week, "week", "w", 0, "Record week (defaults to the current scoring week)")
		cmd.Flags().StringVar(&f.clan, "clan", "", "Clan name")
		_ = cmd.MarkFlagRequired("clan")
	}
	_ = cmd.MarkFlagRequired("guild")
}

// resolve fills the year and week from the current scoring week when unset.
func (f *weekFlags) resolve() error {
	if f.phase != 1 && f.phase != 2 {
		return fmt.Errorf("phase must be 1 or 2, got %d", f.phase)
	}
	if f.year == 0 || f.week == 0 {
		year, week := isoweek.Current()
		if f.year == 0 {
			f.year = year
		}
		if f.week == 0 {
			f.week = week
		}
	}
	return nil
}

func openStore(ctx *commandContext) (*results.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return results.NewStore(cfg.Paths.DataDir, logging.NewNop()), nil
}

func newWeeksCommand(ctx *commandContext) *cobra.Command {
	weeksCmd := &cobra.Command{
		Use:   "weeks",
		Short: "Browse and manage saved week records",
	}

	weeksCmd.AddCommand(newWeeksListCommand(ctx))
	weeksCmd.AddCommand(newWeeksShowCommand(ctx))
	weeksCmd.AddCommand(newWeeksDeleteCommand(ctx))

	return weeksCmd
}

func newWeeksListCommand(ctx *commandContext) *cobra.Command {
	var flags weekFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the weeks with saved records for a guild",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.phase != 1 && flags.phase != 2 {
				return fmt.Errorf("phase must be 1 or 2, got %d", flags.phase)
			}
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			weeks, err := store.GetAvailableWeeks(flags.phase, flags.guildID)
			if err != nil {
				return fmt.Errorf("list weeks: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(weeks) == 0 {
				fmt.Fprintf(out, "No phase %d records for guild %s\n", flags.phase, flags.guildID)
				return nil
			}
			rows := make([][]string, 0, len(weeks))
			for _, info := range weeks {
				rows = append(rows, []string{
					strconv.Itoa(info.Year),
					strconv.Itoa(info.Week),
					strings.Join(info.Clans, ", "),
					info.CreatedAt.Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Year", "Week", "Clans", "Created"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	flags.register(cmd, false)
	return cmd
}

func newWeeksShowCommand(ctx *commandContext) *cobra.Command {
	var flags weekFlags
	var raw bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show one saved week record",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.resolve(); err != nil {
				return err
			}
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if raw {
				record, err := store.GetRaw(flags.phase, flags.guildID, flags.year, flags.week, flags.clan)
				if err != nil {
					return fmt.Errorf("load record: %w", err)
				}
				if record == nil {
					return fmt.Errorf("no phase %d record for %s week %d-W%d", flags.phase, flags.clan, flags.year, flags.week)
				}
				var pretty json.RawMessage = record
				encoded, err := json.MarshalIndent(pretty, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(encoded))
				return nil
			}

			summary, err := store.GetSummary(flags.phase, flags.guildID, flags.year, flags.week, flags.clan)
			if err != nil {
				return fmt.Errorf("load record: %w", err)
			}
			if summary == nil {
				return fmt.Errorf("no phase %d record for %s week %d-W%d", flags.phase, flags.clan, flags.year, flags.week)
			}
			fmt.Fprintf(out, "Phase %d record for %s, week %d-W%d\n", flags.phase, flags.clan, flags.year, flags.week)
			fmt.Fprintf(out, "  Players:   %d\n", summary.PlayerCount)
			fmt.Fprintf(out, "  Top 30:    %d\n", summary.Top30Sum)
			fmt.Fprintf(out, "  Created:   %s by %s\n", summary.CreatedAt.Format("2006-01-02 15:04"), summary.CreatedBy)
			fmt.Fprintf(out, "  Updated:   %s\n", summary.UpdatedAt.Format("2006-01-02 15:04"))
			return nil
		},
	}

	flags.register(cmd, true)
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the record file as JSON")
	return cmd
}

func newWeeksDeleteCommand(ctx *commandContext) *cobra.Command {
	var flags weekFlags
	var confirm bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete one saved week record",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.resolve(); err != nil {
				return err
			}
			if !confirm {
				return fmt.Errorf("refusing to delete without --yes")
			}
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			removed, err := store.DeleteForWeek(flags.phase, flags.guildID, flags.year, flags.week, flags.clan)
			if err != nil {
				return fmt.Errorf("delete record: %w", err)
			}
			out := cmd.OutOrStdout()
			if !removed {
				fmt.Fprintf(out, "No phase %d record for %s week %d-W%d\n", flags.phase, flags.clan, flags.year, flags.week)
				return nil
			}
			fmt.Fprintf(out, "Deleted phase %d record for %s, week %d-W%d\n", flags.phase, flags.clan, flags.year, flags.week)
			return nil
		},
	}

	flags.register(cmd, true)
	cmd.Flags().BoolVar(&confirm, "yes", false, "Confirm the deletion")
	return cmd
}

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Split legacy monolithic result files into per-week records",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			report, err := store.MigrateLegacy()
			if err != nil {
				return fmt.Errorf("migrate legacy results: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Phase 1 records migrated: %d\n", report.Phase1Count)
			fmt.Fprintf(out, "Phase 2 records migrated: %d\n", report.Phase2Count)
			if report.Errors > 0 {
				fmt.Fprintf(out, "Records skipped due to errors: %d\n", report.Errors)
			}
			return nil
		},
	}
}
