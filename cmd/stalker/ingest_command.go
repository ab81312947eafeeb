package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thashar/Stalker-sub001/internal/ingest"
	"github.com/Thashar/Stalker-sub001/internal/logging"
	"github.com/Thashar/Stalker-sub001/internal/ocr"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run the recognition pipeline without a chat gateway",
	}
	ingestCmd.AddCommand(newIngestFileCommand(ctx))
	return ingestCmd
}

func newIngestFileCommand(ctx *commandContext) *cobra.Command {
	var rosterArg string

	cmd := &cobra.Command{
		Use:   "file <image>...",
		Short: "Recognize scores in local image files against a fixed roster",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			roster := splitRoster(rosterArg)
			if len(roster) == 0 {
				return fmt.Errorf("--roster requires at least one display name")
			}

			recognizer, err := ocr.New(cfg.OCR.Binary, cfg.OCR.Language, cfg.OCR.CharWhitelist, cfg.OCR.PageSegMode, cfg.OCR.TimeoutSeconds)
			if err != nil {
				return fmt.Errorf("init recognition client: %w", err)
			}

			result, err := ingest.RunLocal(cmd.Context(), cfg, recognizer, roster, args, logging.NewNop())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, file := range result.Files {
				if file.Err != "" {
					fmt.Fprintf(out, "%s: error: %s\n", file.Path, file.Err)
					continue
				}
				fmt.Fprintf(out, "%s: %d reading(s)\n", file.Path, len(file.Players))
			}

			if len(result.Conflicts) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Conflicting readings (the interactive workflow would ask):")
				for _, conflict := range result.Conflicts {
					values := make([]string, 0, len(conflict.Values))
					for _, v := range conflict.Values {
						values = append(values, fmt.Sprintf("%d (seen %d time(s))", v.Value, v.Count))
					}
					fmt.Fprintf(out, "  %s: %s\n", conflict.Nick, strings.Join(values, ", "))
				}
			}

			fmt.Fprintln(out)
			rows := make([][]string, 0, len(result.Final))
			for _, player := range result.Final {
				rows = append(rows, []string{player.Nick, strconv.Itoa(player.Score)})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Player", "Score"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			if len(result.Dropped) > 0 {
				fmt.Fprintf(out, "Unresolved (dropped): %s\n", strings.Join(result.Dropped, ", "))
			}
			fmt.Fprintf(out, "Players: %d, above zero: %d, zero: %d, top 30 sum: %d\n",
				result.Stats.UniqueNicks, result.Stats.AboveZero, result.Stats.ZeroCount, result.Stats.Top30Sum)
			return nil
		},
	}

	cmd.Flags().StringVar(&rosterArg, "roster", "", "Comma-separated roster display names to match against")
	_ = cmd.MarkFlagRequired("roster")
	return cmd
}

func splitRoster(value string) []string {
	parts := strings.Split(value, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}
