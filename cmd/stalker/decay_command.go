package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newDecayCommand(ctx *commandContext) *cobra.Command {
	decayCmd := &cobra.Command{
		Use:   "decay",
		Short: "Weekly punishment decay",
	}
	decayCmd.AddCommand(newDecayRunCommand(ctx))
	return decayCmd
}

func newDecayRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the weekly decay now (no-op when this week already ran)",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			// Preferred path: the daemon decays and notifies in one place.
			if client, dialErr := ctx.dialClient(); dialErr == nil {
				defer client.Close()
				resp, err := client.Decay()
				if err != nil {
					return err
				}
				if resp.AlreadyRan {
					fmt.Fprintf(out, "Decay already ran for week %s\n", resp.WeekKey)
					return nil
				}
				fmt.Fprintf(out, "Decay completed for week %s: %d user(s) reduced, %d dropped\n",
					resp.WeekKey, resp.CleanedUsers, resp.RemovedUsers)
				return nil
			}

			ledger, err := openLedger(ctx)
			if err != nil {
				return err
			}
			result, err := ledger.WeeklyDecay(time.Now())
			if err != nil {
				return err
			}
			if result.AlreadyRan {
				fmt.Fprintf(out, "Decay already ran for week %s\n", result.WeekKey)
				return nil
			}
			fmt.Fprintf(out, "Decay completed for week %s: %d user(s) reduced, %d dropped\n",
				result.WeekKey, result.CleanedUsers, result.RemovedUsers)
			fmt.Fprintln(out, "Daemon not reachable; roles were not reconciled and no notification was sent")
			return nil
		},
	}
}
