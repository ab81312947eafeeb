package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thashar/Stalker-sub001/internal/ipc"
	"github.com/Thashar/Stalker-sub001/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, session, and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			client, err := ctx.dialClient()
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Daemon", statusError, "not reachable", colorize))
				fmt.Fprintln(out, err)
				renderLocalChecks(cmd.Context(), ctx, out, colorize)
				return nil
			}
			defer client.Close()

			resp, err := client.Status()
			if err != nil {
				return fmt.Errorf("query daemon status: %w", err)
			}
			renderDaemonStatus(out, resp, colorize)
			renderLocalChecks(cmd.Context(), ctx, out, colorize)
			return nil
		},
	}
}

func renderDaemonStatus(out io.Writer, resp *ipc.StatusResponse, colorize bool) {
	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(out, line)
	}
	if resp.Running {
		uptime := time.Since(resp.StartedAt).Round(time.Second)
		fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d, up %s)", resp.PID, uptime), colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, "stopped", colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Socket", statusInfo, resp.SocketPath, colorize))
	fmt.Fprintln(out, renderStatusLine("Lock", statusInfo, resp.LockPath, colorize))
	fmt.Fprintln(out, renderStatusLine("Data directory", statusInfo, resp.DataDir, colorize))
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Sessions", colorize) {
		fmt.Fprintln(out, line)
	}
	if len(resp.Sessions) == 0 {
		fmt.Fprintln(out, "  No active sessions")
	} else {
		rows := make([][]string, 0, len(resp.Sessions))
		for _, s := range resp.Sessions {
			rows = append(rows, []string{
				s.GuildID,
				s.UserID,
				s.Clan,
				strconv.Itoa(s.Phase),
				strconv.Itoa(s.Round),
				s.Stage,
				strconv.Itoa(s.Images),
				s.LastActivity.Format("15:04:05"),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Guild", "User", "Clan", "Phase", "Round", "Stage", "Images", "Last activity"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight, alignLeft},
		))
	}
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Queues", colorize) {
		fmt.Fprintln(out, line)
	}
	if len(resp.Queues) == 0 {
		fmt.Fprintln(out, "  No guild queues")
		return
	}
	rows := make([][]string, 0, len(resp.Queues))
	for _, q := range resp.Queues {
		reserved := ""
		if q.ReservedUser != "" {
			reserved = fmt.Sprintf("%s (until %s)", q.ReservedUser, q.ReservedUntil.Format("15:04:05"))
		}
		rows = append(rows, []string{
			q.GuildID,
			q.ActiveUser,
			reserved,
			strconv.Itoa(q.Waiting),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Guild", "Active", "Reserved", "Waiting"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
	))
}

func renderLocalChecks(cmdCtx context.Context, ctx *commandContext, out io.Writer, colorize bool) {
	cfg, err := ctx.ensureConfig()
	if err != nil || cfg == nil {
		return
	}

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Environment", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, result := range preflight.RunAll(cmdCtx, cfg) {
		kind := statusError
		if result.Passed {
			kind = statusOK
		}
		fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}
	for _, dep := range preflight.CheckSystemDeps(cmdCtx, cfg) {
		kind := statusError
		detail := dep.Detail
		if dep.Available {
			kind = statusOK
			detail = dep.Command
		}
		if dep.Optional && !dep.Available {
			kind = statusWarn
		}
		label := dep.Name
		if strings.TrimSpace(dep.Description) != "" {
			detail = fmt.Sprintf("%s - %s", detail, dep.Description)
		}
		fmt.Fprintln(out, renderStatusLine(label, kind, detail, colorize))
	}
}
