package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"idlens/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent scan sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := journal.Open(cfg)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer func() { _ = store.Close() }()

			records, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("read journal: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(out, records)
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No sessions recorded yet")
				return nil
			}

			headers := []string{"Session", "Started", "Outcome", "Mode", "Total", "Attempts", "Error"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					shortID(rec.SessionID),
					rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
					rec.Outcome,
					rec.FinalMode,
					(time.Duration(rec.TotalMs) * time.Millisecond).String(),
					strconv.Itoa(rec.BarcodeAttempts + rec.OCRAttempts),
					rec.ErrorCode,
				})
			}
			fmt.Fprintln(out, renderTable(out, headers, rows, aligns))
			return nil
		},
	}

	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of sessions to show")
	historyCmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable output")

	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	return historyCmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := journal.Open(cfg)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer func() { _ = store.Close() }()

			if err := store.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear journal: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session history cleared")
			return nil
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
