// Package main is subtrackctl, the operator CLI: run a notification scan
// once, query the recurrence engine and manage schema migrations.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "subtrackctl",
		Short: "SubTrackr operator tools",
		Long: `subtrackctl runs SubTrackr maintenance tasks outside the API server.

Examples:
  subtrackctl next --start 2024-01-31 --period monthly
  subtrackctl scan --dry-run
  subtrackctl migrate up`,
		SilenceUsage: true,
	}

	root.AddCommand(newNextCommand())
	root.AddCommand(newScanCommand())
	root.AddCommand(newMigrateCommand())

	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
