package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/csheth/versestudio/internal/config"
	"github.com/csheth/versestudio/internal/persist"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect or remove the autosaved composition",
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the autosaved composition",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(func(ctx context.Context, store persist.Store, agent *persist.Agent) error {
			snap := agent.Restore(ctx)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Store:    %s\n", persist.Location(store))
			if snap == nil {
				fmt.Fprintln(out, "No autosaved composition.")
				return nil
			}
			saved := snap.SavedAt()
			fmt.Fprintf(out, "Saved:    %s (%s)\n", saved.Format(time.RFC3339), humanize.Time(saved))
			fmt.Fprintf(out, "Versions: %s\n", strings.Join(snap.SelectedNotes, ", "))
			fmt.Fprintf(out, "Size:     %s\n\n", humanize.Bytes(uint64(len(snap.Content))))
			fmt.Fprintln(out, snap.Content)
			return nil
		})
	},
}

var snapshotPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete the autosaved composition",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(func(ctx context.Context, _ persist.Store, agent *persist.Agent) error {
			agent.Purge(ctx)
			fmt.Fprintln(cmd.OutOrStdout(), "Autosaved composition removed.")
			return nil
		})
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotShowCmd, snapshotPurgeCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func withAgent(fn func(context.Context, persist.Store, *persist.Agent) error) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := persist.Open(ctx, cfg.Store, cfg.StoreDSN)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	defer persist.Close(store)
	return fn(ctx, store, persist.NewAgent(store, nil))
}
