package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh prices for every watchlist token",
	Args:  cobra.NoArgs,
	RunE:  runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.dash.State().Watchlist.Len() == 0 {
		slog.Info("Watchlist is empty, nothing to refresh")
		return nil
	}

	if err := a.refreshAndRecord(ctx); err != nil {
		slog.Error("Refresh failed", "error", err)
		return err
	}
	if err := a.save(ctx); err != nil {
		return err
	}
	return printWatchlist(cmd.OutOrStdout(), a.dash.State())
}
