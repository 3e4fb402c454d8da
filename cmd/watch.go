package cmd

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matrixise/coinfolio/internal/dashboard"
	"github.com/matrixise/coinfolio/internal/state"
)

var watchNoRefresh bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Manage the watchlist",
}

var watchAddCmd = &cobra.Command{
	Use:   "add <token-id>...",
	Short: "Add tokens to the watchlist",
	Long: `Add tokens by market id (for example "bitcoin") and fetch their prices.
Tokens already on the watchlist keep their current data.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatchAdd,
}

var watchRemoveCmd = &cobra.Command{
	Use:     "remove <token-id>...",
	Aliases: []string{"rm"},
	Short:   "Remove tokens and their holdings",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runWatchRemove,
}

var watchListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the watchlist",
	Args:    cobra.NoArgs,
	RunE:    runWatchList,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.AddCommand(watchAddCmd)
	watchCmd.AddCommand(watchRemoveCmd)
	watchCmd.AddCommand(watchListCmd)

	watchAddCmd.Flags().BoolVar(&watchNoRefresh, "no-refresh", false, "add without fetching prices")
}

func runWatchAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, id := range args {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, tracked := a.dash.State().Watchlist.Get(id); tracked {
			slog.Info("Token already on the watchlist", "token", id)
			continue
		}
		a.dash.AddToWatchlist(state.TokenSnapshot{ID: id})
		slog.Info("Token added", "token", id)
	}

	var refreshErr error
	if !watchNoRefresh {
		refreshErr = a.dash.RefreshAll(ctx)
	}
	if err := a.save(ctx); err != nil {
		return err
	}
	if refreshErr != nil {
		slog.Error("Price refresh failed", "error", refreshErr)
		return refreshErr
	}
	return printWatchlist(cmd.OutOrStdout(), a.dash.State())
}

func runWatchRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	removeTokens(a.dash, args)
	return a.save(ctx)
}

// removeTokens drops each tracked id; untracked ids are skipped. It returns
// the number of tokens removed.
func removeTokens(d *dashboard.Dashboard, ids []string) int {
	removed := 0
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, tracked := d.State().Watchlist.Get(id); !tracked {
			slog.Info("Token not on the watchlist, nothing to remove", "token", id)
			continue
		}
		d.RemoveFromWatchlist(id)
		slog.Info("Token removed", "token", id)
		removed++
	}
	return removed
}

func runWatchList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return printWatchlist(cmd.OutOrStdout(), a.dash.State())
}
