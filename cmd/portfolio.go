package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/matrixise/coinfolio/internal/storage"
	"github.com/matrixise/coinfolio/internal/valuation"
)

var (
	portfolioRefresh  bool
	portfolioRecorded bool
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Show the portfolio valuation",
	Long: `Value every held token at its last known price. With --recorded, show
the latest valuation stored by the daemon (postgres backend only).`,
	Args: cobra.NoArgs,
	RunE: runPortfolio,
}

func init() {
	rootCmd.AddCommand(portfolioCmd)

	portfolioCmd.Flags().BoolVar(&portfolioRefresh, "refresh", false, "refresh prices before valuing")
	portfolioCmd.Flags().BoolVar(&portfolioRecorded, "recorded", false, "show the latest recorded valuation")
}

func runPortfolio(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if portfolioRecorded {
		pg, ok := a.kv.(*storage.PostgresStore)
		if !ok {
			return errors.New("recorded valuations require the postgres storage backend")
		}
		records, err := pg.LatestValuation(ctx, a.cfg.Scope)
		if err != nil {
			return fmt.Errorf("failed to read recorded valuation: %w", err)
		}
		return printRecorded(cmd.OutOrStdout(), records)
	}

	if portfolioRefresh {
		if err := a.dash.RefreshAll(ctx); err != nil {
			slog.Warn("Price refresh failed, showing last known prices", "error", err)
		} else if err := a.save(ctx); err != nil {
			return err
		}
	}

	s := a.dash.State()
	return printValuation(cmd.OutOrStdout(), valuation.Compute(s.Watchlist, s.Holdings))
}
