package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

var holdingsCmd = &cobra.Command{
	Use:   "holdings",
	Short: "Manage the holdings ledger",
}

var holdingsSetCmd = &cobra.Command{
	Use:   "set <token-id> <quantity>",
	Short: "Set the quantity held for a token",
	Long: `Set the quantity held for a token. Quantities are rounded to six
decimals; negative or unparseable input is stored as 0.`,
	Args: cobra.ExactArgs(2),
	RunE: runHoldingsSet,
}

func init() {
	rootCmd.AddCommand(holdingsCmd)
	holdingsCmd.AddCommand(holdingsSetCmd)
}

func runHoldingsSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	id := strings.TrimSpace(args[0])
	if id == "" {
		return fmt.Errorf("token id is required")
	}
	if _, tracked := a.dash.State().Watchlist.Get(id); !tracked {
		slog.Warn("Token is not on the watchlist; it will not be valued", "token", id)
	}

	s := a.dash.SetHoldingsText(id, args[1])
	if err := a.save(ctx); err != nil {
		return err
	}

	q, _ := s.Holdings.Quantity(id)
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", id, formatQuantity(q))
	return nil
}
