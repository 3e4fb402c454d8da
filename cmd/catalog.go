package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matrixise/coinfolio/internal/market"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse and search the market listing",
}

var catalogPageCmd = &cobra.Command{
	Use:   "page [n]",
	Short: "Show page n of the listing ordered by market cap",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCatalogPage,
}

var catalogSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search tokens by name or symbol",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCatalogSearch,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogPageCmd)
	catalogCmd.AddCommand(catalogSearchCmd)
}

func runCatalogPage(cmd *cobra.Command, args []string) error {
	page := 1
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("page must be a positive integer, got %q", args[0])
		}
		page = n
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.dash.LoadCatalogPage(ctx, page); err != nil {
		return err
	}

	m := a.dash.State().Market
	if m.Exhausted {
		fmt.Fprintf(cmd.OutOrStdout(), "Page %d is past the end of the listing\n", page)
		return nil
	}
	return printTokens(cmd.OutOrStdout(), m.Catalog)
}

func runCatalogSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if !market.IsSearchable(query) {
		return fmt.Errorf("query must be at least %d characters", market.MinQueryLength)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.dash.SearchCatalog(ctx, query); err != nil {
		return err
	}
	return printTokens(cmd.OutOrStdout(), a.dash.State().Market.SearchResults)
}
