package cmd

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/matrixise/coinfolio/internal/state"
	"github.com/matrixise/coinfolio/internal/storage"
	"github.com/matrixise/coinfolio/internal/valuation"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func formatPrice(p float64) string {
	if p != 0 && p < 1 {
		return strconv.FormatFloat(p, 'g', 6, 64)
	}
	return strconv.FormatFloat(p, 'f', 2, 64)
}

func printWatchlist(w io.Writer, s state.State) error {
	if s.Watchlist.Len() == 0 {
		_, err := fmt.Fprintln(w, "Watchlist is empty")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tSYMBOL\tNAME\tPRICE\t24H\tTREND\tQUANTITY\tVALUE")
	for _, tok := range s.Watchlist.Tokens {
		qty, _ := s.Holdings.Quantity(tok.ID)
		spark := valuation.SummarizeSparkline(tok.Sparkline7d, tok.PriceChange24hPct)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%+.2f%%\t%s\t%s\t%.2f\n",
			tok.ID,
			tok.Symbol,
			tok.Name,
			formatPrice(tok.CurrentPrice),
			tok.PriceChange24hPct,
			spark.Trend,
			formatQuantity(qty),
			valuation.Value(s.Watchlist, s.Holdings, tok.ID),
		)
	}
	return tw.Flush()
}

func printValuation(w io.Writer, v valuation.Valuation) error {
	if len(v.Rows) == 0 {
		_, err := fmt.Fprintln(w, "No holdings with a positive value")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "SYMBOL\tNAME\tQUANTITY\tPRICE\tVALUE\tSHARE")
	for _, row := range v.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%.2f%%\n",
			row.Symbol,
			row.Name,
			formatQuantity(row.Quantity),
			formatPrice(row.Price),
			row.Value,
			row.Percentage,
		)
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t\t%.2f\t\n", v.TotalValue)
	return tw.Flush()
}

func printRecorded(w io.Writer, records []storage.ValuationRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No recorded valuation")
		return err
	}

	tw := newTable(w)
	fmt.Fprintf(tw, "Recorded at %s\n", records[0].RecordedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintln(tw, "SYMBOL\tQUANTITY\tPRICE\tVALUE\tSHARE")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s%%\n",
			rec.Symbol,
			rec.Quantity.String(),
			rec.Price.String(),
			rec.Value.StringFixed(2),
			rec.Percentage.StringFixed(2),
		)
	}
	return tw.Flush()
}

func printTokens(w io.Writer, tokens []state.TokenSnapshot) error {
	if len(tokens) == 0 {
		_, err := fmt.Fprintln(w, "No tokens")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tSYMBOL\tNAME\tPRICE\t24H")
	for _, tok := range tokens {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%+.2f%%\n",
			tok.ID,
			tok.Symbol,
			tok.Name,
			formatPrice(tok.CurrentPrice),
			tok.PriceChange24hPct,
		)
	}
	return tw.Flush()
}
