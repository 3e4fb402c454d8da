// Package valuation derives portfolio values and chart data from the
// watchlist and holdings ledger. Every function is pure; nothing is cached.
package valuation

import (
	"math"

	"github.com/matrixise/coinfolio/internal/state"
)

// Row is the value of one held token
type Row struct {
	TokenID    string  `json:"token_id"`
	Symbol     string  `json:"symbol"`
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	Price      float64 `json:"price"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// Valuation is the portfolio breakdown. Rows holds only tokens with a
// positive value, in watchlist order.
type Valuation struct {
	TotalValue float64 `json:"total_value"`
	Rows       []Row   `json:"rows"`
}

// Compute values every watchlist token at its current price. Tokens without
// a holdings entry count as zero.
func Compute(w state.Watchlist, h state.Holdings) Valuation {
	rows := make([]Row, 0, len(w.Tokens))
	var total float64

	for _, tok := range w.Tokens {
		qty, _ := h.Quantity(tok.ID)
		value := clampFinite(qty * tok.CurrentPrice)
		if value <= 0 {
			continue
		}
		total = clampFinite(total + value)
		rows = append(rows, Row{
			TokenID:  tok.ID,
			Symbol:   tok.Symbol,
			Name:     tok.Name,
			Quantity: qty,
			Price:    tok.CurrentPrice,
			Value:    value,
		})
	}

	if total > 0 {
		for i := range rows {
			rows[i].Percentage = rows[i].Value / total * 100
		}
	}

	return Valuation{TotalValue: total, Rows: rows}
}

// Value returns the value of a single token position, 0 when not held
func Value(w state.Watchlist, h state.Holdings, id string) float64 {
	tok, ok := w.Get(id)
	if !ok {
		return 0
	}
	qty, _ := h.Quantity(id)
	return clampFinite(qty * tok.CurrentPrice)
}

// clampFinite maps overflow to the largest float and NaN to 0
func clampFinite(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}
