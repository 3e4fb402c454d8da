package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/matrixise/coinfolio/internal/valuation"
)

// ValuationRecord is one row of a recorded portfolio valuation
type ValuationRecord struct {
	ID         int64
	RecordedAt time.Time
	Scope      string
	TokenID    string
	Symbol     string
	Quantity   decimal.Decimal
	Price      decimal.Decimal
	Value      decimal.Decimal
	Percentage decimal.Decimal
}

// ValuationRecords converts a computed valuation into rows stamped with at
func ValuationRecords(scope string, at time.Time, v valuation.Valuation) []ValuationRecord {
	records := make([]ValuationRecord, 0, len(v.Rows))
	for _, row := range v.Rows {
		records = append(records, ValuationRecord{
			RecordedAt: at,
			Scope:      scope,
			TokenID:    row.TokenID,
			Symbol:     row.Symbol,
			Quantity:   decimal.NewFromFloat(row.Quantity),
			Price:      decimal.NewFromFloat(row.Price),
			Value:      decimal.NewFromFloat(row.Value).Round(8),
			Percentage: decimal.NewFromFloat(row.Percentage).Round(4),
		})
	}
	return records
}
