package state

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// QuantityPrecision is the number of fractional digits kept for holdings
	QuantityPrecision = 6
	// MaxQuantity bounds stored quantities so values stay finite
	MaxQuantity = 1e15
)

// NormalizeQuantity clamps q to a finite value within [0, MaxQuantity]
// rounded to QuantityPrecision digits. NaN and infinities become 0.
func NormalizeQuantity(q float64) float64 {
	if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 {
		return 0
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return decimal.NewFromFloat(q).Round(QuantityPrecision).InexactFloat64()
}

// ParseQuantity reads user input as a quantity. Empty or malformed input
// yields 0.
func ParseQuantity(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	q, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return NormalizeQuantity(q)
}

func reduceHoldings(h Holdings, a Action) Holdings {
	switch a := a.(type) {
	case HoldingsUpsert:
		if a.TokenID == "" {
			return h
		}
		return upsertHolding(h, a.TokenID, NormalizeQuantity(a.Quantity))
	case HoldingsRemove:
		if _, ok := h.Quantities[a.TokenID]; !ok {
			return h
		}
		next := cloneQuantities(h.Quantities)
		delete(next, a.TokenID)
		return Holdings{Quantities: next}
	case Hydrate:
		next := make(map[string]float64, len(a.Holdings.Quantities))
		for id, q := range a.Holdings.Quantities {
			if id != "" {
				next[id] = NormalizeQuantity(q)
			}
		}
		return Holdings{Quantities: next}
	}
	return h
}

func upsertHolding(h Holdings, id string, q float64) Holdings {
	if cur, ok := h.Quantities[id]; ok && cur == q {
		return h
	}
	next := cloneQuantities(h.Quantities)
	next[id] = q
	return Holdings{Quantities: next}
}

func cloneQuantities(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
