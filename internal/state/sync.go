package state

// Reconcile gives every watchlist token a holdings entry, creating missing
// ones at zero. Entries without a watchlist token are kept. When nothing is
// missing h is returned unchanged.
func Reconcile(w Watchlist, h Holdings) Holdings {
	var next map[string]float64
	for _, tok := range w.Tokens {
		if _, ok := h.Quantities[tok.ID]; ok {
			continue
		}
		if next == nil {
			next = cloneQuantities(h.Quantities)
		}
		next[tok.ID] = 0
	}
	if next == nil {
		return h
	}
	return Holdings{Quantities: next}
}
