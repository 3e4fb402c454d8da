package state

// Reducer computes the next state from the current one and an action
type Reducer func(State, Action) State

// Reduce is the root reducer. Request results older than the latest issued
// request of their operation are dropped, and the holdings ledger is
// reconciled whenever the watchlist entry set changes.
func Reduce(s State, a Action) State {
	if batch, ok := a.(Batch); ok {
		for _, inner := range batch {
			s = Reduce(s, inner)
		}
		return s
	}

	if Stale(s.Market, a) {
		return s
	}

	next := s
	var membershipChanged bool
	next.Watchlist, membershipChanged = reduceWatchlist(s.Watchlist, a)
	next.Holdings = reduceHoldings(s.Holdings, a)
	next.Market = reduceMarket(s.Market, a)

	if membershipChanged {
		next.Holdings = Reconcile(next.Watchlist, next.Holdings)
	}
	return next
}

// Stale reports whether a is a request result superseded by a newer request
func Stale(m Market, a Action) bool {
	op, seq, ok := completion(a)
	if !ok {
		return false
	}
	return seq != m.Status(op).Seq
}
