package state

// reduceWatchlist applies watchlist actions. The second result reports
// whether the entry set (not just entry data) changed.
func reduceWatchlist(w Watchlist, a Action) (Watchlist, bool) {
	switch a := a.(type) {
	case WatchAdd:
		return addToken(w, a.Token)
	case WatchRemove:
		return removeToken(w, a.ID)
	case WatchUpdateMany:
		return updateTokens(w, a.Tokens), false
	case RefreshLoaded:
		return updateTokens(w, a.Tokens), false
	case Hydrate:
		return dedupe(a.Watchlist), true
	}
	return w, false
}

func addToken(w Watchlist, tok TokenSnapshot) (Watchlist, bool) {
	if tok.ID == "" || w.Index(tok.ID) >= 0 {
		return w, false
	}
	tokens := make([]TokenSnapshot, len(w.Tokens), len(w.Tokens)+1)
	copy(tokens, w.Tokens)
	return Watchlist{Tokens: append(tokens, cloneSnapshot(tok))}, true
}

func removeToken(w Watchlist, id string) (Watchlist, bool) {
	i := w.Index(id)
	if i < 0 {
		return w, false
	}
	tokens := make([]TokenSnapshot, 0, len(w.Tokens)-1)
	tokens = append(tokens, w.Tokens[:i]...)
	tokens = append(tokens, w.Tokens[i+1:]...)
	return Watchlist{Tokens: tokens}, true
}

// updateTokens replaces matching entries in place and ignores unknown ids
func updateTokens(w Watchlist, updates []TokenSnapshot) Watchlist {
	var tokens []TokenSnapshot
	for _, u := range updates {
		i := w.Index(u.ID)
		if i < 0 {
			continue
		}
		if tokens == nil {
			tokens = make([]TokenSnapshot, len(w.Tokens))
			copy(tokens, w.Tokens)
		}
		tokens[i] = cloneSnapshot(u)
	}
	if tokens == nil {
		return w
	}
	return Watchlist{Tokens: tokens}
}

// dedupe keeps the first occurrence of every id
func dedupe(w Watchlist) Watchlist {
	out := Watchlist{Tokens: make([]TokenSnapshot, 0, len(w.Tokens))}
	for _, tok := range w.Tokens {
		out, _ = addToken(out, tok)
	}
	return out
}

func cloneSnapshot(t TokenSnapshot) TokenSnapshot {
	if t.Sparkline7d != nil {
		t.Sparkline7d = append([]float64(nil), t.Sparkline7d...)
	}
	return t
}
