package state

func reduceMarket(m Market, a Action) Market {
	switch a := a.(type) {
	case CatalogReplace:
		m.Catalog = cloneSnapshots(a.Entries)
	case CatalogAppend:
		m.Catalog = appendSnapshots(m.Catalog, a.Entries)
	case RequestStarted:
		st := m.status(a.Op)
		if st == nil {
			return m
		}
		if a.Seq > st.Seq {
			st.Seq = a.Seq
		}
		st.Loading = true
		st.Err = ""
	case RequestFailed:
		if st := m.status(a.Op); st != nil {
			st.Loading = false
			st.Err = a.Err
		}
	case RefreshLoaded:
		m.Refresh.Loading = false
		m.Refresh.Err = ""
	case CatalogPageLoaded:
		m.CatalogStatus.Loading = false
		m.CatalogStatus.Err = ""
		m = applyPage(m, a.Page, a.Entries)
	case SearchLoaded:
		m.Search.Loading = false
		m.Search.Err = ""
		m.Query = a.Query
		m.SearchResults = cloneSnapshots(a.Results)
	case SearchCleared:
		m.Query = ""
		m.SearchResults = nil
		m.Search.Err = ""
		m.Search.Loading = false
	case ErrorsCleared:
		m.Refresh.Err = ""
		m.CatalogStatus.Err = ""
		m.Search.Err = ""
	}
	return m
}

// applyPage merges a loaded page into the browse catalog. Page 1 replaces
// the catalog, later pages append, and an empty page marks the listing
// as exhausted without moving the cursor.
func applyPage(m Market, page int, entries []TokenSnapshot) Market {
	if len(entries) == 0 {
		m.Exhausted = true
		if page <= 1 {
			m.Catalog = nil
			m.Page = 0
		}
		return m
	}
	if page <= 1 {
		m.Catalog = cloneSnapshots(entries)
		m.Page = 1
		m.Exhausted = false
		return m
	}
	m.Catalog = appendSnapshots(m.Catalog, entries)
	m.Page = page
	return m
}

func cloneSnapshots(in []TokenSnapshot) []TokenSnapshot {
	if in == nil {
		return nil
	}
	out := make([]TokenSnapshot, len(in))
	for i := range in {
		out[i] = cloneSnapshot(in[i])
	}
	return out
}

func appendSnapshots(dst, src []TokenSnapshot) []TokenSnapshot {
	out := make([]TokenSnapshot, len(dst), len(dst)+len(src))
	copy(out, dst)
	for i := range src {
		out = append(out, cloneSnapshot(src[i]))
	}
	return out
}
