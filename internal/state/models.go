package state

// TokenSnapshot is the latest known market data for one token
type TokenSnapshot struct {
	ID                string    `json:"id"`
	Symbol            string    `json:"symbol"`
	Name              string    `json:"name"`
	ImageURL          string    `json:"image"`
	CurrentPrice      float64   `json:"current_price"`
	PriceChange24hPct float64   `json:"price_change_24h"`
	Sparkline7d       []float64 `json:"sparkline_in_7d"`
}

// Watchlist is the insertion-ordered set of tracked tokens
type Watchlist struct {
	Tokens []TokenSnapshot `json:"tokens"`
}

// Index returns the position of id, or -1
func (w Watchlist) Index(id string) int {
	for i := range w.Tokens {
		if w.Tokens[i].ID == id {
			return i
		}
	}
	return -1
}

// Get returns the snapshot for id
func (w Watchlist) Get(id string) (TokenSnapshot, bool) {
	if i := w.Index(id); i >= 0 {
		return w.Tokens[i], true
	}
	return TokenSnapshot{}, false
}

// IDs returns the token ids in watchlist order
func (w Watchlist) IDs() []string {
	ids := make([]string, len(w.Tokens))
	for i := range w.Tokens {
		ids[i] = w.Tokens[i].ID
	}
	return ids
}

// Len returns the number of tracked tokens
func (w Watchlist) Len() int {
	return len(w.Tokens)
}

// Holdings maps a token id to the user-declared quantity
type Holdings struct {
	Quantities map[string]float64 `json:"quantities"`
}

// Quantity returns the stored quantity for id
func (h Holdings) Quantity(id string) (float64, bool) {
	q, ok := h.Quantities[id]
	return q, ok
}

// Len returns the number of ledger entries
func (h Holdings) Len() int {
	return len(h.Quantities)
}

// Operation names a remote request family tracked in the market slice
type Operation string

const (
	OpRefresh Operation = "refresh"
	OpCatalog Operation = "catalog"
	OpSearch  Operation = "search"
)

// Operations lists every tracked operation
var Operations = []Operation{OpRefresh, OpCatalog, OpSearch}

// Request is the observable status of the latest request for an operation
type Request struct {
	Seq     uint64 `json:"seq"`
	Loading bool   `json:"loading"`
	Err     string `json:"error,omitempty"`
}

// Market is the remote data cache. It is rebuilt every session.
type Market struct {
	Catalog   []TokenSnapshot `json:"catalog"`
	Page      int             `json:"page"`
	Exhausted bool            `json:"exhausted"`

	Query         string          `json:"query"`
	SearchResults []TokenSnapshot `json:"search_results"`

	Refresh       Request `json:"refresh"`
	CatalogStatus Request `json:"catalog_status"`
	Search        Request `json:"search"`
}

// Status returns the request status for op
func (m Market) Status(op Operation) Request {
	switch op {
	case OpRefresh:
		return m.Refresh
	case OpCatalog:
		return m.CatalogStatus
	case OpSearch:
		return m.Search
	}
	return Request{}
}

func (m *Market) status(op Operation) *Request {
	switch op {
	case OpRefresh:
		return &m.Refresh
	case OpCatalog:
		return &m.CatalogStatus
	case OpSearch:
		return &m.Search
	}
	return nil
}

// State is the whole application state
type State struct {
	Watchlist Watchlist `json:"watchlist"`
	Holdings  Holdings  `json:"holdings"`
	Market    Market    `json:"market"`
}

// Initial returns an empty state
func Initial() State {
	return State{
		Holdings: Holdings{Quantities: map[string]float64{}},
		Market:   Market{},
	}
}
