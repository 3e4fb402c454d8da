package state

// Action is a state transition request handled by Reduce
type Action interface {
	Type() string
}

type (
	// WatchAdd inserts Token unless its id is already tracked
	WatchAdd struct{ Token TokenSnapshot }
	// WatchRemove deletes the entry with ID
	WatchRemove struct{ ID string }
	// WatchUpdateMany replaces existing entries in place
	WatchUpdateMany struct{ Tokens []TokenSnapshot }

	// HoldingsUpsert stores a normalized quantity for TokenID
	HoldingsUpsert struct {
		TokenID  string
		Quantity float64
	}
	// HoldingsRemove deletes the ledger entry for TokenID
	HoldingsRemove struct{ TokenID string }

	// CatalogReplace swaps the browse catalog wholesale
	CatalogReplace struct{ Entries []TokenSnapshot }
	// CatalogAppend adds entries to the end of the browse catalog
	CatalogAppend struct{ Entries []TokenSnapshot }

	// RequestStarted marks Seq as the latest request issued for Op
	RequestStarted struct {
		Op  Operation
		Seq uint64
	}
	// RequestFailed records an error for the request Seq of Op
	RequestFailed struct {
		Op  Operation
		Seq uint64
		Err string
	}
	// RefreshLoaded carries fresh snapshots for watchlist tokens
	RefreshLoaded struct {
		Seq    uint64
		Tokens []TokenSnapshot
	}
	// CatalogPageLoaded carries one page of the browse catalog
	CatalogPageLoaded struct {
		Seq     uint64
		Page    int
		Entries []TokenSnapshot
	}
	// SearchLoaded carries the results of a catalog search
	SearchLoaded struct {
		Seq     uint64
		Query   string
		Results []TokenSnapshot
	}
	// SearchCleared drops search results and the search error
	SearchCleared struct{}
	// ErrorsCleared resets every request error
	ErrorsCleared struct{}

	// Hydrate replaces the persisted slices with stored values
	Hydrate struct {
		Watchlist Watchlist
		Holdings  Holdings
	}

	// Batch applies several actions within one dispatch
	Batch []Action
)

func (WatchAdd) Type() string          { return "watchlist/add" }
func (WatchRemove) Type() string       { return "watchlist/remove" }
func (WatchUpdateMany) Type() string   { return "watchlist/updateMany" }
func (HoldingsUpsert) Type() string    { return "holdings/upsert" }
func (HoldingsRemove) Type() string    { return "holdings/remove" }
func (CatalogReplace) Type() string    { return "market/catalogReplace" }
func (CatalogAppend) Type() string     { return "market/catalogAppend" }
func (RequestStarted) Type() string    { return "market/requestStarted" }
func (RequestFailed) Type() string     { return "market/requestFailed" }
func (RefreshLoaded) Type() string     { return "market/refreshLoaded" }
func (CatalogPageLoaded) Type() string { return "market/catalogPageLoaded" }
func (SearchLoaded) Type() string      { return "market/searchLoaded" }
func (SearchCleared) Type() string     { return "market/searchCleared" }
func (ErrorsCleared) Type() string     { return "market/errorsCleared" }
func (Hydrate) Type() string           { return "persist/hydrate" }
func (Batch) Type() string             { return "batch" }

// completion returns the operation and sequence number of a request
// result, or false when a is not one
func completion(a Action) (Operation, uint64, bool) {
	switch a := a.(type) {
	case RequestFailed:
		return a.Op, a.Seq, true
	case RefreshLoaded:
		return OpRefresh, a.Seq, true
	case CatalogPageLoaded:
		return OpCatalog, a.Seq, true
	case SearchLoaded:
		return OpSearch, a.Seq, true
	}
	return "", 0, false
}
