// Package dashboard exposes the user-facing commands of the portfolio:
// watchlist and holdings edits, price refresh, catalog browsing and search.
// Every command updates the shared store; results are read back from it.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/matrixise/coinfolio/internal/logger"
	"github.com/matrixise/coinfolio/internal/market"
	"github.com/matrixise/coinfolio/internal/state"
)

const (
	DefaultCatalogPageSize = 50
	DefaultSearchDebounce  = 300 * time.Millisecond
	DefaultRefreshGrace    = time.Second
	DefaultRequestTimeout  = 15 * time.Second
)

// ErrInvalidPage is returned for catalog pages below 1
var ErrInvalidPage = errors.New("catalog page must be >= 1")

// Gateway is the market-data source used by the dashboard
type Gateway interface {
	FetchByIDs(ctx context.Context, ids []string) ([]market.Coin, error)
	FetchCatalogPage(ctx context.Context, page, perPage int) ([]market.Coin, error)
	Search(ctx context.Context, query string) ([]market.Coin, error)
}

// Options configures a Dashboard
type Options struct {
	CatalogPageSize int
	SearchDebounce  time.Duration
	RefreshGrace    time.Duration
	// RequestTimeout bounds gateway calls started by timers
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// Dashboard runs user commands against a store and a gateway
type Dashboard struct {
	store   *state.Store
	gateway Gateway
	seq     state.Sequencer

	pageSize       int
	requestTimeout time.Duration
	search         *Debouncer
	refresh        *Debouncer

	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// New creates a dashboard. Close releases its pending timers.
func New(store *state.Store, gateway Gateway, opts Options) *Dashboard {
	if opts.CatalogPageSize <= 0 {
		opts.CatalogPageSize = DefaultCatalogPageSize
	}
	if opts.CatalogPageSize > market.MaxPerPage {
		opts.CatalogPageSize = market.MaxPerPage
	}
	if opts.SearchDebounce <= 0 {
		opts.SearchDebounce = DefaultSearchDebounce
	}
	if opts.RefreshGrace <= 0 {
		opts.RefreshGrace = DefaultRefreshGrace
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dashboard{
		store:          store,
		gateway:        gateway,
		pageSize:       opts.CatalogPageSize,
		requestTimeout: opts.RequestTimeout,
		search:         NewDebouncer(opts.SearchDebounce),
		refresh:        NewDebouncer(opts.RefreshGrace),
		ctx:            ctx,
		cancel:         cancel,
		logger:         logger.OrDefault(opts.Logger).With("component", "dashboard"),
	}
}

// Close cancels pending debounced work and in-flight timer-driven requests
func (d *Dashboard) Close() {
	d.search.Cancel()
	d.refresh.Cancel()
	d.cancel()
}

// State returns the current store state
func (d *Dashboard) State() state.State {
	return d.store.GetState()
}

// AddToWatchlist tracks tok. Adding a tracked id keeps the existing entry.
func (d *Dashboard) AddToWatchlist(tok state.TokenSnapshot) state.State {
	tok.ID = strings.TrimSpace(tok.ID)
	return d.store.Dispatch(state.WatchAdd{Token: tok})
}

// RemoveFromWatchlist drops the token and its holdings in one dispatch
func (d *Dashboard) RemoveFromWatchlist(id string) state.State {
	return d.store.Dispatch(state.Batch{
		state.WatchRemove{ID: id},
		state.HoldingsRemove{TokenID: id},
	})
}

// SetHoldings records the quantity held for id
func (d *Dashboard) SetHoldings(id string, quantity float64) state.State {
	return d.store.Dispatch(state.HoldingsUpsert{TokenID: id, Quantity: quantity})
}

// SetHoldingsText records a quantity typed by the user; unparseable input
// is stored as 0
func (d *Dashboard) SetHoldingsText(id, text string) state.State {
	return d.SetHoldings(id, state.ParseQuantity(text))
}

// ClearErrors resets the error of every remote operation
func (d *Dashboard) ClearErrors() state.State {
	return d.store.Dispatch(state.ErrorsCleared{})
}

// RefreshAll reloads market data for every watchlist token. It does nothing
// when the watchlist is empty.
func (d *Dashboard) RefreshAll(ctx context.Context) error {
	ids := d.store.GetState().Watchlist.IDs()
	if len(ids) == 0 {
		return nil
	}

	seq := d.seq.Next(state.OpRefresh)
	d.store.Dispatch(state.RequestStarted{Op: state.OpRefresh, Seq: seq})

	coins, err := d.gateway.FetchByIDs(ctx, ids)
	if err != nil {
		d.fail(state.OpRefresh, seq, err)
		return fmt.Errorf("refresh watchlist: %w", err)
	}

	d.store.Dispatch(state.RefreshLoaded{Seq: seq, Tokens: market.Snapshots(coins)})
	d.logger.Info("Watchlist refreshed", "requested", len(ids), "received", len(coins))
	return nil
}

// LoadCatalogPage loads page n of the full listing. Page 1 replaces the
// catalog and later pages append to it.
func (d *Dashboard) LoadCatalogPage(ctx context.Context, page int) error {
	if page < 1 {
		return ErrInvalidPage
	}

	seq := d.seq.Next(state.OpCatalog)
	d.store.Dispatch(state.RequestStarted{Op: state.OpCatalog, Seq: seq})

	coins, err := d.gateway.FetchCatalogPage(ctx, page, d.pageSize)
	if err != nil {
		d.fail(state.OpCatalog, seq, err)
		return fmt.Errorf("load catalog page %d: %w", page, err)
	}

	next := d.store.Dispatch(state.CatalogPageLoaded{Seq: seq, Page: page, Entries: market.Snapshots(coins)})
	if next.Market.Exhausted {
		d.logger.Info("Catalog exhausted", "page", page)
	} else {
		d.logger.Debug("Catalog page loaded", "page", page, "entries", len(coins))
	}
	return nil
}

// LoadNextPage continues the listing. It reports false without a request
// when the listing is exhausted, a page is already loading, or a search is
// active.
func (d *Dashboard) LoadNextPage(ctx context.Context) (bool, error) {
	m := d.store.GetState().Market
	if m.Exhausted || m.CatalogStatus.Loading || m.Query != "" {
		return false, nil
	}
	if err := d.LoadCatalogPage(ctx, m.Page+1); err != nil {
		return true, err
	}
	return true, nil
}

// SearchCatalog searches immediately. Queries too short to search clear the
// results and supersede any search still in flight.
func (d *Dashboard) SearchCatalog(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	seq := d.seq.Next(state.OpSearch)

	if !market.IsSearchable(query) {
		d.store.Dispatch(state.Batch{
			state.RequestStarted{Op: state.OpSearch, Seq: seq},
			state.SearchCleared{},
		})
		return nil
	}

	d.store.Dispatch(state.RequestStarted{Op: state.OpSearch, Seq: seq})

	coins, err := d.gateway.Search(ctx, query)
	if err != nil {
		d.fail(state.OpSearch, seq, err)
		return fmt.Errorf("search %q: %w", query, err)
	}

	next := d.store.Dispatch(state.SearchLoaded{Seq: seq, Query: query, Results: market.Snapshots(coins)})
	if next.Market.Query != query {
		d.logger.Debug("Discarded superseded search results", "query", query)
	}
	return nil
}

// QueueSearch debounces query input; only the last query of a burst is
// searched, once the quiet period has elapsed
func (d *Dashboard) QueueSearch(query string) {
	d.search.Trigger(func() {
		ctx, cancel := context.WithTimeout(d.ctx, d.requestTimeout)
		defer cancel()
		if err := d.SearchCatalog(ctx, query); err != nil {
			d.logger.Warn("Search failed", "query", query, "error", err)
		}
	})
}

// WatchAutoRefresh refreshes prices after the grace period whenever the
// watchlist size changes to a non-empty value, and once at start when the
// watchlist is already populated. The returned function stops watching.
func (d *Dashboard) WatchAutoRefresh() func() {
	lastLen := d.store.GetState().Watchlist.Len()
	if lastLen > 0 {
		d.scheduleRefresh()
	}

	unsubscribe := d.store.Subscribe(func(s state.State) {
		n := s.Watchlist.Len()
		if n == lastLen {
			return
		}
		lastLen = n
		if n == 0 {
			d.refresh.Cancel()
			return
		}
		d.scheduleRefresh()
	})

	return func() {
		unsubscribe()
		d.refresh.Cancel()
	}
}

// RefreshPending reports whether an automatic refresh is waiting for its
// grace period
func (d *Dashboard) RefreshPending() bool {
	return d.refresh.Pending()
}

func (d *Dashboard) scheduleRefresh() {
	d.refresh.Trigger(func() {
		ctx, cancel := context.WithTimeout(d.ctx, d.requestTimeout)
		defer cancel()
		if err := d.RefreshAll(ctx); err != nil {
			d.logger.Warn("Automatic refresh failed", "error", err)
		}
	})
}

func (d *Dashboard) fail(op state.Operation, seq uint64, err error) {
	d.store.Dispatch(state.RequestFailed{Op: op, Seq: seq, Err: err.Error()})
	d.logger.Warn("Market request failed", "op", op, "error", err)
}
