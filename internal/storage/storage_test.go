package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrixise/coinfolio/internal/state"
	"github.com/matrixise/coinfolio/internal/valuation"
)

func TestKVBackends(t *testing.T) {
	fileStore, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	backends := []struct {
		name string
		kv   KV
	}{
		{name: "memory", kv: NewMemory()},
		{name: "file", kv: fileStore},
	}

	for _, tt := range backends {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			defer tt.kv.Close()

			_, err := tt.kv.Get(ctx, "persist:root")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, tt.kv.Put(ctx, "persist:root", []byte(`{"a":1}`)))
			require.NoError(t, tt.kv.Put(ctx, "persist:0xAbC/1", []byte(`{"b":2}`)))
			require.NoError(t, tt.kv.Put(ctx, "persist:root", []byte(`{"a":2}`)))

			got, err := tt.kv.Get(ctx, "persist:root")
			require.NoError(t, err)
			assert.Equal(t, `{"a":2}`, string(got))

			got, err = tt.kv.Get(ctx, "persist:0xAbC/1")
			require.NoError(t, err)
			assert.Equal(t, `{"b":2}`, string(got))

			assert.NoError(t, tt.kv.Ping(ctx))
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	kv, err := Open(ctx, Options{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, kv)

	kv, err = Open(ctx, Options{Backend: "FILE", Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, kv)

	_, err = Open(ctx, Options{Backend: "file"})
	assert.Error(t, err)

	_, err = Open(ctx, Options{Backend: "postgres"})
	assert.Error(t, err)

	_, err = Open(ctx, Options{Backend: "redis"})
	assert.Error(t, err)

	_, err = Open(ctx, Options{Backend: "etcd"})
	assert.ErrorContains(t, err, "unknown storage backend")
}

func TestPersistKey(t *testing.T) {
	assert.Equal(t, "persist:root", PersistKey(""))
	assert.Equal(t, "persist:root", PersistKey("root"))
	assert.Equal(t, "persist:0xAbC", PersistKey("0xAbC"))
}

func TestDecodeDocument(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{name: "current version", data: `{"version":1,"watchlist":{"tokens":[]},"holdings":{"quantities":{}}}`},
		{name: "future version", data: `{"version":2}`, wantErr: ErrUnsupportedVersion},
		{name: "missing version", data: `{"watchlist":{"tokens":[]}}`, wantErr: ErrUnsupportedVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDocument([]byte(tt.data))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	_, err := DecodeDocument([]byte(`not json`))
	assert.Error(t, err)
}

func TestPersisterRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()

	store := state.NewStore(state.Initial())
	p := NewPersister(kv, store, "root", nil)
	loaded, err := p.Load(ctx)
	require.NoError(t, err)
	assert.False(t, loaded)

	p.Start()
	store.Dispatch(state.WatchAdd{Token: state.TokenSnapshot{ID: "bitcoin", Symbol: "BTC", CurrentPrice: 50000}})
	store.Dispatch(state.HoldingsUpsert{TokenID: "bitcoin", Quantity: 1.5})
	store.Dispatch(state.CatalogReplace{Entries: []state.TokenSnapshot{{ID: "tether"}}})
	p.Stop()

	data, err := kv.Get(ctx, "persist:root")
	require.NoError(t, err)
	assert.NotContains(t, string(data), "tether", "market data is not persisted")

	restored := state.NewStore(state.Initial())
	loaded, err = NewPersister(kv, restored, "root", nil).Load(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)

	s := restored.GetState()
	require.Equal(t, 1, s.Watchlist.Len())
	assert.Equal(t, 50000.0, s.Watchlist.Tokens[0].CurrentPrice)
	q, _ := s.Holdings.Quantity("bitcoin")
	assert.Equal(t, 1.5, q)
	assert.Empty(t, s.Market.Catalog)
}

func TestPersisterRejectsFutureVersion(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	require.NoError(t, kv.Put(ctx, PersistKey("root"), []byte(`{"version":99}`)))

	store := state.NewStore(state.Initial())
	_, err := NewPersister(kv, store, "root", nil).Load(ctx)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
	assert.Equal(t, 0, store.GetState().Watchlist.Len())
}

type countingKV struct {
	*Memory
	mu     sync.Mutex
	puts   int
	delay  time.Duration
	failed bool
}

func (c *countingKV) Put(ctx context.Context, key string, value []byte) error {
	time.Sleep(c.delay)
	c.mu.Lock()
	c.puts++
	c.mu.Unlock()
	if c.failed {
		return errors.New("disk full")
	}
	return c.Memory.Put(ctx, key, value)
}

func (c *countingKV) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.puts
}

func TestPersisterCoalescesWrites(t *testing.T) {
	kv := &countingKV{Memory: NewMemory(), delay: 20 * time.Millisecond}
	store := state.NewStore(state.Initial())
	p := NewPersister(kv, store, "root", nil)
	p.Start()

	for i := range 20 {
		store.Dispatch(state.HoldingsUpsert{TokenID: "bitcoin", Quantity: float64(i + 1)})
	}
	store.Dispatch(state.RequestStarted{Op: state.OpRefresh, Seq: 1})
	p.Stop()

	assert.Less(t, kv.count(), 20)
	assert.GreaterOrEqual(t, kv.count(), 1)

	data, err := kv.Get(context.Background(), PersistKey("root"))
	require.NoError(t, err)
	doc, err := DecodeDocument(data)
	require.NoError(t, err)
	assert.Equal(t, 20.0, doc.Holdings.Quantities["bitcoin"])
}

func TestPersisterWriteErrorsAreNotFatal(t *testing.T) {
	kv := &countingKV{Memory: NewMemory(), failed: true}
	store := state.NewStore(state.Initial())
	p := NewPersister(kv, store, "root", nil)
	p.Start()

	s := store.Dispatch(state.WatchAdd{Token: state.TokenSnapshot{ID: "bitcoin"}})
	p.Stop()

	assert.Equal(t, 1, s.Watchlist.Len())
	assert.Equal(t, 1, kv.count())
	assert.Error(t, p.Save(context.Background()))
}

func TestValuationRecords(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	v := valuation.Valuation{
		TotalValue: 55000,
		Rows: []valuation.Row{
			{TokenID: "bitcoin", Symbol: "BTC", Quantity: 1, Price: 50000, Value: 50000, Percentage: 90.909090909},
			{TokenID: "ethereum", Symbol: "ETH", Quantity: 2, Price: 2500, Value: 5000, Percentage: 9.090909091},
		},
	}

	records := ValuationRecords("root", at, v)
	require.Len(t, records, 2)
	assert.Equal(t, at, records[0].RecordedAt)
	assert.Equal(t, "root", records[0].Scope)
	assert.True(t, records[0].Percentage.Equal(decimal.RequireFromString("90.9091")))
	assert.True(t, records[1].Value.Equal(decimal.NewFromInt(5000)))

	assert.Empty(t, ValuationRecords("root", at, valuation.Valuation{}))
}
