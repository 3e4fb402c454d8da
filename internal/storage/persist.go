package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/matrixise/coinfolio/internal/logger"
	"github.com/matrixise/coinfolio/internal/state"
)

// DocumentVersion is the persisted document format written by this build
const DocumentVersion = 1

const writeTimeout = 10 * time.Second

// ErrUnsupportedVersion is returned when a stored document is newer than this
// build understands
var ErrUnsupportedVersion = errors.New("unsupported persisted document version")

// Document is the persisted subset of the application state
type Document struct {
	Version   int             `json:"version"`
	Watchlist state.Watchlist `json:"watchlist"`
	Holdings  state.Holdings  `json:"holdings"`
}

// PersistKey returns the KV key for a persistence scope
func PersistKey(scope string) string {
	if scope == "" {
		scope = "root"
	}
	return "persist:" + scope
}

// Persister mirrors the watchlist and holdings of a store into a KV
type Persister struct {
	kv     KV
	store  *state.Store
	key    string
	logger *slog.Logger

	mu          sync.Mutex
	pending     chan Document
	stop        chan struct{}
	done        chan struct{}
	unsubscribe func()
	last        Document
}

// NewPersister creates a persister for scope
func NewPersister(kv KV, store *state.Store, scope string, l *slog.Logger) *Persister {
	return &Persister{
		kv:     kv,
		store:  store,
		key:    PersistKey(scope),
		logger: logger.OrDefault(l).With("component", "persist", "key", PersistKey(scope)),
	}
}

// Load rehydrates the store from the KV. It reports false when nothing has
// been stored yet.
func (p *Persister) Load(ctx context.Context) (bool, error) {
	data, err := p.kv.Get(ctx, p.key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load state: %w", err)
	}

	doc, err := DecodeDocument(data)
	if err != nil {
		return false, err
	}

	s := p.store.Dispatch(state.Hydrate{Watchlist: doc.Watchlist, Holdings: doc.Holdings})
	p.mu.Lock()
	p.last = snapshot(s)
	p.mu.Unlock()

	p.logger.Info("State restored", "tokens", s.Watchlist.Len(), "holdings", s.Holdings.Len())
	return true, nil
}

// Save writes the current state synchronously
func (p *Persister) Save(ctx context.Context) error {
	return p.write(ctx, snapshot(p.store.GetState()))
}

// Start mirrors every subsequent watchlist or holdings change. Writes run on
// a background goroutine; when several changes queue up only the latest is
// written.
func (p *Persister) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return
	}

	p.pending = make(chan Document, 1)
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	if p.last.Version == 0 {
		p.last = snapshot(p.store.GetState())
	}

	go p.run()
	p.unsubscribe = p.store.Subscribe(p.onChange)
}

// Stop unsubscribes and flushes the pending write, if any
func (p *Persister) Stop() {
	p.mu.Lock()
	if p.stop == nil {
		p.mu.Unlock()
		return
	}
	p.unsubscribe()
	close(p.stop)
	done := p.done
	p.stop = nil
	p.mu.Unlock()

	<-done
}

func (p *Persister) onChange(s state.State) {
	doc := snapshot(s)

	p.mu.Lock()
	unchanged := reflect.DeepEqual(doc, p.last)
	if !unchanged {
		p.last = doc
	}
	pending := p.pending
	p.mu.Unlock()

	if unchanged {
		return
	}

	for {
		select {
		case pending <- doc:
			return
		default:
		}
		select {
		case <-pending:
		default:
		}
	}
}

func (p *Persister) run() {
	defer close(p.done)
	for {
		select {
		case doc := <-p.pending:
			p.writeLogged(doc)
		case <-p.stop:
			select {
			case doc := <-p.pending:
				p.writeLogged(doc)
			default:
			}
			return
		}
	}
}

func (p *Persister) writeLogged(doc Document) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := p.write(ctx, doc); err != nil {
		p.logger.Error("Failed to persist state", "error", err)
	}
}

func (p *Persister) write(ctx context.Context, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := p.kv.Put(ctx, p.key, data); err != nil {
		return fmt.Errorf("failed to persist state: %w", err)
	}
	p.logger.Debug("State persisted", "bytes", len(data))
	return nil
}

// DecodeDocument parses a stored document and rejects unknown versions
func DecodeDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("failed to decode state: %w", err)
	}
	if doc.Version < 1 || doc.Version > DocumentVersion {
		return Document{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	return doc, nil
}

func snapshot(s state.State) Document {
	return Document{Version: DocumentVersion, Watchlist: s.Watchlist, Holdings: s.Holdings}
}
