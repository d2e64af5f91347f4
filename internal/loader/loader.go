// Package loader drives the catalog list screen: an incrementally growing
// page list, a single-result search mode, debounced query input, and
// supersession of stale fetches.
//
// Every fetch is stamped with the loader's generation at issue time. Issuing
// a new fetch bumps the generation and cancels the previous fetch's context;
// a result is applied only if its stamp still matches, so a late response
// can never overwrite newer state.
package loader

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"pokedex/internal/catalog"

	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period before a query change is evaluated.
const DefaultDebounce = 400 * time.Millisecond

type Mode int

const (
	Browsing Mode = iota
	Searching
)

func (m Mode) String() string {
	switch m {
	case Browsing:
		return "browsing"
	case Searching:
		return "searching"
	default:
		return "unknown"
	}
}

// State is a read-only snapshot of the list screen.
type State struct {
	Entries     []catalog.Entry
	CurrentPage int
	HasMore     bool
	Mode        Mode
	ActiveQuery string
	Loading     bool
}

// Fetcher supplies pages and single entries. catalog.Service implements it.
type Fetcher interface {
	FetchPage(ctx context.Context, page int) (catalog.Page, error)
	FetchEntry(ctx context.Context, name string) (catalog.Entry, error)
}

type Options struct {
	Debounce time.Duration
	Logger   *zap.Logger
}

type Loader struct {
	fetcher   Fetcher
	logger    *zap.Logger
	debouncer *Debouncer

	mu       sync.Mutex
	state    State
	gen      uint64
	querySeq uint64
	// loaded is the last page applied in the current browsing session; 0
	// until the first page succeeds.
	loaded  int
	cancel  context.CancelFunc
	closed  bool
	updates chan State

	wg sync.WaitGroup
}

func New(fetcher Fetcher, opts Options) *Loader {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Loader{
		fetcher:   fetcher,
		logger:    opts.Logger,
		debouncer: NewDebouncer(opts.Debounce),
		state:     initialState(),
		updates:   make(chan State, 1),
	}
}

func initialState() State {
	return State{Entries: []catalog.Entry{}, CurrentPage: 1, HasMore: true, Mode: Browsing}
}

// State returns a snapshot of the current state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Updates delivers the latest snapshot after every change. Only the newest
// undelivered snapshot is kept. The channel is closed by Close.
func (l *Loader) Updates() <-chan State {
	return l.updates
}

// Start resets to the first page in browsing mode and fetches it.
func (l *Loader) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.startLocked()
}

func (l *Loader) startLocked() {
	l.state = initialState()
	l.loaded = 0
	l.fetchPageLocked(1)
}

// LoadMore fetches the page after the last one that loaded, which is page 1
// again if the first fetch failed. It does nothing while a fetch is in
// flight, after the last page, or in search mode.
func (l *Loader) LoadMore() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.state.Loading || !l.state.HasMore || l.state.Mode == Searching {
		return
	}
	l.fetchPageLocked(l.loaded + 1)
}

// SetQuery records text and evaluates it once input has been quiet for the
// debounce window. Empty text returns to browsing; anything else searches
// for exactly that (trimmed, lowercased) name.
func (l *Loader) SetQuery(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.querySeq++
	seq := l.querySeq
	// Scheduling under l.mu keeps timer order equal to seq order.
	l.debouncer.Trigger(func() { l.applyQuery(seq, text) })
}

func (l *Loader) applyQuery(seq uint64, text string) {
	query := strings.ToLower(strings.TrimSpace(text))

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || seq != l.querySeq {
		return
	}
	if query == "" {
		l.startLocked()
		return
	}

	l.state = State{Entries: []catalog.Entry{}, CurrentPage: 1, HasMore: false, Mode: Searching, ActiveQuery: query}
	l.loaded = 0
	l.searchLocked(query)
}

// Close stops the debounce timer, cancels in-flight work and waits for
// fetch goroutines to return. Late results are discarded.
func (l *Loader) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.gen++
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	close(l.updates)
	l.mu.Unlock()

	l.debouncer.Stop()
	l.wg.Wait()
}

// beginLocked supersedes whatever is in flight and returns the context and
// stamp for a new fetch.
func (l *Loader) beginLocked() (context.Context, uint64) {
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.state.Loading = true
	l.publishLocked()
	return ctx, l.gen
}

func (l *Loader) fetchPageLocked(page int) {
	ctx, gen := l.beginLocked()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		result, err := l.fetcher.FetchPage(ctx, page)
		if err != nil {
			l.finish(gen, err, zap.Int("page", page))
			return
		}
		l.finish(gen, nil, zap.Int("page", page), func(s *State) {
			s.Entries = append(s.Entries, result.Entries...)
			s.CurrentPage = page
			l.loaded = page
			s.HasMore = result.HasMore
		})
	}()
}

func (l *Loader) searchLocked(query string) {
	ctx, gen := l.beginLocked()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		entry, err := l.fetcher.FetchEntry(ctx, query)
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			l.finish(gen, nil, zap.String("query", query), func(s *State) {
				s.Entries = []catalog.Entry{}
			})
		case err != nil:
			l.finish(gen, err, zap.String("query", query))
		default:
			l.finish(gen, nil, zap.String("query", query), func(s *State) {
				s.Entries = []catalog.Entry{entry}
			})
		}
	}()
}

// finish applies a completed fetch if it is still the current one.
func (l *Loader) finish(gen uint64, err error, field zap.Field, apply ...func(*State)) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.gen {
		l.logger.Debug("discarding superseded result", field, zap.Uint64("generation", gen))
		return
	}
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.state.Loading = false

	if err != nil {
		l.logger.Warn("catalog fetch failed", field, zap.Error(err))
	} else {
		for _, fn := range apply {
			fn(&l.state)
		}
	}
	l.publishLocked()
}

func (l *Loader) snapshotLocked() State {
	s := l.state
	s.Entries = slices.Clone(l.state.Entries)
	return s
}

func (l *Loader) publishLocked() {
	if l.closed {
		return
	}
	snap := l.snapshotLocked()
	select {
	case <-l.updates:
	default:
	}
	select {
	case l.updates <- snap:
	default:
	}
}
