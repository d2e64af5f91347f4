package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"pokedex/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	testPageSize = 50
	testDebounce = 20 * time.Millisecond
	waitFor      = 2 * time.Second
	tick         = 5 * time.Millisecond
)

// fakeFetcher serves generated pages and named entries. A gate registered
// for a call key ("page:2", "name:pikachu") holds that call until released.
type fakeFetcher struct {
	mu        sync.Mutex
	lastPage  int
	pageErr   map[int]error
	entries   map[string]catalog.Entry
	nameErr   map[string]error
	gates     map[string]chan struct{}
	calls     []string
	completed []string
	// ignoreCancel lets a gated call return its result after the caller's
	// context is cancelled, like a response already on the wire.
	ignoreCancel bool
}

func newFakeFetcher(lastPage int) *fakeFetcher {
	return &fakeFetcher{
		lastPage: lastPage,
		pageErr:  map[int]error{},
		entries:  map[string]catalog.Entry{},
		nameErr:  map[string]error{},
		gates:    map[string]chan struct{}{},
	}
}

func (f *fakeFetcher) gate(key string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[key] = ch
	return ch
}

func (f *fakeFetcher) enter(ctx context.Context, key string) error {
	f.mu.Lock()
	f.calls = append(f.calls, key)
	gate := f.gates[key]
	ignore := f.ignoreCancel
	f.mu.Unlock()

	if gate != nil {
		if ignore {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

func (f *fakeFetcher) leave(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, key)
}

func (f *fakeFetcher) FetchPage(ctx context.Context, page int) (catalog.Page, error) {
	key := fmt.Sprintf("page:%d", page)
	defer f.leave(key)
	if err := f.enter(ctx, key); err != nil {
		return catalog.Page{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.pageErr[page]; err != nil {
		return catalog.Page{}, err
	}
	entries := make([]catalog.Entry, testPageSize)
	for i := range entries {
		n := (page-1)*testPageSize + i + 1
		entries[i] = catalog.Entry{ID: n, Name: fmt.Sprintf("pokemon-%d", n), Types: []string{"normal"}}
	}
	return catalog.Page{Number: page, Entries: entries, HasMore: page < f.lastPage}, nil
}

func (f *fakeFetcher) FetchEntry(ctx context.Context, name string) (catalog.Entry, error) {
	key := "name:" + name
	defer f.leave(key)
	if err := f.enter(ctx, key); err != nil {
		return catalog.Entry{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.nameErr[name]; err != nil {
		return catalog.Entry{}, err
	}
	e, ok := f.entries[name]
	if !ok {
		return catalog.Entry{}, fmt.Errorf("%w: %s", catalog.ErrNotFound, name)
	}
	return e, nil
}

func (f *fakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeFetcher) Completed(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.completed {
		if c == key {
			return true
		}
	}
	return false
}

func newTestLoader(t *testing.T, f *fakeFetcher) *Loader {
	t.Helper()
	l := New(f, Options{Debounce: testDebounce})
	t.Cleanup(l.Close)
	return l
}

func waitIdle(t *testing.T, l *Loader) State {
	t.Helper()
	require.Eventually(t, func() bool { return !l.State().Loading }, waitFor, tick)
	return l.State()
}

func waitForCall(t *testing.T, f *fakeFetcher, key string) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, c := range f.Calls() {
			if c == key {
				return true
			}
		}
		return false
	}, waitFor, tick)
}

func TestLoader_Start(t *testing.T) {
	f := newFakeFetcher(3)
	l := newTestLoader(t, f)

	l.Start()
	s := waitIdle(t, l)

	assert.Len(t, s.Entries, 50)
	assert.True(t, s.HasMore)
	assert.Equal(t, 1, s.CurrentPage)
	assert.Equal(t, Browsing, s.Mode)
	assert.Equal(t, "", s.ActiveQuery)
}

func TestLoader_LoadMoreAppends(t *testing.T) {
	f := newFakeFetcher(3)
	l := newTestLoader(t, f)

	l.Start()
	first := waitIdle(t, l)

	l.LoadMore()
	s := waitIdle(t, l)

	require.Len(t, s.Entries, 100)
	assert.Equal(t, first.Entries, s.Entries[:50])
	assert.Equal(t, "pokemon-51", s.Entries[50].Name)
	assert.Equal(t, 2, s.CurrentPage)
	assert.True(t, s.HasMore)
}

func TestLoader_LoadMoreStopsAtLastPage(t *testing.T) {
	f := newFakeFetcher(2)
	l := newTestLoader(t, f)

	l.Start()
	waitIdle(t, l)
	l.LoadMore()
	s := waitIdle(t, l)
	require.False(t, s.HasMore)

	l.LoadMore()
	assert.Equal(t, s, l.State())
	assert.Equal(t, []string{"page:1", "page:2"}, f.Calls())
}

func TestLoader_LoadMoreWhileLoadingIsNoop(t *testing.T) {
	f := newFakeFetcher(5)
	l := newTestLoader(t, f)

	l.Start()
	waitIdle(t, l)

	release := f.gate("page:2")
	l.LoadMore()
	waitForCall(t, f, "page:2")
	l.LoadMore()
	l.LoadMore()
	close(release)

	s := waitIdle(t, l)
	assert.Len(t, s.Entries, 100)
	assert.Equal(t, []string{"page:1", "page:2"}, f.Calls())
}

func TestLoader_FailedPageLeavesStateUnchanged(t *testing.T) {
	f := newFakeFetcher(5)
	f.pageErr[2] = errors.New("connection reset by peer")
	l := newTestLoader(t, f)

	l.Start()
	before := waitIdle(t, l)

	l.LoadMore()
	waitForCall(t, f, "page:2")
	after := waitIdle(t, l)

	assert.Equal(t, before, after)
	assert.Equal(t, 1, after.CurrentPage)
	assert.Len(t, after.Entries, 50)
}

func TestLoader_LoadMoreAfterFailedFirstPageRetriesPageOne(t *testing.T) {
	f := newFakeFetcher(5)
	f.pageErr[1] = errors.New("unexpected status code 400")
	l := newTestLoader(t, f)

	l.Start()
	waitForCall(t, f, "page:1")
	failed := waitIdle(t, l)
	assert.Empty(t, failed.Entries)
	assert.Equal(t, 1, failed.CurrentPage)

	f.mu.Lock()
	delete(f.pageErr, 1)
	f.mu.Unlock()

	l.LoadMore()
	s := waitIdle(t, l)

	assert.Equal(t, []string{"page:1", "page:1"}, f.Calls())
	require.Len(t, s.Entries, 50)
	assert.Equal(t, "pokemon-1", s.Entries[0].Name)
	assert.Equal(t, 1, s.CurrentPage)

	l.LoadMore()
	s = waitIdle(t, l)
	assert.Equal(t, "pokemon-51", s.Entries[50].Name)
	assert.Equal(t, 2, s.CurrentPage)
}

func TestLoader_ConcurrentSetQueryAppliesOne(t *testing.T) {
	f := newFakeFetcher(3)
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("mon%d", i)
		f.entries[name] = catalog.Entry{ID: i + 1, Name: name}
	}
	l := newTestLoader(t, f)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.SetQuery(fmt.Sprintf("mon%d", i))
		}()
	}
	wg.Wait()

	// Whichever call took the last sequence number owns the surviving timer,
	// so a search always lands.
	require.Eventually(t, func() bool { return len(f.Calls()) >= 1 }, waitFor, tick)
	time.Sleep(2 * testDebounce)
	s := waitIdle(t, l)

	assert.Equal(t, Searching, s.Mode)
	require.Len(t, s.Entries, 1)
	assert.Equal(t, s.ActiveQuery, s.Entries[0].Name)
}

func TestLoader_SetQueryDebounces(t *testing.T) {
	f := newFakeFetcher(3)
	f.entries["pikachu"] = catalog.Entry{ID: 25, Name: "pikachu"}
	f.entries["pikachu2"] = catalog.Entry{ID: 10000, Name: "pikachu2"}
	l := newTestLoader(t, f)

	l.SetQuery("pikachu")
	l.SetQuery("pikachu2")

	waitForCall(t, f, "name:pikachu2")
	s := waitIdle(t, l)

	assert.Equal(t, []string{"name:pikachu2"}, f.Calls())
	require.Len(t, s.Entries, 1)
	assert.Equal(t, "pikachu2", s.Entries[0].Name)
	assert.Equal(t, Searching, s.Mode)
	assert.Equal(t, "pikachu2", s.ActiveQuery)
	assert.False(t, s.HasMore)
}

func TestLoader_StaleSearchIsDiscarded(t *testing.T) {
	f := newFakeFetcher(3)
	f.ignoreCancel = true
	f.entries["slowpoke"] = catalog.Entry{ID: 79, Name: "slowpoke"}
	f.entries["pikachu"] = catalog.Entry{ID: 25, Name: "pikachu"}
	l := newTestLoader(t, f)

	release := f.gate("name:slowpoke")
	l.SetQuery("slowpoke")
	waitForCall(t, f, "name:slowpoke")

	l.SetQuery("pikachu")
	waitForCall(t, f, "name:pikachu")
	waitIdle(t, l)

	// The superseded response arrives last.
	close(release)
	require.Eventually(t, func() bool { return f.Completed("name:slowpoke") }, waitFor, tick)

	s := l.State()
	require.Len(t, s.Entries, 1)
	assert.Equal(t, "pikachu", s.Entries[0].Name)
	assert.Equal(t, "pikachu", s.ActiveQuery)
	assert.False(t, s.Loading)
}

func TestLoader_SearchSupersedesPage(t *testing.T) {
	f := newFakeFetcher(5)
	f.entries["mew"] = catalog.Entry{ID: 151, Name: "mew"}
	l := newTestLoader(t, f)

	l.Start()
	waitIdle(t, l)

	release := f.gate("page:2")
	l.LoadMore()
	waitForCall(t, f, "page:2")

	l.SetQuery("mew")
	waitForCall(t, f, "name:mew")
	close(release)
	s := waitIdle(t, l)

	require.Len(t, s.Entries, 1)
	assert.Equal(t, "mew", s.Entries[0].Name)
	assert.Equal(t, Searching, s.Mode)
}

func TestLoader_StartSupersedesLoadMore(t *testing.T) {
	f := newFakeFetcher(5)
	f.ignoreCancel = true
	l := newTestLoader(t, f)

	l.Start()
	waitIdle(t, l)

	release := f.gate("page:2")
	l.LoadMore()
	waitForCall(t, f, "page:2")

	l.Start()
	require.Eventually(t, func() bool { return len(f.Calls()) == 3 }, waitFor, tick)
	waitIdle(t, l)
	close(release)
	require.Eventually(t, func() bool { return f.Completed("page:2") }, waitFor, tick)

	s := l.State()
	assert.Len(t, s.Entries, 50)
	assert.Equal(t, 1, s.CurrentPage)
}

func TestLoader_SearchNotFound(t *testing.T) {
	f := newFakeFetcher(3)
	l := newTestLoader(t, f)

	l.SetQuery("doesnotexist")
	waitForCall(t, f, "name:doesnotexist")
	s := waitIdle(t, l)

	assert.Empty(t, s.Entries)
	assert.NotNil(t, s.Entries)
	assert.False(t, s.HasMore)
	assert.Equal(t, Searching, s.Mode)
}

func TestLoader_SearchFailure(t *testing.T) {
	f := newFakeFetcher(3)
	f.nameErr["pikachu"] = errors.New("dial tcp: i/o timeout")
	l := newTestLoader(t, f)

	l.SetQuery("pikachu")
	waitForCall(t, f, "name:pikachu")
	s := waitIdle(t, l)

	assert.Empty(t, s.Entries)
	assert.False(t, s.HasMore)
	assert.Equal(t, Searching, s.Mode)
}

func TestLoader_LoadMoreWhileSearchingIsNoop(t *testing.T) {
	f := newFakeFetcher(3)
	f.entries["pikachu"] = catalog.Entry{ID: 25, Name: "pikachu"}
	l := newTestLoader(t, f)

	l.SetQuery("pikachu")
	waitForCall(t, f, "name:pikachu")
	before := waitIdle(t, l)

	l.LoadMore()

	assert.Equal(t, before, l.State())
	assert.Equal(t, []string{"name:pikachu"}, f.Calls())
}

func TestLoader_QueryIsNormalized(t *testing.T) {
	f := newFakeFetcher(3)
	f.entries["pikachu"] = catalog.Entry{ID: 25, Name: "pikachu"}
	l := newTestLoader(t, f)

	l.SetQuery("  PikaChu ")
	waitForCall(t, f, "name:pikachu")
	s := waitIdle(t, l)

	require.Len(t, s.Entries, 1)
	assert.Equal(t, "pikachu", s.ActiveQuery)
}

func TestLoader_ClearingQueryRestartsBrowsing(t *testing.T) {
	f := newFakeFetcher(3)
	f.entries["pikachu"] = catalog.Entry{ID: 25, Name: "pikachu"}
	l := newTestLoader(t, f)

	l.SetQuery("pikachu")
	waitForCall(t, f, "name:pikachu")
	waitIdle(t, l)

	l.SetQuery("   ")
	waitForCall(t, f, "page:1")
	s := waitIdle(t, l)

	assert.Equal(t, Browsing, s.Mode)
	assert.Equal(t, "", s.ActiveQuery)
	assert.Len(t, s.Entries, 50)
	assert.True(t, s.HasMore)
}

func TestLoader_Updates(t *testing.T) {
	f := newFakeFetcher(3)
	l := newTestLoader(t, f)

	l.Start()

	deadline := time.After(waitFor)
	for {
		select {
		case s := <-l.Updates():
			if !s.Loading && len(s.Entries) == 50 {
				return
			}
		case <-deadline:
			t.Fatal("no settled update received")
		}
	}
}

func TestLoader_CloseDiscardsInFlight(t *testing.T) {
	f := newFakeFetcher(3)
	f.gate("page:1")
	l := New(f, Options{Debounce: testDebounce})

	l.Start()
	waitForCall(t, f, "page:1")
	l.Close()

	s := l.State()
	assert.Empty(t, s.Entries)
	_, ok := <-l.Updates()
	for ok {
		_, ok = <-l.Updates()
	}

	// Calls after Close are ignored.
	l.Start()
	l.SetQuery("pikachu")
	time.Sleep(2 * testDebounce)
	assert.Equal(t, []string{"page:1"}, f.Calls())
}

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(testDebounce)
	var mu sync.Mutex
	var fired []int

	for i := 0; i < 5; i++ {
		d.Trigger(func() {
			mu.Lock()
			fired = append(fired, i)
			mu.Unlock()
		})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fired) == 1
	}, waitFor, tick)
	time.Sleep(2 * testDebounce)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{4}, fired)

	d.Trigger(func() { t.Error("stopped callback fired") })
	d.Stop()
	time.Sleep(2 * testDebounce)
}
