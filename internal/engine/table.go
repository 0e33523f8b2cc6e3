package engine

import (
	"cardbook/internal/metrics"
	"cardbook/internal/models"
	"sync"
	"time"

	"go.uber.org/zap"
)

type LoadStatus string

const (
	StatusPending LoadStatus = "pending"
	StatusLoaded  LoadStatus = "loaded"
	StatusFailed  LoadStatus = "failed"
)

// Table is the live contact table: the current store, the query state and a
// memoized view. Loads are tokenized so a superseded load can't overwrite a
// newer one.
type Table struct {
	mu sync.RWMutex

	store   *ContactStore
	state   State
	status  LoadStatus
	loadErr error
	loadGen uint64

	// memo
	version   uint64
	cachedAt  uint64
	cachedDay time.Time
	cached    *models.TableView
	filtered  []models.Contact
	dash      *models.DashboardData

	now func() time.Time
	log *zap.Logger
}

func NewTable(log *zap.Logger) *Table {
	if log == nil {
		log = zap.NewNop()
	}
	metrics.SetLoadState(string(StatusPending))
	return &Table{
		state:  DefaultState(),
		status: StatusPending,
		now:    time.Now,
		log:    log,
	}
}

// SetClock replaces the time source used by the date filter.
func (t *Table) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
	t.invalidate()
}

// BeginLoad marks a new load in flight and returns its token.
func (t *Table) BeginLoad() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loadGen++
	if t.store == nil {
		t.status = StatusPending
		metrics.SetLoadState(string(StatusPending))
	}
	return t.loadGen
}

// CompleteLoad installs store if token is still the latest load. It reports
// whether the store was accepted.
func (t *Table) CompleteLoad(token uint64, store *ContactStore) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if token != t.loadGen {
		t.log.Warn("discarding stale contact load", zap.Uint64("token", token), zap.Uint64("current", t.loadGen))
		return false
	}
	t.store = store
	t.status = StatusLoaded
	t.loadErr = nil
	t.dash = nil
	t.invalidate()
	metrics.SetLoadState(string(StatusLoaded))
	metrics.LoadedRows.Set(float64(store.Len()))
	return true
}

// FailLoad records err for the load identified by token.
func (t *Table) FailLoad(token uint64, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if token != t.loadGen {
		return false
	}
	t.log.Error("contact load failed", zap.Error(err))
	t.status = StatusFailed
	t.loadErr = err
	metrics.SetLoadState(string(StatusFailed))
	return true
}

// Load runs fn as a single tokenized load.
func (t *Table) Load(fn func() (*ContactStore, error)) error {
	token := t.BeginLoad()
	store, err := fn()
	if err != nil {
		t.FailLoad(token, err)
		return err
	}
	t.CompleteLoad(token, store)
	return nil
}

func (t *Table) Status() (LoadStatus, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status, t.loadErr
}

func (t *Table) Store() *ContactStore {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.store
}

func (t *Table) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Dispatch applies actions in order and returns the resulting view.
func (t *Table) Dispatch(actions ...Action) models.TableView {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, a := range actions {
		t.state = Reduce(t.state, a)
	}
	if len(actions) > 0 {
		t.invalidate()
	}
	return t.viewLocked()
}

// Replace swaps in a whole state (e.g. restored from JSON).
func (t *Table) Replace(s State) models.TableView {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = s
	t.invalidate()
	return t.viewLocked()
}

// View returns the memoized view for the current state and store.
func (t *Table) View() models.TableView {
	t.mu.RLock()
	if t.fresh() {
		v := *t.cached
		t.mu.RUnlock()
		return v
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.viewLocked()
}

// SelectedRows resolves the selection against the same filtered rows the
// current view was built from.
func (t *Table) SelectedRows() []models.Contact {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.viewLocked()
	return SelectedRows(t.state.Selection, t.filtered)
}

// Dashboard returns the analytics aggregate, computed once per store.
func (t *Table) Dashboard() (*models.DashboardData, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.store == nil {
		return nil, ErrNotLoaded
	}
	if t.dash == nil {
		t.dash = t.store.Aggregate()
	}
	return t.dash, nil
}

func (t *Table) invalidate() {
	t.version++
}

// fresh reports whether the cached view still matches the state, the store
// and, while a date bucket is active, the current day.
func (t *Table) fresh() bool {
	if t.cached == nil || t.cachedAt != t.version {
		return false
	}
	return t.state.Filters.Date.Days() == 0 || t.cachedDay.Equal(t.now().Truncate(24*time.Hour))
}

func (t *Table) viewLocked() models.TableView {
	if t.fresh() {
		return *t.cached
	}
	now := t.now()
	v, filtered := derive(t.store, t.state, now)
	t.cached = &v
	t.filtered = filtered
	t.cachedAt = t.version
	t.cachedDay = now.Truncate(24 * time.Hour)
	metrics.ViewDerivations.Inc()
	return v
}
