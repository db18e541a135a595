package scheduler

import (
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Registry maps schedule IDs to active cron entries. All triggers are
// evaluated in one fixed location so schedules behave the same no
// matter how the host is configured. The registry carries no
// persistence; it is rebuilt from the database on startup and reload.
type Registry struct {
	mu      sync.Mutex
	runner  *cron.Cron
	entries map[uint]cron.EntryID
}

func NewRegistry(loc *time.Location) *Registry {
	return &Registry{
		runner:  cron.New(cron.WithLocation(loc)),
		entries: make(map[uint]cron.EntryID),
	}
}

// Register adds a recurring job for the schedule. An existing entry for
// the same ID is cancelled first, so repeated calls leave exactly one
// active registration.
func (r *Registry) Register(scheduleID uint, spec string, fn func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entryID, exists := r.entries[scheduleID]; exists {
		r.runner.Remove(entryID)
		delete(r.entries, scheduleID)
	}

	entryID, err := r.runner.AddFunc(spec, fn)
	if err != nil {
		return err
	}

	r.entries[scheduleID] = entryID
	return nil
}

// Unregister cancels the schedule's entry. Returns false when nothing
// was registered; that is not an error.
func (r *Registry) Unregister(scheduleID uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entryID, exists := r.entries[scheduleID]
	if !exists {
		return false
	}
	r.runner.Remove(entryID)
	delete(r.entries, scheduleID)
	return true
}

// ClearAll cancels every entry. Used before a full reload.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, entryID := range r.entries {
		r.runner.Remove(entryID)
		delete(r.entries, id)
	}
}

func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) IDs() []uint {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]uint, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// StartRunner begins trigger evaluation. Safe to call more than once.
func (r *Registry) StartRunner() {
	r.runner.Start()
}

// StopRunner stops trigger evaluation and waits for in-flight firings
// to return.
func (r *Registry) StopRunner() {
	ctx := r.runner.Stop()
	<-ctx.Done()
}
