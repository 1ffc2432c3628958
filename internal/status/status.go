// Package status tracks what the update pipeline is doing so the tray and the
// terminal UI can render it.
package status

import (
	"maps"
	"strings"
	"sync"
	"time"
)

type State string

const (
	Updated State = "Updated"
	Loading State = "Loading"
	Error   State = "Error"
)

const DefaultMessage = "Loading..."

func Key(state State) string {
	return strings.ToLower(strings.TrimSpace(string(state)))
}

type ViewStatus struct {
	State       State
	Message     string
	LastUpdated time.Time
}

// Download is the progress of the active transfer. Percent is -1 when the
// size is unknown.
type Download struct {
	Active  bool
	ImageID int
	Percent int
}

type Snapshot struct {
	Pipeline string
	Download Download
	Views    map[int]ViewStatus
}

// View mirrors Tracker.View for a captured snapshot.
func (s Snapshot) View(viewID int) ViewStatus {
	if vs, ok := s.Views[viewID]; ok {
		return vs
	}
	return ViewStatus{State: Loading, Message: DefaultMessage}
}

type Tracker struct {
	now func() time.Time

	mu           sync.Mutex
	pipeline     string
	pipelineLock uint64
	download     Download
	views        map[int]ViewStatus
	nextID       int
	subscribers  map[int]func(Snapshot)
}

func NewTracker() *Tracker {
	return &Tracker{
		now:         time.Now,
		pipeline:    "idle",
		views:       map[int]ViewStatus{},
		subscribers: map[int]func(Snapshot){},
	}
}

// View returns the status of viewID. Views never updated report Loading.
func (t *Tracker) View(viewID int) ViewStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	if vs, ok := t.views[viewID]; ok {
		return vs
	}
	return ViewStatus{State: Loading, Message: DefaultMessage}
}

func (t *Tracker) SetView(viewID int, state State, message string) {
	t.update(func() bool {
		prev := t.views[viewID]
		next := ViewStatus{State: state, Message: message, LastUpdated: prev.LastUpdated}
		if next.Message == "" && state == Loading {
			next.Message = DefaultMessage
		}
		if state == Updated {
			next.LastUpdated = t.now()
		}
		t.views[viewID] = next
		return true
	})
}

// SetPipeline records the state of the pipeline running under lockID. Lock IDs
// only grow, so a write from an older, preempted attempt is dropped once a
// newer attempt has reported.
func (t *Tracker) SetPipeline(lockID uint64, state string) {
	t.update(func() bool {
		if lockID < t.pipelineLock {
			return false
		}
		t.pipelineLock = lockID
		t.pipeline = state
		return true
	})
}

func (t *Tracker) SetDownload(imageID, percent int, done bool) {
	t.update(func() bool {
		if done {
			t.download = Download{}
			return true
		}
		t.download = Download{Active: true, ImageID: imageID, Percent: percent}
		return true
	})
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Subscribe calls fn with a snapshot after every change. Callbacks run on the
// goroutine that made the change and must not block.
func (t *Tracker) Subscribe(fn func(Snapshot)) func() {
	if fn == nil {
		panic("status.Tracker.Subscribe: callback must not be nil")
	}
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subscribers[id] = fn
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		delete(t.subscribers, id)
		t.mu.Unlock()
	}
}

// update applies a change under the mutex and notifies subscribers unless
// apply reports that nothing changed.
func (t *Tracker) update(apply func() bool) {
	t.mu.Lock()
	if !apply() {
		t.mu.Unlock()
		return
	}
	snap := t.snapshotLocked()
	callbacks := make([]func(Snapshot), 0, len(t.subscribers))
	for _, cb := range t.subscribers {
		callbacks = append(callbacks, cb)
	}
	t.mu.Unlock()
	for _, cb := range callbacks {
		cb(snap)
	}
}

func (t *Tracker) snapshotLocked() Snapshot {
	return Snapshot{
		Pipeline: t.pipeline,
		Download: t.download,
		Views:    maps.Clone(t.views),
	}
}
