package updater

import (
	"context"

	"github.com/looplab/fsm"

	"spaceeye/internal/logging"
	"spaceeye/internal/status"
)

const (
	StateIdle                 = "idle"
	StateFetchingView         = "fetching_view"
	StateSelectingImage       = "selecting_image"
	StateCheckingCache        = "checking_cache"
	StateDownloading          = "downloading"
	StateRevalidatingMonitors = "revalidating_monitors"
	StateApplying             = "applying"
	StateDone                 = "done"
	StateAborted              = "aborted"
)

const (
	EventFetchView   = "fetch_view"
	EventSelectImage = "select_image"
	EventCheckCache  = "check_cache"
	EventDownload    = "download"
	EventRevalidate  = "revalidate"
	EventApply       = "apply"
	EventFinish      = "finish"
	EventAbort       = "abort"
)

var abortable = []string{
	StateIdle,
	StateFetchingView,
	StateSelectingImage,
	StateCheckingCache,
	StateDownloading,
	StateRevalidatingMonitors,
	StateApplying,
}

// machine tracks one pipeline attempt.
type machine struct {
	fsm    *fsm.FSM
	lockID uint64
	logger *logging.Logger
}

func newMachine(lockID uint64, tracker *status.Tracker, logger *logging.Logger) *machine {
	m := &machine{lockID: lockID, logger: logger}
	m.fsm = fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: EventFetchView, Src: []string{StateIdle}, Dst: StateFetchingView},
			{Name: EventSelectImage, Src: []string{StateFetchingView}, Dst: StateSelectingImage},
			{Name: EventCheckCache, Src: []string{StateSelectingImage}, Dst: StateCheckingCache},
			{Name: EventDownload, Src: []string{StateCheckingCache}, Dst: StateDownloading},
			{Name: EventRevalidate, Src: []string{StateCheckingCache, StateDownloading}, Dst: StateRevalidatingMonitors},
			{Name: EventApply, Src: []string{StateRevalidatingMonitors}, Dst: StateApplying},
			{Name: EventFinish, Src: []string{StateApplying}, Dst: StateDone},
			{Name: EventAbort, Src: abortable, Dst: StateAborted},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				m.logger.Debug("pipeline state",
					logging.Field("lock_id", m.lockID),
					logging.Field("from", e.Src),
					logging.Field("to", e.Dst),
				)
				if tracker != nil {
					tracker.SetPipeline(m.lockID, e.Dst)
				}
			},
		},
	)
	return m
}

func (m *machine) Current() string {
	return m.fsm.Current()
}

// step fires event. A refused transition is a programming error in the
// pipeline and is only logged.
func (m *machine) step(ctx context.Context, event string) {
	if err := m.fsm.Event(context.WithoutCancel(ctx), event); err != nil {
		m.logger.Warn("pipeline transition refused",
			logging.Field("event", event),
			logging.Field("state", m.fsm.Current()),
			logging.Field("error", err),
		)
	}
}

func (m *machine) abort(ctx context.Context, reason error) {
	if !m.fsm.Can(EventAbort) {
		return
	}
	m.logger.Debug("pipeline aborted", logging.Field("lock_id", m.lockID), logging.Field("reason", reason))
	m.step(ctx, EventAbort)
}
