// Package app drives wallpaper updates from their triggers: startup, the
// heartbeat timer, monitor layout changes and view changes written to the
// settings file by the UI or by a second process.
package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"spaceeye/internal/display"
	"spaceeye/internal/logging"
	"spaceeye/internal/runctx"
	"spaceeye/internal/satconfig"
	"spaceeye/internal/updatelock"
	"spaceeye/internal/updater"
)

const (
	defaultHeartbeat   = 10 * time.Minute
	defaultDisplayPoll = 5 * time.Second
	requestQueueSize   = 8
)

var ErrNotRunning = errors.New("spaceeye app is not running")

type Updater interface {
	Update(ctx context.Context, initiator updatelock.Initiator) updater.Outcome
}

type Settings interface {
	Path() string
	CurrentViewID() (int, bool)
	SetCurrentViewID(id int) error
}

type ViewLister interface {
	Views(ctx context.Context) ([]satconfig.ViewEntry, error)
}

type Options struct {
	Heartbeat   time.Duration
	DisplayPoll time.Duration
}

type Callbacks struct {
	OnViews   func([]satconfig.ViewEntry)
	OnOutcome func(updatelock.Initiator, updater.Outcome)
}

type App struct {
	opts      Options
	updater   Updater
	settings  Settings
	views     ViewLister
	displays  display.Provider
	logger    *logging.Logger
	callbacks Callbacks

	requests chan updatelock.Initiator

	mu       sync.Mutex
	running  bool
	viewID   int
	viewSet  bool
	inFlight sync.WaitGroup
}

func New(opts Options, u Updater, settings Settings, views ViewLister, displays display.Provider, logger *logging.Logger, callbacks Callbacks) *App {
	if logger == nil {
		panic("app.New: logger must not be nil")
	}
	if u == nil || settings == nil || views == nil || displays == nil {
		panic("app.New: missing dependency")
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = defaultHeartbeat
	}
	if opts.DisplayPoll <= 0 {
		opts.DisplayPoll = defaultDisplayPoll
	}
	return &App{
		opts:      opts,
		updater:   u,
		settings:  settings,
		views:     views,
		displays:  displays,
		logger:    logger.Scope("app"),
		callbacks: callbacks,
		requests:  make(chan updatelock.Initiator, requestQueueSize),
	}
}

// RunContext blocks until ctx ends and every update it started has returned.
func (a *App) RunContext(ctx context.Context) error {
	watcher, err := a.watchSettings()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	a.mu.Lock()
	a.running = true
	a.viewID, a.viewSet = a.settings.CurrentViewID()
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	a.logger.Info("spaceeye started",
		logging.Field("heartbeat", a.opts.Heartbeat.String()),
		logging.Field("display_poll", a.opts.DisplayPoll.String()),
		logging.Field("settings", a.settings.Path()),
	)

	var loops sync.WaitGroup
	loops.Go(func() { a.publishViews(ctx) })
	loops.Go(func() { a.runHeartbeatLoop(ctx) })
	loops.Go(func() { a.runDisplayWatcher(ctx) })
	loops.Go(func() { a.runSettingsWatcher(ctx, watcher) })

	a.enqueue(ctx, updatelock.User)
	for {
		initiator, ok := runctx.RecvOrDone(ctx, "update dispatcher", a.logger, a.requests)
		if !ok {
			break
		}
		a.inFlight.Go(func() { a.runUpdate(ctx, initiator) })
	}

	loops.Wait()
	a.inFlight.Wait()
	a.logger.Info("spaceeye stopped")
	return nil
}

// RequestUpdate queues an update without waiting for it. It reports false
// when the app is not running or the queue is full.
func (a *App) RequestUpdate(initiator updatelock.Initiator) bool {
	a.mu.Lock()
	running := a.running
	a.mu.Unlock()
	if !running {
		return false
	}
	select {
	case a.requests <- initiator:
		return true
	default:
		a.logger.Warn("update request dropped: queue full", logging.Field("initiator", initiator))
		return false
	}
}

// SelectView persists id and requests a user update for it.
func (a *App) SelectView(id int) error {
	// The watcher compares the file against viewID, so it is recorded before
	// the write and restored if the write fails.
	a.mu.Lock()
	running := a.running
	prevID, prevSet := a.viewID, a.viewSet
	a.viewID, a.viewSet = id, true
	a.mu.Unlock()
	if err := a.settings.SetCurrentViewID(id); err != nil {
		a.mu.Lock()
		if a.viewSet && a.viewID == id {
			a.viewID, a.viewSet = prevID, prevSet
		}
		a.mu.Unlock()
		return err
	}
	a.logger.Info("view selected", logging.Field("view_id", id))
	if !running {
		return ErrNotRunning
	}
	a.RequestUpdate(updatelock.User)
	return nil
}

func (a *App) enqueue(ctx context.Context, initiator updatelock.Initiator) bool {
	return runctx.SendOrDone(ctx, initiator.String()+" trigger", a.logger, a.requests, initiator)
}

func (a *App) runUpdate(ctx context.Context, initiator updatelock.Initiator) {
	outcome := a.updater.Update(ctx, initiator)
	a.logger.Debug("update finished",
		logging.Field("initiator", initiator),
		logging.Field("outcome", outcome),
	)
	if a.callbacks.OnOutcome != nil {
		a.callbacks.OnOutcome(initiator, outcome)
	}
}

func (a *App) publishViews(ctx context.Context) {
	views, err := a.views.Views(ctx)
	if err != nil {
		if ctx.Err() == nil {
			a.logger.Warn("could not load view list", logging.Field("error", err))
		}
		return
	}
	a.logger.Debugf("loaded %d views", len(views))
	if a.callbacks.OnViews != nil {
		a.callbacks.OnViews(views)
	}
}

func (a *App) runHeartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(a.opts.Heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !a.enqueue(ctx, updatelock.HeartbeatTimer) {
				return
			}
		}
	}
}

func (a *App) runDisplayWatcher(ctx context.Context) {
	last, ok := a.fingerprint(ctx)
	ticker := time.NewTicker(a.opts.DisplayPoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current, currentOK := a.fingerprint(ctx)
			if !currentOK {
				continue
			}
			changed := ok && current != last
			last, ok = current, true
			if !changed {
				continue
			}
			a.logger.Info("monitor layout changed")
			if !a.enqueue(ctx, updatelock.DisplayChangeWatcher) {
				return
			}
		}
	}
}

func (a *App) fingerprint(ctx context.Context) (string, bool) {
	monitors, err := a.displays.Monitors(ctx)
	if err != nil {
		if ctx.Err() == nil {
			a.logger.Warn("could not enumerate monitors", logging.Field("error", err))
		}
		return "", false
	}
	return display.Fingerprint(monitors), true
}

// watchSettings watches the settings directory rather than the file so a
// replace by rename keeps being observed.
func (a *App) watchSettings() (*fsnotify.Watcher, error) {
	dir := filepath.Dir(a.settings.Path())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return watcher, nil
}

func (a *App) runSettingsWatcher(ctx context.Context, watcher *fsnotify.Watcher) {
	target := filepath.Clean(a.settings.Path())
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			if a.viewChanged() {
				if !a.enqueue(ctx, updatelock.User) {
					return
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			a.logger.Warn("settings watcher error", logging.Field("error", err))
		}
	}
}

func (a *App) viewChanged() bool {
	id, set := a.settings.CurrentViewID()
	a.mu.Lock()
	defer a.mu.Unlock()
	if set == a.viewSet && id == a.viewID {
		return false
	}
	a.viewID, a.viewSet = id, set
	a.logger.Info("view changed on disk", logging.Field("view_id", id))
	return set
}
