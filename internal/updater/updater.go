// Package updater runs the wallpaper update pipeline: resolve the selected
// view, pick an image for the attached monitors, download it when the cached
// copy is stale, and apply it, stopping as soon as the update lock is lost.
package updater

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spaceeye/internal/display"
	"spaceeye/internal/downloader"
	"spaceeye/internal/imagestore"
	"spaceeye/internal/logging"
	"spaceeye/internal/satconfig"
	"spaceeye/internal/status"
	"spaceeye/internal/updatelock"
	"spaceeye/internal/wallpaper"
)

var (
	ErrNoViewConfigured     = errors.New("no view configured")
	ErrViewConfigAccess     = errors.New("view config access error")
	ErrViewNotFound         = errors.New("view not found")
	ErrLockInvalidated      = errors.New("update lock invalidated")
	ErrNoMonitors           = errors.New("no monitors attached")
	ErrNoImageSources       = errors.New("view has no image sources")
	ErrMonitorConfigChanged = errors.New("monitor configuration changed")
)

type Settings interface {
	CurrentViewID() (int, bool)
}

type ViewSource interface {
	ViewByID(ctx context.Context, id int) (*satconfig.View, error)
}

type Downloader interface {
	Download(ctx context.Context, lock *updatelock.Lock, token *updatelock.CancelToken, source satconfig.ImageSource, progress downloader.ProgressFunc) (imagestore.DownloadedImage, error)
}

type Deps struct {
	Arbiter    *updatelock.Arbiter
	Settings   Settings
	Views      ViewSource
	Store      *imagestore.Store
	Downloader Downloader
	Displays   display.Provider
	Wallpaper  wallpaper.Setter
	Tracker    *status.Tracker
	Logger     *logging.Logger
}

type Updater struct {
	arbiter    *updatelock.Arbiter
	settings   Settings
	views      ViewSource
	store      *imagestore.Store
	downloader Downloader
	displays   display.Provider
	wallpaper  wallpaper.Setter
	tracker    *status.Tracker
	logger     *logging.Logger
}

func New(deps Deps) *Updater {
	if deps.Logger == nil {
		panic("updater.New: logger must not be nil")
	}
	if deps.Arbiter == nil || deps.Settings == nil || deps.Views == nil || deps.Store == nil ||
		deps.Downloader == nil || deps.Displays == nil || deps.Wallpaper == nil {
		panic("updater.New: missing dependency")
	}
	if deps.Tracker == nil {
		deps.Tracker = status.NewTracker()
	}
	return &Updater{
		arbiter:    deps.Arbiter,
		settings:   deps.Settings,
		views:      deps.Views,
		store:      deps.Store,
		downloader: deps.Downloader,
		displays:   deps.Displays,
		wallpaper:  deps.Wallpaper,
		tracker:    deps.Tracker,
		logger:     deps.Logger.Scope("updater"),
	}
}

func (u *Updater) Tracker() *status.Tracker {
	return u.tracker
}

// Pipeline performs one update while holding lock. On success the lock has
// been released and the image store swept. Every side effect is preceded by a
// check that lock is still the active one.
func (u *Updater) Pipeline(ctx context.Context, lock *updatelock.Lock) (err error) {
	m := newMachine(lock.ID(), u.tracker, u.logger)
	defer func() {
		if err != nil {
			m.abort(ctx, err)
		}
	}()

	m.step(ctx, EventFetchView)
	viewID, ok := u.settings.CurrentViewID()
	if !ok {
		return ErrNoViewConfigured
	}
	u.tracker.SetView(viewID, status.Loading, "")
	view, err := u.views.ViewByID(ctx, viewID)
	switch {
	case err == nil:
	case errors.Is(err, satconfig.ErrNotFound):
		return fmt.Errorf("%w: %d", ErrViewNotFound, viewID)
	case errors.Is(err, satconfig.ErrRequest):
		return fmt.Errorf("%w: %w", ErrViewConfigAccess, err)
	default:
		return err
	}
	if !lock.IsStillHeld() {
		return ErrLockInvalidated
	}

	m.step(ctx, EventSelectImage)
	monitors, err := u.externalMonitors(ctx)
	if err != nil {
		return err
	}
	if len(monitors) == 0 {
		return ErrNoMonitors
	}
	source, ok := SelectImage(view.ImageSources, monitors)
	if !ok {
		return fmt.Errorf("%w: view %d", ErrNoImageSources, viewID)
	}
	u.logger.Debug("image selected",
		logging.Field("view_id", viewID),
		logging.Field("image_id", source.ID),
		logging.Field("dimensions", fmt.Sprintf("%dx%d", source.Width(), source.Height())),
		logging.Field("monitors", len(monitors)),
	)

	m.step(ctx, EventCheckCache)
	img, found, err := u.store.NewestImage(ctx, source.ID)
	if err != nil {
		return err
	}
	if !lock.IsStillHeld() {
		return ErrLockInvalidated
	}
	if found && img.Age(u.store.Now()) <= source.UpdateIntervalDuration() {
		u.logger.Debug("cached image is fresh",
			logging.Field("image_id", source.ID),
			logging.Field("age", img.Age(u.store.Now()).Round(time.Second).String()),
		)
	} else {
		m.step(ctx, EventDownload)
		img, err = u.download(ctx, lock, source)
		if err != nil {
			return err
		}
		if !lock.IsStillHeld() {
			return ErrLockInvalidated
		}
	}

	m.step(ctx, EventRevalidate)
	current, err := u.externalMonitors(ctx)
	if err != nil {
		return err
	}
	if len(current) != len(monitors) {
		return fmt.Errorf("%w: %d monitors, was %d", ErrMonitorConfigChanged, len(current), len(monitors))
	}

	m.step(ctx, EventApply)
	if err := u.apply(ctx, lock, current, u.store.Path(img), source.Scaling()); err != nil {
		return err
	}

	m.step(ctx, EventFinish)
	lock.Release()
	u.tracker.SetView(viewID, status.Updated, "")
	if err := u.store.Cleanup(ctx); err != nil {
		u.logger.Warn("image cleanup failed", logging.Field("error", err))
	}
	return nil
}

func (u *Updater) download(ctx context.Context, lock *updatelock.Lock, source satconfig.ImageSource) (imagestore.DownloadedImage, error) {
	token, err := lock.GenerateCancelToken(ctx)
	if err != nil {
		return imagestore.DownloadedImage{}, err
	}
	progress := func(percent int, done bool) {
		u.tracker.SetDownload(source.ID, percent, done)
	}
	return u.downloader.Download(ctx, lock, token, source, progress)
}

func (u *Updater) apply(ctx context.Context, lock *updatelock.Lock, monitors []display.Monitor, path string, scaling satconfig.ScalingMode) error {
	for i, monitor := range monitors {
		if !lock.IsStillHeld() {
			return ErrLockInvalidated
		}
		currentPath, err := u.wallpaper.Wallpaper(ctx, monitor, i)
		if err != nil {
			return err
		}
		if currentPath == path {
			continue
		}
		if !lock.IsStillHeld() {
			return ErrLockInvalidated
		}
		if err := u.wallpaper.SetWallpaper(ctx, monitor, i, path, scaling); err != nil {
			return err
		}
	}
	return nil
}

func (u *Updater) externalMonitors(ctx context.Context) ([]display.Monitor, error) {
	monitors, err := u.displays.Monitors(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate monitors: %w", err)
	}
	return display.External(monitors), nil
}
