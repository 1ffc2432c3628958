package updater

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
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

type fakeSettings struct {
	id int
	ok bool
}

func (s fakeSettings) CurrentViewID() (int, bool) { return s.id, s.ok }

type fakeViews struct {
	view   *satconfig.View
	err    error
	onCall func()
}

func (f *fakeViews) ViewByID(ctx context.Context, id int) (*satconfig.View, error) {
	if hook := f.onCall; hook != nil {
		f.onCall = nil
		hook()
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.view == nil || f.view.ID != id {
		return nil, satconfig.ErrNotFound
	}
	return f.view, nil
}

type fakeDownloader struct {
	store *imagestore.Store
	mu    sync.Mutex
	calls int
	err   error
	// watch is a spare token taken from the lock, to observe invalidation.
	watch *updatelock.CancelToken
}

func (d *fakeDownloader) Download(_ context.Context, lock *updatelock.Lock, token *updatelock.CancelToken, source satconfig.ImageSource, progress downloader.ProgressFunc) (imagestore.DownloadedImage, error) {
	defer lock.DestroyCancelToken(token)
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	defer progress(100, true)
	if watch, err := lock.GenerateCancelToken(context.Background()); err == nil {
		d.watch = watch
	}
	if d.err != nil {
		return imagestore.DownloadedImage{}, d.err
	}
	img := d.store.NewImage(source.ID, "jpg")
	if err := os.WriteFile(d.store.Path(img), []byte("image"), 0o600); err != nil {
		return imagestore.DownloadedImage{}, err
	}
	return img, nil
}

type setCall struct {
	index int
	path  string
}

type fakeSetter struct {
	mu      sync.Mutex
	current map[int]string
	sets    []setCall
}

func (s *fakeSetter) SetWallpaper(_ context.Context, _ display.Monitor, index int, path string, _ satconfig.ScalingMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		s.current = map[int]string{}
	}
	s.current[index] = path
	s.sets = append(s.sets, setCall{index: index, path: path})
	return nil
}

func (s *fakeSetter) Wallpaper(_ context.Context, _ display.Monitor, index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current[index], nil
}

func (s *fakeSetter) setCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sets)
}

type sequenceProvider struct {
	mu    sync.Mutex
	lists [][]display.Monitor
	calls int
}

func (p *sequenceProvider) Monitors(context.Context) ([]display.Monitor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	list := p.lists[min(p.calls, len(p.lists)-1)]
	p.calls++
	return list, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	updater    *Updater
	arbiter    *updatelock.Arbiter
	store      *imagestore.Store
	clock      *fakeClock
	views      *fakeViews
	downloader *fakeDownloader
	setter     *fakeSetter
	displays   *display.StaticProvider
	tracker    *status.Tracker
}

var testView = &satconfig.View{
	ID:   10,
	Name: "Full Disk",
	ImageSources: []satconfig.ImageSource{
		{ID: 100, URL: "https://img.test/100.jpg", UpdateInterval: 1200, Dimensions: [2]int{678, 678}, IsThumbnail: true},
		{ID: 101, URL: "https://img.test/101.jpg", UpdateInterval: 1200, Dimensions: [2]int{5424, 5424}},
	},
}

func newFixture(t *testing.T, settings Settings, provider display.Provider) *fixture {
	t.Helper()
	logger := logging.New(false)
	logger.SetTerminalOutputEnabled(false)
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store, err := imagestore.New(imagestore.Options{Dir: filepath.Join(t.TempDir(), "images"), Logger: logger, Now: clock.Now})
	if err != nil {
		t.Fatalf("imagestore.New() error = %v", err)
	}
	f := &fixture{
		arbiter:    updatelock.New(updatelock.Options{Logger: logger}),
		store:      store,
		clock:      clock,
		views:      &fakeViews{view: testView},
		downloader: &fakeDownloader{store: store},
		setter:     &fakeSetter{},
		tracker:    status.NewTracker(),
	}
	if provider == nil {
		f.displays = display.NewStaticProvider(
			display.Monitor{Width: 2560, Height: 1440, ScaleFactor: 1},
			display.Monitor{Width: 1440, Height: 900, ScaleFactor: 2},
		)
		provider = f.displays
	}
	f.updater = New(Deps{
		Arbiter:    f.arbiter,
		Settings:   settings,
		Views:      f.views,
		Store:      store,
		Downloader: f.downloader,
		Displays:   provider,
		Wallpaper:  f.setter,
		Tracker:    f.tracker,
		Logger:     logger,
	})
	return f
}

func (f *fixture) seedImage(t *testing.T, sourceID int, age time.Duration) imagestore.DownloadedImage {
	t.Helper()
	img := f.store.NewImage(sourceID, "jpg")
	if err := os.WriteFile(f.store.Path(img), []byte("cached"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	f.clock.Advance(age)
	return img
}

func selected() fakeSettings { return fakeSettings{id: 10, ok: true} }

func TestUpdateSkipsDownloadWhenCachedCopyIsFresh(t *testing.T) {
	f := newFixture(t, selected(), nil)
	cached := f.seedImage(t, 101, 900*time.Second)

	if got := f.updater.Update(context.Background(), updatelock.HeartbeatTimer); got != OutcomeUpdated {
		t.Fatalf("Update() = %v, want %v", got, OutcomeUpdated)
	}
	if f.downloader.calls != 0 {
		t.Fatalf("downloads = %d, want 0", f.downloader.calls)
	}
	if got := f.setter.setCount(); got != 2 {
		t.Fatalf("set calls = %d, want 2", got)
	}
	for _, call := range f.setter.sets {
		if call.path != f.store.Path(cached) {
			t.Fatalf("set path = %q, want cached %q", call.path, f.store.Path(cached))
		}
	}
	if _, held := f.arbiter.Active(); held {
		t.Fatalf("lock still held after successful update")
	}
	if got := f.tracker.View(10).State; got != status.Updated {
		t.Fatalf("view state = %v, want %v", got, status.Updated)
	}
	if got := f.tracker.Snapshot().Pipeline; got != StateDone {
		t.Fatalf("pipeline state = %q, want %q", got, StateDone)
	}
}

func TestUpdateDownloadsWhenCachedCopyIsStale(t *testing.T) {
	f := newFixture(t, selected(), nil)
	stale := f.seedImage(t, 101, 1300*time.Second)

	if got := f.updater.Update(context.Background(), updatelock.User); got != OutcomeUpdated {
		t.Fatalf("Update() = %v, want %v", got, OutcomeUpdated)
	}
	if f.downloader.calls != 1 {
		t.Fatalf("downloads = %d, want 1", f.downloader.calls)
	}
	fresh, ok, err := f.store.NewestImage(context.Background(), 101)
	if err != nil || !ok || fresh == stale {
		t.Fatalf("NewestImage() = %+v, %v, %v, want a new download", fresh, ok, err)
	}
	if f.setter.sets[0].path != f.store.Path(fresh) {
		t.Fatalf("set path = %q, want %q", f.setter.sets[0].path, f.store.Path(fresh))
	}
}

func TestUpdateIsIdempotent(t *testing.T) {
	f := newFixture(t, selected(), nil)
	if got := f.updater.Update(context.Background(), updatelock.User); got != OutcomeUpdated {
		t.Fatalf("first Update() = %v, want %v", got, OutcomeUpdated)
	}
	first := f.setter.setCount()
	if got := f.updater.Update(context.Background(), updatelock.User); got != OutcomeUpdated {
		t.Fatalf("second Update() = %v, want %v", got, OutcomeUpdated)
	}
	if got := f.setter.setCount(); got != first {
		t.Fatalf("set calls after second run = %d, want %d", got, first)
	}
	if f.downloader.calls != 1 {
		t.Fatalf("downloads = %d, want 1", f.downloader.calls)
	}
}

func TestUpdateWithoutViewIsNoOp(t *testing.T) {
	f := newFixture(t, fakeSettings{}, nil)
	if got := f.updater.Update(context.Background(), updatelock.User); got != OutcomeNothingToDo {
		t.Fatalf("Update() = %v, want %v", got, OutcomeNothingToDo)
	}
	if _, held := f.arbiter.Active(); held {
		t.Fatalf("lock still held after no-op update")
	}
	if f.setter.setCount() != 0 || f.downloader.calls != 0 {
		t.Fatalf("no-op update touched the desktop or network")
	}
	if got := f.tracker.Snapshot().Pipeline; got != StateAborted {
		t.Fatalf("pipeline state = %q, want %q", got, StateAborted)
	}
}

func TestPipelineAbortsWhenMonitorCountChanges(t *testing.T) {
	provider := &sequenceProvider{lists: [][]display.Monitor{
		{{ID: "0", Width: 1920, Height: 1080}, {ID: "1", Width: 1920, Height: 1080}},
		{{ID: "0", Width: 1920, Height: 1080}},
	}}
	f := newFixture(t, selected(), provider)
	lock, _ := f.arbiter.Acquire(updatelock.DisplayChangeWatcher)

	err := f.updater.Pipeline(context.Background(), lock)
	if !errors.Is(err, ErrMonitorConfigChanged) {
		t.Fatalf("Pipeline() error = %v, want %v", err, ErrMonitorConfigChanged)
	}
	if f.setter.setCount() != 0 {
		t.Fatalf("set calls = %d, want 0", f.setter.setCount())
	}
}

func TestPipelineIgnoresInternalMonitors(t *testing.T) {
	provider := &sequenceProvider{lists: [][]display.Monitor{
		{{ID: "lid", Width: 3000, Height: 2000, Internal: true}, {ID: "ext", Width: 1920, Height: 1080}},
	}}
	f := newFixture(t, selected(), provider)
	if got := f.updater.Update(context.Background(), updatelock.User); got != OutcomeUpdated {
		t.Fatalf("Update() = %v, want %v", got, OutcomeUpdated)
	}
	if got := f.setter.setCount(); got != 1 {
		t.Fatalf("set calls = %d, want 1 for the external monitor", got)
	}
}

func TestUpdateNoMonitorsFails(t *testing.T) {
	provider := &sequenceProvider{lists: [][]display.Monitor{{{ID: "lid", Internal: true}}}}
	f := newFixture(t, selected(), provider)
	lock, _ := f.arbiter.Acquire(updatelock.User)
	if err := f.updater.Pipeline(context.Background(), lock); !errors.Is(err, ErrNoMonitors) {
		t.Fatalf("Pipeline() error = %v, want %v", err, ErrNoMonitors)
	}
}

func TestBackToBackTriggersOnlySecondApplies(t *testing.T) {
	f := newFixture(t, selected(), nil)
	var second Outcome
	f.views.onCall = func() {
		second = f.updater.Update(context.Background(), updatelock.User)
	}

	first := f.updater.Update(context.Background(), updatelock.DisplayChangeWatcher)
	if first != OutcomeCancelled {
		t.Fatalf("first Update() = %v, want %v", first, OutcomeCancelled)
	}
	if second != OutcomeUpdated {
		t.Fatalf("second Update() = %v, want %v", second, OutcomeUpdated)
	}
	if got := f.setter.setCount(); got != 2 {
		t.Fatalf("set calls = %d, want 2 from the second pipeline only", got)
	}
	if f.downloader.calls != 1 {
		t.Fatalf("downloads = %d, want 1", f.downloader.calls)
	}
	if got := f.tracker.Snapshot().Pipeline; got != StateDone {
		t.Fatalf("pipeline state = %q, want %q after the preempted attempt aborted", got, StateDone)
	}
}

func TestHeartbeatRefusedWhileUserHoldsLock(t *testing.T) {
	f := newFixture(t, selected(), nil)
	lock, _ := f.arbiter.Acquire(updatelock.User)
	defer lock.Release()

	if got := f.updater.Update(context.Background(), updatelock.HeartbeatTimer); got != OutcomeSkipped {
		t.Fatalf("Update(HeartbeatTimer) = %v, want %v", got, OutcomeSkipped)
	}
	if !lock.IsStillHeld() {
		t.Fatalf("refused heartbeat disturbed the user lock")
	}
}

func TestUpdateConfigAccessErrorInvalidatesLock(t *testing.T) {
	f := newFixture(t, selected(), nil)
	f.views.err = errors.Join(satconfig.ErrRequest, errors.New("offline"))
	lock, _ := f.arbiter.Acquire(updatelock.HeartbeatTimer)
	if err := f.updater.Pipeline(context.Background(), lock); !errors.Is(err, ErrViewConfigAccess) {
		t.Fatalf("Pipeline() error = %v, want %v", err, ErrViewConfigAccess)
	}
	lock.Release()

	if got := f.updater.Update(context.Background(), updatelock.HeartbeatTimer); got != OutcomeFailed {
		t.Fatalf("Update() = %v, want %v", got, OutcomeFailed)
	}
	if _, held := f.arbiter.Active(); held {
		t.Fatalf("lock still held after failure")
	}
	if got := f.tracker.View(10).State; got != status.Error {
		t.Fatalf("view state = %v, want %v", got, status.Error)
	}
}

func TestUpdateUnknownViewFails(t *testing.T) {
	f := newFixture(t, fakeSettings{id: 99, ok: true}, nil)
	lock, _ := f.arbiter.Acquire(updatelock.User)
	if err := f.updater.Pipeline(context.Background(), lock); !errors.Is(err, ErrViewNotFound) {
		t.Fatalf("Pipeline() error = %v, want %v", err, ErrViewNotFound)
	}
}

func TestUpdateCancelledDownloadIsBenign(t *testing.T) {
	f := newFixture(t, selected(), nil)
	f.downloader.err = downloader.ErrRequestCancelled
	if got := f.updater.Update(context.Background(), updatelock.User); got != OutcomeCancelled {
		t.Fatalf("Update() = %v, want %v", got, OutcomeCancelled)
	}
	if f.setter.setCount() != 0 {
		t.Fatalf("cancelled update applied a wallpaper")
	}
}

func TestUpdateRunsCleanupAfterRelease(t *testing.T) {
	f := newFixture(t, selected(), nil)
	old := f.seedImage(t, 100, 3*time.Hour)
	leftover := f.store.PartialPath(f.store.NewImage(101, "jpg"))
	if err := os.WriteFile(leftover, []byte("partial"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if got := f.updater.Update(context.Background(), updatelock.User); got != OutcomeUpdated {
		t.Fatalf("Update() = %v, want %v", got, OutcomeUpdated)
	}
	for _, path := range []string{f.store.Path(old), leftover} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("Stat(%q) error = %v, want removed by cleanup", path, err)
		}
	}
}

var _ wallpaper.Setter = (*fakeSetter)(nil)

func TestUpdateMissingDownloadInvalidatesLock(t *testing.T) {
	f := newFixture(t, selected(), nil)
	f.downloader.err = fmt.Errorf("%w: /images/101-1.jpg", downloader.ErrFileMissing)

	if got := f.updater.Update(context.Background(), updatelock.User); got != OutcomeFailed {
		t.Fatalf("Update() = %v, want %v", got, OutcomeFailed)
	}
	if _, held := f.arbiter.Active(); held {
		t.Fatalf("lock still held after missing download")
	}
	if f.downloader.watch == nil || !f.downloader.watch.Cancelled() {
		t.Fatalf("lock tokens not fired; want the lock invalidated, not just released")
	}
	if got := f.tracker.View(10).State; got != status.Error {
		t.Fatalf("view state = %v, want %v", got, status.Error)
	}
	if f.setter.setCount() != 0 {
		t.Fatalf("wallpaper applied after missing download")
	}
}
