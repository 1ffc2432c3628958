//go:build !headless

package gui

import (
	"context"
	"fmt"
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"spaceeye/internal/config"
	"spaceeye/internal/logging"
	"spaceeye/internal/runtime"
	"spaceeye/internal/satconfig"
	"spaceeye/internal/status"
	"spaceeye/internal/updatelock"
	"spaceeye/internal/updater"
)

var (
	statusIdleColor    = color.NRGBA{R: 145, G: 145, B: 145, A: 255}
	statusLoadingColor = color.NRGBA{R: 219, G: 167, B: 74, A: 255}
	statusUpdatedColor = color.NRGBA{R: 72, G: 189, B: 109, A: 255}
	statusErrorColor   = color.NRGBA{R: 220, G: 84, B: 84, A: 255}
)

type controller struct {
	app          fyne.App
	win          fyne.Window
	logger       *logging.Logger
	runner       *runtime.Controller
	settings     *config.SettingsStore
	opts         config.Options
	buildVersion string

	statusDot     *canvas.Circle
	pipelineText  *widget.Label
	viewText      *widget.Label
	outcomeText   *widget.Label
	progress      *widget.ProgressBar
	progressAny   *widget.ProgressBarInfinite
	updateButton  *widget.Button
	debugLogs     *widget.Check
	showLogsCheck *widget.Check

	logWindow     fyne.Window
	logWindowOpen bool
	logGrid       *widget.TextGrid
	logScroll     *container.Scroll
	followButton  *widget.Button
	followEnabled bool
	followJumping bool
	logRawLines   []string
	logRows       []widget.TextGridRow
	logCols       int

	views        []satconfig.ViewEntry
	viewID       int
	hasView      bool
	snapshot     status.Snapshot
	lastOutcome  string
	running      bool
	shuttingDown bool

	cleanupOnce sync.Once
	quitOnce    sync.Once
	bgWG        sync.WaitGroup
	unsubscribe func()
	appCtx      context.Context
	appCancel   context.CancelFunc
}

func Run(rootCtx context.Context, buildVersion string, opts config.Options) {
	uiApp := app.NewWithID("io.spaceeye.app")
	c, err := newController(rootCtx, uiApp, buildVersion, opts)
	if err != nil {
		fmt.Println("spaceeye:", err)
		return
	}
	c.logger.Info("starting spaceeye tray", logging.Field("version", buildVersion))
	c.run()
}

func newController(rootCtx context.Context, uiApp fyne.App, buildVersion string, opts config.Options) (*controller, error) {
	settings, err := config.DefaultSettingsStore()
	if err != nil {
		return nil, err
	}
	logger := logging.New(false)
	if logger == nil {
		panic("gui.newController: logging.New returned nil")
	}
	logger.SetDebugEnabled(opts.Debug)
	if err := logger.EnableFilePersistence(0); err != nil {
		logger.Warn("failed to enable file log persistence", logging.Field("error", err))
	}
	if rootCtx == nil {
		rootCtx = context.Background()
	}
	appCtx, appCancel := context.WithCancel(rootCtx)

	c := &controller{
		app:          uiApp,
		logger:       logger,
		runner:       runtime.NewController(appCtx).WithCollaborators(runtime.Collaborators{Settings: settings}),
		settings:     settings,
		opts:         opts,
		buildVersion: buildVersion,
		appCtx:       appCtx,
		appCancel:    appCancel,
	}
	c.viewID, c.hasView = settings.CurrentViewID()

	uiApp.SetIcon(AppIconResource())
	c.win = uiApp.NewWindow("SpaceEye")
	c.win.Resize(fyne.NewSize(420, 220))
	c.buildUI()
	c.initLogWindow()
	c.bindLogs()
	c.setupTray()
	c.app.Lifecycle().SetOnStopped(func() {
		c.logger.Debug("app lifecycle OnStopped hook triggered")
		c.cleanup()
	})
	return c, nil
}

func (c *controller) run() {
	go func() {
		<-c.appCtx.Done()
		fyne.Do(func() {
			if c.shuttingDown {
				return
			}
			c.logger.Info("root context canceled; shutting down tray")
			c.quitApp()
		})
	}()
	c.win.SetCloseIntercept(func() {
		c.logger.Debug("status window close intercepted: hiding to tray")
		c.win.Hide()
	})
	if !c.hasTray() {
		c.win.SetMaster()
		c.win.Show()
	}
	c.startService()
	c.app.Run()
}

func (c *controller) buildUI() {
	c.statusDot = canvas.NewCircle(statusIdleColor)
	c.statusDot.Resize(fyne.NewSize(10, 10))
	c.pipelineText = widget.NewLabel("Starting...")
	c.viewText = widget.NewLabel(c.viewLabel())
	c.viewText.Wrapping = fyne.TextWrapWord
	c.outcomeText = widget.NewLabel("")
	c.progress = widget.NewProgressBar()
	c.progress.Hide()
	c.progressAny = widget.NewProgressBarInfinite()
	c.progressAny.Hide()
	c.updateButton = widget.NewButton("Update now", c.requestUpdate)
	c.debugLogs = widget.NewCheck("Debug logging", func(on bool) {
		c.logger.SetDebugEnabled(on)
		c.refreshTrayMenu()
	})
	c.debugLogs.SetChecked(c.opts.Debug)
	c.showLogsCheck = widget.NewCheck("Show logs", func(on bool) {
		c.setLogVisibility(on)
	})

	dot := container.NewGridWrap(fyne.NewSize(12, 12), c.statusDot)
	header := container.NewHBox(container.NewCenter(dot), c.pipelineText)
	actions := container.NewHBox(c.updateButton, c.debugLogs, c.showLogsCheck)
	c.win.SetContent(container.NewPadded(container.NewVBox(
		header,
		c.viewText,
		c.progress,
		c.progressAny,
		c.outcomeText,
		actions,
	)))
}

func (c *controller) viewLabel() string {
	if !c.hasView {
		return "No view selected. Pick one from the tray menu."
	}
	for _, entry := range c.views {
		if entry.View != nil && entry.View.ID == c.viewID {
			label := entry.View.Name
			if entry.Satellite != nil {
				label = entry.Satellite.Name + " / " + label
			}
			vs := c.snapshot.View(c.viewID)
			return label + ": " + statusText(vs)
		}
	}
	return fmt.Sprintf("View %d: %s", c.viewID, statusText(c.snapshot.View(c.viewID)))
}

func statusText(vs status.ViewStatus) string {
	text := string(vs.State)
	if vs.Message != "" && vs.State != status.Loading {
		text += " (" + vs.Message + ")"
	}
	if vs.State == status.Updated && !vs.LastUpdated.IsZero() {
		text += " at " + vs.LastUpdated.Format("15:04")
	}
	return text
}

func statusColor(vs status.ViewStatus) color.NRGBA {
	switch vs.State {
	case status.Updated:
		return statusUpdatedColor
	case status.Error:
		return statusErrorColor
	default:
		return statusLoadingColor
	}
}

func (c *controller) applySnapshot(snap status.Snapshot) {
	c.snapshot = snap
	pipeline := snap.Pipeline
	if !c.running {
		pipeline = "stopped"
	}
	c.pipelineText.SetText("Pipeline: " + pipeline)
	c.viewText.SetText(c.viewLabel())

	c.statusDot.FillColor = statusIdleColor
	if c.hasView {
		c.statusDot.FillColor = statusColor(snap.View(c.viewID))
	}
	c.statusDot.Refresh()

	switch {
	case !snap.Download.Active:
		c.progress.Hide()
		c.progressAny.Hide()
	case snap.Download.Percent < 0:
		c.progress.Hide()
		c.progressAny.Show()
	default:
		c.progressAny.Hide()
		c.progress.SetValue(float64(snap.Download.Percent) / 100)
		c.progress.Show()
	}
	c.refreshTrayMenu()
}

func (c *controller) applyOutcome(initiator updatelock.Initiator, outcome updater.Outcome) {
	c.lastOutcome = fmt.Sprintf("Last update (%s): %s at %s", initiator, outcome, time.Now().Format("15:04:05"))
	c.outcomeText.SetText(c.lastOutcome)
	if id, ok := c.settings.CurrentViewID(); ok {
		c.viewID, c.hasView = id, true
	}
	c.applySnapshot(c.snapshot)
}

func (c *controller) applyViews(views []satconfig.ViewEntry) {
	c.views = views
	c.viewText.SetText(c.viewLabel())
	c.refreshTrayMenu()
}

func (c *controller) selectView(id int) {
	c.viewID, c.hasView = id, true
	c.viewText.SetText(c.viewLabel())
	c.refreshTrayMenu()
	go func() {
		if err := c.runner.SelectView(id); err != nil {
			c.logger.Warn("view selection failed", logging.Field("view_id", id), logging.Field("error", err))
		}
	}()
}

func (c *controller) requestUpdate() {
	if !c.runner.RequestUpdate(updatelock.User) {
		c.logger.Warn("update request was not queued")
	}
}
