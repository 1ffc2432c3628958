//go:build !headless

package gui

import (
	"context"
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"spaceeye/internal/logging"
	"spaceeye/internal/runctx"
	"spaceeye/internal/runtime"
	"spaceeye/internal/satconfig"
	"spaceeye/internal/status"
	"spaceeye/internal/updatelock"
	"spaceeye/internal/updater"
)

const maxLogRows = 1000

func waitGroupWithTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	if timeout <= 0 {
		<-done
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

func (c *controller) startBackgroundLoop(name string, fn func(context.Context)) {
	c.bgWG.Go(func() {
		c.logger.Debug("background loop started", logging.Field("loop", name))
		fn(c.appCtx)
		c.logger.Debug("background loop stopped", logging.Field("loop", name))
	})
}

func (c *controller) bindLogs() {
	logCh := make(chan string, 256)
	c.unsubscribe = c.logger.Subscribe(func(event logging.Event) {
		runctx.OfferLatest(logCh, logging.FormatEventANSI(event))
	})

	c.startBackgroundLoop("gui log pump", func(ctx context.Context) {
		for {
			line, ok := runctx.RecvOrDone(ctx, "GUI log pump", c.logger, logCh)
			if !ok {
				return
			}
			text := line
			fyne.Do(func() {
				c.appendLog(text)
			})
		}
	})
}

func (c *controller) startService() {
	err := c.runner.Start(c.opts, c.logger, runtime.StartHooks{
		OnViews: func(views []satconfig.ViewEntry) {
			fyne.Do(func() { c.applyViews(views) })
		},
		OnStatus: func(snap status.Snapshot) {
			fyne.Do(func() { c.applySnapshot(snap) })
		},
		OnOutcome: func(initiator updatelock.Initiator, outcome updater.Outcome) {
			fyne.Do(func() { c.applyOutcome(initiator, outcome) })
		},
		OnExit: func(runErr error) {
			fyne.Do(func() {
				c.running = false
				if c.shuttingDown {
					return
				}
				c.applySnapshot(c.snapshot)
				if runErr != nil {
					c.win.Show()
					dialog.ShowError(runErr, c.win)
				}
			})
		},
	})
	if err != nil {
		c.win.Show()
		dialog.ShowError(err, c.win)
		return
	}
	c.running = true
	c.applySnapshot(c.snapshot)
}

func (c *controller) setLogVisibility(visible bool) {
	c.logWindowOpen = visible
	if c.showLogsCheck != nil && c.showLogsCheck.Checked != visible {
		c.showLogsCheck.SetChecked(visible)
	}
	if visible {
		c.logWindow.Show()
		c.logWindow.RequestFocus()
	} else {
		c.logWindow.Hide()
	}
	c.refreshTrayMenu()
}

func (c *controller) initLogWindow() {
	c.logGrid = widget.NewTextGrid()
	c.logGrid.Scroll = fyne.ScrollNone
	c.logScroll = container.NewVScroll(c.logGrid)
	c.followEnabled = true
	c.logCols = c.logWrapColumns()

	c.followButton = widget.NewButton("Following", func() {
		c.setFollowEnabled(true)
		c.scrollLogsToBottom()
	})
	c.followButton.Disable()
	clearButton := widget.NewButton("Clear", func() {
		c.logRawLines = nil
		c.logRows = nil
		c.logGrid.Rows = nil
		c.logGrid.Refresh()
		c.scrollLogsToBottom()
	})
	c.logWindow = c.app.NewWindow("SpaceEye Logs")
	c.logWindow.Resize(fyne.NewSize(900, 520))
	header := container.NewBorder(nil, nil, clearButton, c.followButton, layout.NewSpacer())
	logBG := canvas.NewRectangle(color.NRGBA{R: 0, G: 0, B: 0, A: 255})
	c.logScroll.OnScrolled = func(pos fyne.Position) {
		if c.followJumping {
			return
		}
		if !c.logAtBottom(pos) {
			c.setFollowEnabled(false)
		}
	}
	c.logWindow.SetContent(container.NewBorder(header, nil, nil, nil, container.NewStack(logBG, c.logScroll)))
	c.logWindow.SetCloseIntercept(func() {
		if c.shuttingDown {
			return
		}
		c.setLogVisibility(false)
	})

	c.watchLogGridWidth()
}

func (c *controller) setFollowEnabled(enabled bool) {
	c.followEnabled = enabled
	if c.followButton == nil {
		return
	}
	if enabled {
		c.followButton.SetText("Following")
		c.followButton.Disable()
		return
	}
	c.followButton.SetText("Follow")
	c.followButton.Enable()
}

func (c *controller) scrollLogsToBottom() {
	c.followJumping = true
	if c.logScroll != nil {
		c.logScroll.ScrollToBottom()
	}
	c.followJumping = false
}

func (c *controller) logAtBottom(pos fyne.Position) bool {
	if c.logScroll == nil || c.logGrid == nil {
		return true
	}
	contentHeight := c.logGrid.MinSize().Height
	viewportHeight := c.logScroll.Size().Height
	if contentHeight <= viewportHeight+1 {
		return true
	}
	return pos.Y+viewportHeight >= contentHeight-1
}

func (c *controller) watchLogGridWidth() {
	c.startBackgroundLoop("log wrap watcher", func(ctx context.Context) {
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fyne.Do(func() {
					next := c.logWrapColumns()
					if next == c.logCols {
						return
					}
					c.logCols = next
					c.rebuildLogRows()
					c.refreshLogView()
					if c.followEnabled {
						c.scrollLogsToBottom()
					}
				})
			}
		}
	})
}

func (c *controller) appendLog(line string) {
	if c.logGrid == nil {
		return
	}
	lines := splitLogLines(line)
	if len(lines) == 0 {
		return
	}
	c.logRawLines = trimToLast(append(c.logRawLines, lines...), maxLogRows)
	c.rebuildLogRows()
	c.refreshLogView()
	if c.followEnabled {
		c.scrollLogsToBottom()
	}
}

func trimToLast(lines []string, limit int) []string {
	if len(lines) <= limit {
		return lines
	}
	return append([]string(nil), lines[len(lines)-limit:]...)
}

func (c *controller) rebuildLogRows() {
	c.logRows = parseANSITextGridRows(c.logRawLines, c.logWrapColumns(), maxLogRows)
}

func (c *controller) refreshLogView() {
	c.logGrid.Rows = c.logRows
	c.logGrid.Refresh()
}

func (c *controller) logWrapColumns() int {
	if c.logGrid == nil {
		return 120
	}
	widthPx := c.logGrid.Size().Width
	if c.logScroll != nil && c.logScroll.Size().Width > 0 {
		widthPx = c.logScroll.Size().Width
	}
	if widthPx <= 0 {
		widthPx = 900
	}
	charSize := fyne.MeasureText("M", theme.TextSize(), fyne.TextStyle{Monospace: true})
	if charSize.Width <= 0 {
		return 120
	}
	cols := int(widthPx / charSize.Width)
	cols = min(max(cols, 40), 240)
	return cols - 2
}

func (c *controller) cleanup() {
	c.cleanupOnce.Do(func() {
		c.shuttingDown = true
		c.logger.Debug("gui cleanup started")
		if c.appCancel != nil {
			c.appCancel()
		}
		if c.unsubscribe != nil {
			c.unsubscribe()
		}
		if ok := waitGroupWithTimeout(&c.bgWG, 2*time.Second); !ok {
			c.logger.Warn("GUI background loops did not stop within timeout")
		}
		if ok := c.runner.StopAndWait(3 * time.Second); !ok {
			c.logger.Warn("runtime controller did not stop within timeout")
		}
		c.logger.Debug("gui cleanup complete")
		_ = c.logger.Close()
	})
}

func (c *controller) quitApp() {
	c.quitOnce.Do(func() {
		c.logger.Debug("quit requested")
		c.cleanup()
		c.app.Quit()
	})
}
