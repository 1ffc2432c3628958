package headless

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"spaceeye/internal/runctx"
	"spaceeye/internal/runtime"
	"spaceeye/internal/satconfig"
	"spaceeye/internal/status"
	"spaceeye/internal/updatelock"
	"spaceeye/internal/updater"
)

func (m *headlessModel) startCmd() tea.Cmd {
	m.starting = true
	opts := m.opts
	return func() tea.Msg {
		err := m.runner.Start(opts, m.logger, runtime.StartHooks{
			OnViews:   m.onRuntimeViews,
			OnStatus:  m.onRuntimeStatus,
			OnOutcome: m.onRuntimeOutcome,
			OnExit:    m.onRuntimeExit,
		})
		return startResultMsg{err: err}
	}
}

func (m *headlessModel) onRuntimeViews(views []satconfig.ViewEntry) {
	runctx.OfferLatest(m.viewsCh, views)
}

func (m *headlessModel) onRuntimeStatus(snap status.Snapshot) {
	runctx.OfferLatest(m.statusCh, snap)
}

func (m *headlessModel) onRuntimeOutcome(initiator updatelock.Initiator, outcome updater.Outcome) {
	runctx.OfferLatest(m.outcomeCh, outcomeMsg{initiator: initiator, outcome: outcome, at: time.Now()})
}

func (m *headlessModel) onRuntimeExit(runErr error) {
	if m.program == nil {
		return
	}
	m.program.Send(runDoneMsg{err: runErr})
}

func (m *headlessModel) selectViewCmd(viewID int) tea.Cmd {
	return func() tea.Msg {
		return selectResultMsg{viewID: viewID, err: m.runner.SelectView(viewID)}
	}
}

func (m *headlessModel) requestUpdate() {
	if !m.runner.RequestUpdate(updatelock.User) {
		m.ui.ErrorText = "Update could not be queued."
	}
}

func (m *headlessModel) cleanup() {
	m.cleanupOnce.Do(func() {
		m.logger.Debug("headless cleanup started")

		if m.rootCancel != nil {
			m.logger.Debug("canceling headless root context")
			m.rootCancel()
		}

		if m.unsubscribe != nil {
			m.unsubscribe()
		}

		m.runner.Stop()
		m.logger.Debug("headless cleanup complete")
	})
}
