package headless

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"spaceeye/internal/logging"
	"spaceeye/internal/satconfig"
	"spaceeye/internal/status"
	headlessview "spaceeye/internal/ui/headless/view"
)

func (m *headlessModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.quitting {
		if _, ok := msg.(quitNowMsg); ok {
			m.cleanup()
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ui = m.ui.WithWindowSize(msg.Width, msg.Height)
		return m, nil
	case logMsg:
		wasAtBottom := m.ui.LogView.AtBottom()
		m.ui.LogText = appendLogLinesWithLimit(m.ui.LogText, string(msg), headlessLogLineLimit)
		m.ui.SetLogViewportContent()
		if m.ui.FollowLogs || wasAtBottom {
			m.ui.LogView.GotoBottom()
			m.ui.FollowLogs = true
		}
		return m, waitFor(m.logCh, func(line string) tea.Msg { return logMsg(line) })
	case statusMsg:
		m.snapshot = status.Snapshot(msg)
		return m, waitFor(m.statusCh, func(snap status.Snapshot) tea.Msg { return statusMsg(snap) })
	case viewsMsg:
		m.ui = m.ui.WithViews(msg)
		return m, waitFor(m.viewsCh, func(views []satconfig.ViewEntry) tea.Msg { return viewsMsg(views) })
	case outcomeMsg:
		m.lastOutcome = msg.initiator.String() + " " + msg.outcome.String()
		m.lastOutcomeAt = msg.at
		if id, ok := m.settings.CurrentViewID(); ok {
			m.ui = m.ui.WithSelected(id)
		}
		return m, waitFor(m.outcomeCh, func(msg outcomeMsg) tea.Msg { return msg })
	case startResultMsg:
		m.starting = false
		if msg.err != nil {
			m.ui.ErrorText = "Could not start: " + msg.err.Error()
			return m, nil
		}
		m.running = true
		return m, nil
	case runDoneMsg:
		m.running = false
		if msg.err != nil {
			m.ui.ErrorText = msg.err.Error()
		}
		return m, nil
	case selectResultMsg:
		if msg.err != nil {
			m.ui.ErrorText = "Could not select view: " + msg.err.Error()
			m.logger.Warn("view selection failed", logging.Field("view_id", msg.viewID), logging.Field("error", msg.err))
			return m, nil
		}
		m.ui = m.ui.WithSelected(msg.viewID)
		return m, nil
	case tea.MouseMsg:
		next, cmd, effect := headlessview.ReduceMouse(m.ui, msg)
		m.ui = next
		return m, tea.Batch(cmd, m.applyEffect(effect))
	case tea.KeyMsg:
		next, effect := headlessview.ReduceKey(m.ui, msg)
		m.ui = next
		return m, m.applyEffect(effect)
	}
	return m, nil
}

func (m *headlessModel) applyEffect(effect headlessview.Effect) tea.Cmd {
	switch effect {
	case headlessview.EffectRequestQuit:
		return m.beginQuitCmd()
	case headlessview.EffectSelectView:
		item, ok := m.ui.CursorItem()
		if !ok {
			return nil
		}
		return m.selectViewCmd(item.ViewID)
	case headlessview.EffectUpdateNow:
		m.requestUpdate()
		return nil
	case headlessview.EffectDebugChanged:
		m.logger.SetDebugEnabled(m.ui.DebugOn)
		return nil
	default:
		return nil
	}
}

func (m *headlessModel) beginQuitCmd() tea.Cmd {
	m.quitting = true
	return quitProgramCmd()
}

func quitProgramCmd() tea.Cmd {
	return tea.Sequence(func() tea.Msg {
		return tea.DisableMouse()
	}, waitForMouseDrainCmd(), func() tea.Msg {
		return quitNowMsg{}
	})
}

func waitForMouseDrainCmd() tea.Cmd {
	return func() tea.Msg {
		time.Sleep(120 * time.Millisecond)
		return nil
	}
}

func appendLogLinesWithLimit(current string, next string, limit int) string {
	if limit <= 0 {
		return ""
	}
	lines := splitLogLines(current)
	lines = append(lines, splitLogLines(next)...)
	if len(lines) > limit {
		lines = append([]string(nil), lines[len(lines)-limit:]...)
	}
	return strings.Join(lines, "\n")
}

func splitLogLines(input string) []string {
	if input == "" {
		return nil
	}
	normalized := strings.ReplaceAll(input, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	lines := strings.Split(normalized, "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
