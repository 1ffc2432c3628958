package headless

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"spaceeye/internal/config"
	"spaceeye/internal/logging"
	"spaceeye/internal/satconfig"
	"spaceeye/internal/status"
	"spaceeye/internal/updatelock"
	"spaceeye/internal/updater"
)

func newTestModel(t *testing.T) *headlessModel {
	t.Helper()
	logger := logging.New(false)
	logger.SetTerminalOutputEnabled(false)
	settings := config.NewSettingsStore(filepath.Join(t.TempDir(), "settings.json"))
	m := newHeadlessModel(context.Background(), "test", config.Options{}, settings, logger)
	t.Cleanup(m.cleanup)
	return m
}

func TestAppendLogLinesWithLimit(t *testing.T) {
	got := appendLogLinesWithLimit("a\nb", "c\r\nd\n", 3)
	if got != "b\nc\nd" {
		t.Fatalf("appendLogLinesWithLimit() = %q, want %q", got, "b\nc\nd")
	}
	if got := appendLogLinesWithLimit("", "first\n", 10); got != "first" {
		t.Fatalf("appendLogLinesWithLimit() = %q, want %q", got, "first")
	}
	if got := appendLogLinesWithLimit("a", "b", 0); got != "" {
		t.Fatalf("appendLogLinesWithLimit() with zero limit = %q, want empty", got)
	}
}

func TestUpdateAppliesRuntimeMessages(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	m.Update(viewsMsg{{
		Satellite: &satconfig.Satellite{ID: 1, Name: "GOES-16"},
		View:      &satconfig.View{ID: 10, Name: "Full Disk"},
	}})
	if len(m.ui.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(m.ui.Items))
	}

	m.Update(statusMsg{Pipeline: "downloading", Download: status.Download{Active: true, ImageID: 101, Percent: 10}})
	if m.snapshot.Pipeline != "downloading" {
		t.Fatalf("snapshot.Pipeline = %q, want %q", m.snapshot.Pipeline, "downloading")
	}

	if err := m.settings.SetCurrentViewID(10); err != nil {
		t.Fatalf("SetCurrentViewID() error = %v", err)
	}
	m.Update(outcomeMsg{initiator: updatelock.HeartbeatTimer, outcome: updater.OutcomeUpdated})
	if !strings.Contains(m.lastOutcome, updater.OutcomeUpdated.String()) {
		t.Fatalf("lastOutcome = %q, want it to mention %q", m.lastOutcome, updater.OutcomeUpdated)
	}
	if !m.ui.HasView || m.ui.Selected != 10 {
		t.Fatalf("selected view = %d, %v, want 10, true", m.ui.Selected, m.ui.HasView)
	}

	m.Update(selectResultMsg{viewID: 10, err: errors.New("disk full")})
	if !strings.Contains(m.ui.ErrorText, "disk full") {
		t.Fatalf("ErrorText = %q, want it to mention the failure", m.ui.ErrorText)
	}
}

func TestUpdateLogMessagesFollowTail(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	m.Update(logMsg("first line\n"))
	m.Update(logMsg("second line\n"))
	if m.ui.LogText != "first line\nsecond line" {
		t.Fatalf("LogText = %q, want both lines", m.ui.LogText)
	}
	if !m.ui.FollowLogs {
		t.Fatalf("FollowLogs = false, want true")
	}
}

func TestQuitKeyStartsShutdown(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !m.quitting || cmd == nil {
		t.Fatalf("quitting = %v cmd = %v, want true and a quit sequence", m.quitting, cmd)
	}
	if _, cmd := m.Update(quitNowMsg{}); cmd == nil {
		t.Fatalf("quitNowMsg returned no command, want tea.Quit")
	}
}
