package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"spaceeye/internal/satconfig"
	"spaceeye/internal/ui/headless/keyboard"
)

const (
	defaultLogViewWidth  = 80
	defaultLogViewHeight = 12
	defaultProgressWidth = 40
	minLogViewHeight     = 4
	frameReserve         = 4
)

// Item is one selectable view row.
type Item struct {
	ViewID    int
	Satellite string
	Name      string
}

func (i Item) Label() string {
	if i.Satellite == "" {
		return i.Name
	}
	return i.Satellite + " / " + i.Name
}

type State struct {
	Items    []Item
	Cursor   int
	Selected int
	HasView  bool

	HelpView help.Model
	Keys     keyboard.Map
	Progress progress.Model

	ShowLogs   bool
	FollowLogs bool
	DebugOn    bool
	LogText    string
	LogView    viewport.Model

	Width     int
	Height    int
	HoverZone string
	ErrorText string
}

func NewState(viewID int, hasView bool, debug bool) State {
	helpView := help.New()
	helpView.Styles.ShortKey = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	helpView.Styles.FullKey = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	helpView.Styles.ShortDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpView.Styles.FullDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpView.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpView.Styles.FullSeparator = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	return State{
		Selected:   viewID,
		HasView:    hasView,
		HelpView:   helpView,
		Keys:       keyboard.New(),
		Progress:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(defaultProgressWidth)),
		ShowLogs:   true,
		FollowLogs: true,
		DebugOn:    debug,
		LogView:    viewport.New(defaultLogViewWidth, defaultLogViewHeight),
	}
}

func (s State) WithWindowSize(width int, height int) State {
	s.Width = width
	s.Height = height
	s.HelpView.Width = max(s.ContentWidth()-frameReserve, 1)
	s.Progress.Width = min(max(s.ContentWidth()-frameReserve-8, 10), defaultProgressWidth)
	s.LogView.Width = max(s.ContentWidth()-frameReserve, 1)
	return s
}

// WithViews replaces the view list and moves the cursor onto the selected
// view when it is present.
func (s State) WithViews(entries []satconfig.ViewEntry) State {
	items := make([]Item, 0, len(entries))
	for _, entry := range entries {
		if entry.View == nil {
			continue
		}
		item := Item{ViewID: entry.View.ID, Name: strings.TrimSpace(entry.View.Name)}
		if entry.Satellite != nil {
			item.Satellite = strings.TrimSpace(entry.Satellite.Name)
		}
		if item.Name == "" {
			item.Name = fmt.Sprintf("View %d", item.ViewID)
		}
		items = append(items, item)
	}
	s.Items = items
	s.Cursor = 0
	for i, item := range items {
		if s.HasView && item.ViewID == s.Selected {
			s.Cursor = i
			break
		}
	}
	return s
}

func (s State) WithSelected(viewID int) State {
	s.Selected = viewID
	s.HasView = true
	return s
}

func (s State) CursorItem() (Item, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Items) {
		return Item{}, false
	}
	return s.Items[s.Cursor], true
}

func (s State) ContentWidth() int {
	return max(s.Width, 1)
}

func (s *State) SetLogViewportContent() {
	s.LogView.SetContent(s.LogText)
}

// FitLogViewport gives the log pane whatever height the other sections leave.
func (s *State) FitLogViewport(other []string) {
	used := frameReserve
	for _, section := range other {
		used += lipgloss.Height(section) + 1
	}
	s.LogView.Height = max(s.Height-used, minLogViewHeight)
}
