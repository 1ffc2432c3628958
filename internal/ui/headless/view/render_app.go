package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"spaceeye/internal/status"
	"spaceeye/internal/ui/headless/render"
	"spaceeye/internal/ui/headless/theme"
)

// Runtime is the part of the model owned by the running service.
type Runtime struct {
	BuildVersion  string
	Running       bool
	Snapshot      status.Snapshot
	LastOutcome   string
	LastOutcomeAt time.Time
}

const (
	selectedMarker = "●"
	statusColWidth = 28
	minLabelWidth  = 12
)

func RenderApp(state *State, rt Runtime) string {
	if state.Width == 0 {
		return "initializing..."
	}

	header := theme.TitleStyle.Render("SpaceEye (" + rt.BuildVersion + ")")
	sections := []string{header, renderStatusLine(rt)}
	if line := renderDownload(state, rt.Snapshot.Download); line != "" {
		sections = append(sections, line)
	}
	sections = append(sections, renderViewList(state, rt.Snapshot))
	if state.ErrorText != "" {
		sections = append(sections, renderError(state))
	}
	sections = append(sections, renderActions(state))
	helpText := theme.HelpStyle.Render(state.HelpView.View(state.Keys))

	if state.ShowLogs {
		state.FitLogViewport(append(append([]string(nil), sections...), helpText))
		sections = append(sections, zone.Mark(zoneLogPane, state.LogView.View()))
	}
	sections = append(sections, helpText)
	return render.Frame(strings.Join(sections, "\n\n"), state.ContentWidth(), theme.PanelStyle)
}

func renderStatusLine(rt Runtime) string {
	pipeline := rt.Snapshot.Pipeline
	if pipeline == "" {
		pipeline = "idle"
	}
	if !rt.Running {
		pipeline = "stopped"
	}
	line := "Pipeline: " + theme.FocusStyle.Render(pipeline)
	if rt.LastOutcome != "" {
		line += theme.MutedStyle.Render("  last update: ") + rt.LastOutcome
		if !rt.LastOutcomeAt.IsZero() {
			line += theme.MutedStyle.Render(" at " + rt.LastOutcomeAt.Format("15:04:05"))
		}
	}
	return line
}

func renderDownload(state *State, dl status.Download) string {
	if !dl.Active {
		return ""
	}
	label := fmt.Sprintf("Downloading image %d ", dl.ImageID)
	if dl.Percent < 0 {
		return label + theme.MutedStyle.Render("(size unknown)")
	}
	return label + state.Progress.ViewAs(float64(dl.Percent)/100)
}

func renderViewList(state *State, snap status.Snapshot) string {
	title := theme.TitleStyle.Render("Views")
	if len(state.Items) == 0 {
		return title + "\n" + theme.MutedStyle.Render("Loading satellite catalog...")
	}
	width := max(state.ContentWidth()-theme.PanelStyle.GetHorizontalFrameSize(), minLabelWidth+statusColWidth+6)
	labelWidth := max(width-statusColWidth-6, minLabelWidth)

	rows := make([]string, 0, len(state.Items)+1)
	rows = append(rows, title)
	for i, item := range state.Items {
		marker := " "
		selected := state.HasView && item.ViewID == state.Selected
		if selected {
			marker = selectedMarker
		}
		label := render.PadRight(render.TruncateDisplayWidth(item.Label(), labelWidth), labelWidth)
		style := theme.RowStyle
		switch {
		case i == state.Cursor:
			style = theme.RowCursorStyle
		case state.HoverZone == zoneViewRow(i):
			style = theme.RowHoverStyle
		}
		row := theme.FocusStyle.Render(marker) + " " + style.Render(label)
		if selected {
			row += "  " + renderViewStatus(snap.View(item.ViewID))
		}
		rows = append(rows, zone.Mark(zoneViewRow(i), row))
	}
	return strings.Join(rows, "\n")
}

func renderViewStatus(vs status.ViewStatus) string {
	text := string(vs.State)
	if vs.Message != "" && vs.State != status.Loading {
		text += ": " + vs.Message
	}
	if vs.State == status.Updated && !vs.LastUpdated.IsZero() {
		text += " " + vs.LastUpdated.Format("15:04")
	}
	text = render.TruncateDisplayWidth(text, statusColWidth)
	switch vs.State {
	case status.Updated:
		return theme.StatusUpdatedStyle.Render(text)
	case status.Error:
		return theme.StatusErrorStyle.Render(text)
	default:
		return theme.StatusLoadingStyle.Render(text)
	}
}

func renderError(state *State) string {
	closeButton := zone.Mark(zoneErrorClose, button("Close", state.HoverZone == zoneErrorClose))
	return lipgloss.JoinHorizontal(lipgloss.Center, theme.ErrorStyle.Render(state.ErrorText), "  ", closeButton)
}

func renderActions(state *State) string {
	buttons := []string{
		zone.Mark(zoneUpdateNow, button("Update now", state.HoverZone == zoneUpdateNow)),
		zone.Mark(zoneToggleLogs, toggle("Logs", state.ShowLogs, state.HoverZone == zoneToggleLogs)),
		zone.Mark(zoneToggleDbg, toggle("Debug", state.DebugOn, state.HoverZone == zoneToggleDbg)),
		zone.Mark(zoneQuit, button("Quit", state.HoverZone == zoneQuit)),
	}
	parts := make([]string, 0, len(buttons)*2)
	for i, b := range buttons {
		if i > 0 {
			parts = append(parts, " ")
		}
		parts = append(parts, b)
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}

func button(label string, hovered bool) string {
	if hovered {
		return theme.ButtonHoverStyle.Render(label)
	}
	return theme.ButtonStyle.Render(label)
}

func toggle(label string, on bool, hovered bool) string {
	value := theme.SegmentOffStyle.Render("off")
	if on {
		value = theme.SegmentOnStyle.Render("on")
	}
	style := theme.ButtonStyle
	if hovered {
		style = theme.ButtonHoverStyle
	}
	return style.Render(label + " " + value)
}
