package view

import (
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
)

func ReduceMouse(state State, msg tea.MouseMsg) (State, tea.Cmd, Effect) {
	state.HoverZone = hoveredZone(state, msg)

	var cmd tea.Cmd
	if state.ShowLogs && zone.Get(zoneLogPane).InBounds(msg) {
		state.LogView, cmd = state.LogView.Update(msg)
		state.FollowLogs = state.LogView.AtBottom()
	}

	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return state, cmd, EffectNone
	}
	if state.ErrorText != "" {
		if state.HoverZone == zoneErrorClose {
			state.ErrorText = ""
		}
		return state, cmd, EffectNone
	}

	switch state.HoverZone {
	case zoneUpdateNow:
		return state, cmd, EffectUpdateNow
	case zoneToggleLogs:
		state.ShowLogs = !state.ShowLogs
		return state, cmd, EffectNone
	case zoneToggleDbg:
		state.DebugOn = !state.DebugOn
		return state, cmd, EffectDebugChanged
	case zoneQuit:
		return state, cmd, EffectRequestQuit
	}
	for i := range state.Items {
		if state.HoverZone == zoneViewRow(i) {
			state.Cursor = i
			return state, cmd, EffectSelectView
		}
	}
	return state, cmd, EffectNone
}

func hoveredZone(state State, msg tea.MouseMsg) string {
	ids := []string{zoneErrorClose, zoneUpdateNow, zoneToggleLogs, zoneToggleDbg, zoneQuit}
	for _, id := range ids {
		if zone.Get(id).InBounds(msg) {
			return id
		}
	}
	for i := range state.Items {
		if id := zoneViewRow(i); zone.Get(id).InBounds(msg) {
			return id
		}
	}
	return ""
}
