package view

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type Effect int

const (
	EffectNone Effect = iota
	EffectRequestQuit
	EffectSelectView
	EffectUpdateNow
	EffectDebugChanged
)

func ReduceKey(state State, msg tea.KeyMsg) (State, Effect) {
	if state.ErrorText != "" {
		if msg.String() == "esc" || key.Matches(msg, state.Keys.Select) {
			state.ErrorText = ""
		}
		if key.Matches(msg, state.Keys.Quit) {
			return state, EffectRequestQuit
		}
		return state, EffectNone
	}

	switch {
	case key.Matches(msg, state.Keys.Quit):
		return state, EffectRequestQuit
	case key.Matches(msg, state.Keys.Up):
		if n := len(state.Items); n > 0 {
			state.Cursor = (state.Cursor + n - 1) % n
		}
		return state, EffectNone
	case key.Matches(msg, state.Keys.Down):
		if n := len(state.Items); n > 0 {
			state.Cursor = (state.Cursor + 1) % n
		}
		return state, EffectNone
	case key.Matches(msg, state.Keys.Select):
		if _, ok := state.CursorItem(); ok {
			return state, EffectSelectView
		}
		return state, EffectNone
	case key.Matches(msg, state.Keys.UpdateNow):
		return state, EffectUpdateNow
	case key.Matches(msg, state.Keys.ToggleLogs):
		state.ShowLogs = !state.ShowLogs
		return state, EffectNone
	case key.Matches(msg, state.Keys.Follow):
		if state.ShowLogs {
			state.FollowLogs = true
			state.LogView.GotoBottom()
		}
		return state, EffectNone
	case key.Matches(msg, state.Keys.Debug):
		state.DebugOn = !state.DebugOn
		return state, EffectDebugChanged
	}
	return state, EffectNone
}
