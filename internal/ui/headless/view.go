package headless

import (
	zone "github.com/lrstanley/bubblezone"

	headlessview "spaceeye/internal/ui/headless/view"
)

// runtimeView projects mutable runtime state into the render DTO consumed by the view package.
func (m *headlessModel) runtimeView() headlessview.Runtime {
	return headlessview.Runtime{
		BuildVersion:  m.buildVersion,
		Running:       m.running,
		Snapshot:      m.snapshot,
		LastOutcome:   m.lastOutcome,
		LastOutcomeAt: m.lastOutcomeAt,
	}
}

// View is the Bubble Tea render entrypoint; rendering is delegated to the pure view package.
func (m *headlessModel) View() string {
	return zone.Scan(headlessview.RenderApp(&m.ui, m.runtimeView()))
}
