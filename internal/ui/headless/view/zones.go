package view

import "fmt"

const (
	zoneUpdateNow  = "action-update-now"
	zoneToggleLogs = "action-toggle-logs"
	zoneToggleDbg  = "action-toggle-debug"
	zoneQuit       = "action-quit"
	zoneErrorClose = "dialog-error-close"
	zoneLogPane    = "log-pane"
)

func zoneViewRow(index int) string {
	return fmt.Sprintf("view-row-%d", index)
}
