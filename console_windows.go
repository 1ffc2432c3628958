//go:build windows

package main

import "golang.org/x/sys/windows"

var (
	kernel32         = windows.NewLazySystemDLL("kernel32.dll")
	user32           = windows.NewLazySystemDLL("user32.dll")
	getConsoleWindow = kernel32.NewProc("GetConsoleWindow")
	freeConsole      = kernel32.NewProc("FreeConsole")
	showWindow       = user32.NewProc("ShowWindow")
)

// hideAndDetachConsoleForGUI drops the console a double-clicked build would
// otherwise leave open behind the tray.
func hideAndDetachConsoleForGUI() {
	const swHide = 0
	if getConsoleWindow.Find() != nil {
		return
	}
	if hwnd, _, _ := getConsoleWindow.Call(); hwnd != 0 {
		_, _, _ = showWindow.Call(hwnd, swHide)
	}
	_, _, _ = freeConsole.Call()
}
