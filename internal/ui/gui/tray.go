//go:build !headless

package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"spaceeye/internal/satconfig"
)

// satelliteMenu groups the views of one satellite for the tray submenus.
type satelliteMenu struct {
	Name  string
	Views []viewMenuItem
}

type viewMenuItem struct {
	ID      int
	Name    string
	Checked bool
}

func buildSatelliteMenus(entries []satconfig.ViewEntry, selected int, hasSelected bool) []satelliteMenu {
	var menus []satelliteMenu
	index := map[int]int{}
	for _, entry := range entries {
		if entry.View == nil || entry.Satellite == nil {
			continue
		}
		pos, ok := index[entry.Satellite.ID]
		if !ok {
			pos = len(menus)
			index[entry.Satellite.ID] = pos
			menus = append(menus, satelliteMenu{Name: entry.Satellite.Name})
		}
		name := entry.View.Name
		if name == "" {
			name = fmt.Sprintf("View %d", entry.View.ID)
		}
		menus[pos].Views = append(menus[pos].Views, viewMenuItem{
			ID:      entry.View.ID,
			Name:    name,
			Checked: hasSelected && entry.View.ID == selected,
		})
	}
	return menus
}

func (c *controller) hasTray() bool {
	_, ok := c.app.(desktop.App)
	return ok
}

func (c *controller) setupTray() {
	if !c.hasTray() {
		return
	}
	c.refreshTrayMenu()
}

func (c *controller) refreshTrayMenu() {
	if c.shuttingDown {
		return
	}
	desk, ok := c.app.(desktop.App)
	if !ok {
		return
	}
	desk.SetSystemTrayIcon(AppIconResource())

	statusItem := fyne.NewMenuItem(c.viewLabel(), nil)
	statusItem.Disabled = true

	updateItem := fyne.NewMenuItem("Update now", c.requestUpdate)
	updateItem.Disabled = !c.running

	items := []*fyne.MenuItem{statusItem, updateItem, fyne.NewMenuItemSeparator()}
	menus := buildSatelliteMenus(c.views, c.viewID, c.hasView)
	if len(menus) == 0 {
		loading := fyne.NewMenuItem("Loading views...", nil)
		loading.Disabled = true
		items = append(items, loading)
	}
	for _, sat := range menus {
		children := make([]*fyne.MenuItem, 0, len(sat.Views))
		for _, view := range sat.Views {
			id := view.ID
			child := fyne.NewMenuItem(view.Name, func() { c.selectView(id) })
			child.Checked = view.Checked
			children = append(children, child)
		}
		parent := fyne.NewMenuItem(sat.Name, nil)
		parent.ChildMenu = fyne.NewMenu(sat.Name, children...)
		items = append(items, parent)
	}

	openItem := fyne.NewMenuItem("Status Window", func() {
		c.win.Show()
		c.win.RequestFocus()
	})
	showLogsItem := fyne.NewMenuItem("Show Logs", func() {
		c.setLogVisibility(!c.logWindowOpen)
	})
	showLogsItem.Checked = c.logWindowOpen
	debugItem := fyne.NewMenuItem("Debug logging", func() {
		c.debugLogs.SetChecked(!c.debugLogs.Checked)
	})
	debugItem.Checked = c.debugLogs != nil && c.debugLogs.Checked
	exitItem := fyne.NewMenuItem("Quit SpaceEye", c.quitApp)

	items = append(items,
		fyne.NewMenuItemSeparator(),
		openItem,
		showLogsItem,
		debugItem,
		fyne.NewMenuItemSeparator(),
		exitItem,
	)
	desk.SetSystemTrayMenu(fyne.NewMenu("SpaceEye", items...))
}
