package headless

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"spaceeye/internal/config"
	"spaceeye/internal/logging"
	"spaceeye/internal/runtime"
	"spaceeye/internal/satconfig"
	"spaceeye/internal/status"
	headlessview "spaceeye/internal/ui/headless/view"
	"spaceeye/internal/updatelock"
	"spaceeye/internal/updater"
)

const headlessLogLineLimit = 2000

type logMsg string
type statusMsg status.Snapshot
type viewsMsg []satconfig.ViewEntry

type outcomeMsg struct {
	initiator updatelock.Initiator
	outcome   updater.Outcome
	at        time.Time
}

type runDoneMsg struct {
	err error
}

type startResultMsg struct {
	err error
}

type selectResultMsg struct {
	viewID int
	err    error
}

type quitNowMsg struct{}

type modelDeps struct {
	runner      *runtime.Controller
	settings    *config.SettingsStore
	logger      *logging.Logger
	unsubscribe func()
	rootCancel  context.CancelFunc
	program     *tea.Program
}

type modelChannels struct {
	logCh     chan string
	statusCh  chan status.Snapshot
	viewsCh   chan []satconfig.ViewEntry
	outcomeCh chan outcomeMsg
}

type modelRuntime struct {
	running  bool
	starting bool
	quitting bool

	snapshot      status.Snapshot
	lastOutcome   string
	lastOutcomeAt time.Time
}

type headlessModel struct {
	buildVersion string
	opts         config.Options
	modelDeps
	modelChannels
	modelRuntime
	cleanupOnce sync.Once
	ui          headlessview.State
}
