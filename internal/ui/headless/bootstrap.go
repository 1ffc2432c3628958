package headless

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"spaceeye/internal/config"
	"spaceeye/internal/logging"
	"spaceeye/internal/runctx"
	"spaceeye/internal/runtime"
	"spaceeye/internal/satconfig"
	"spaceeye/internal/status"
	headlessview "spaceeye/internal/ui/headless/view"
)

const (
	logChannelBufferSize     = 512
	statusChannelBufferSize  = 16
	viewsChannelBufferSize   = 2
	outcomeChannelBufferSize = 8
	runErrorExitCode         = 1
)

func Run(rootCtx context.Context, buildVersion string, opts config.Options) {
	defer forceDisableMouseTracking()

	logger := logging.New(false)
	if logger == nil {
		panic("headless.Run: logging.New returned nil")
	}
	logger.SetDebugEnabled(opts.Debug)
	if err := logger.EnableFilePersistence(0); err != nil {
		logger.Warn("failed to enable file log persistence", logging.Field("error", err))
	}
	logger.SetTerminalOutputEnabled(false)
	logger.Info("starting spaceeye TUI", logging.Field("version", buildVersion))

	settings, err := config.DefaultSettingsStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, "resolve settings path:", err)
		os.Exit(runErrorExitCode)
	}

	m := newHeadlessModel(rootCtx, buildVersion, opts, settings, logger)
	zone.NewGlobal()
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	m.program = program
	result, runErr := program.Run()
	model, _ := result.(*headlessModel)
	if model != nil {
		model.cleanup()
		model.runner.Wait(0)
	}
	_ = logger.Close()
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(runErrorExitCode)
	}
}

func forceDisableMouseTracking() {
	_, _ = os.Stdout.WriteString("\x1b[?1000l\x1b[?1002l\x1b[?1003l\x1b[?1006l\x1b[?1015l")
}

func newHeadlessModel(rootCtx context.Context, buildVersion string, opts config.Options, settings *config.SettingsStore, logger *logging.Logger) *headlessModel {
	if rootCtx == nil {
		rootCtx = context.Background()
	}
	runCtx, runCancel := context.WithCancel(rootCtx)

	viewID, hasView := settings.CurrentViewID()
	m := &headlessModel{
		buildVersion: buildVersion,
		opts:         opts,
		modelDeps: modelDeps{
			runner:     runtime.NewController(runCtx).WithCollaborators(runtime.Collaborators{Settings: settings}),
			settings:   settings,
			logger:     logger,
			rootCancel: runCancel,
		},
		modelChannels: modelChannels{
			logCh:     make(chan string, logChannelBufferSize),
			statusCh:  make(chan status.Snapshot, statusChannelBufferSize),
			viewsCh:   make(chan []satconfig.ViewEntry, viewsChannelBufferSize),
			outcomeCh: make(chan outcomeMsg, outcomeChannelBufferSize),
		},
		ui: headlessview.NewState(viewID, hasView, opts.Debug),
	}

	m.unsubscribe = logger.Subscribe(func(event logging.Event) {
		runctx.OfferLatest(m.logCh, logging.FormatEventANSI(event))
	})

	return m
}

func (m *headlessModel) Init() tea.Cmd {
	return tea.Batch(
		waitFor(m.logCh, func(line string) tea.Msg { return logMsg(line) }),
		waitFor(m.statusCh, func(snap status.Snapshot) tea.Msg { return statusMsg(snap) }),
		waitFor(m.viewsCh, func(views []satconfig.ViewEntry) tea.Msg { return viewsMsg(views) }),
		waitFor(m.outcomeCh, func(msg outcomeMsg) tea.Msg { return msg }),
		m.startCmd(),
	)
}

func waitFor[T any](ch <-chan T, wrap func(T) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		value, ok := <-ch
		if !ok {
			return nil
		}
		return wrap(value)
	}
}
