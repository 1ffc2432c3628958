package runtime

import (
	"context"
	"net/http"
	"time"

	"spaceeye/internal/app"
	"spaceeye/internal/client"
	"spaceeye/internal/config"
	"spaceeye/internal/display"
	"spaceeye/internal/downloader"
	"spaceeye/internal/imagestore"
	"spaceeye/internal/logging"
	"spaceeye/internal/satconfig"
	"spaceeye/internal/status"
	"spaceeye/internal/updatelock"
	"spaceeye/internal/updater"
	"spaceeye/internal/wallpaper"
)

// responseHeaderTimeout bounds the wait for a reply to start. Bodies are
// bounded by the fetch timeout (catalog) or the cancel token (images).
const responseHeaderTimeout = 30 * time.Second

type Service interface {
	RunContext(ctx context.Context) error
	RequestUpdate(initiator updatelock.Initiator) bool
	SelectView(id int) error
}

// Collaborators overrides the pieces that talk to the OS. Nil fields are
// built from the options.
type Collaborators struct {
	HTTPClient *http.Client
	Settings   *config.SettingsStore
	Displays   display.Provider
	Wallpaper  wallpaper.Setter
	Tracker    *status.Tracker
}

func NewService(opts config.Options, logger *logging.Logger) (Service, error) {
	return NewServiceWithHooks(opts, logger, StartHooks{}, Collaborators{})
}

func NewServiceWithHooks(opts config.Options, logger *logging.Logger, hooks StartHooks, deps Collaborators) (Service, error) {
	if logger == nil {
		panic("runtime.NewServiceWithHooks: logger must not be nil")
	}
	if err := config.ValidateRequired(opts); err != nil {
		return nil, err
	}

	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient()
	}
	settings := deps.Settings
	if settings == nil {
		var err error
		if settings, err = config.DefaultSettingsStore(); err != nil {
			return nil, err
		}
	}
	displays := deps.Displays
	if displays == nil {
		static, err := display.ParseStaticProvider(opts.Monitors)
		if err != nil {
			return nil, err
		}
		displays = static
	}
	setter := deps.Wallpaper
	if setter == nil {
		command := wallpaper.NewCommandSetter(opts.WallpaperCmd, logger)
		if command.DryRun() {
			logger.Warn("no wallpaper command configured; wallpapers are only recorded")
		}
		setter = command
	}
	tracker := deps.Tracker
	if tracker == nil {
		tracker = status.NewTracker()
	}

	store, err := imagestore.New(imagestore.Options{Dir: opts.ImagesDir, Logger: logger})
	if err != nil {
		return nil, err
	}
	httpLayer := client.New(httpClient, logger)
	catalog := satconfig.New(httpLayer, satconfig.Options{URL: opts.ConfigURL, Logger: logger})
	logger.Debug("constructed services",
		logging.Field("config_url", opts.ConfigURL),
		logging.Field("images_dir", store.Dir()),
		logging.Field("settings", settings.Path()),
	)

	u := updater.New(updater.Deps{
		Arbiter:    updatelock.New(updatelock.Options{Logger: logger}),
		Settings:   settings,
		Views:      catalog,
		Store:      store,
		Downloader: downloader.New(httpLayer, store, downloader.Options{Timeout: opts.DownloadTimeout, Logger: logger}),
		Displays:   displays,
		Wallpaper:  setter,
		Tracker:    tracker,
		Logger:     logger,
	})
	svc := &service{
		App: app.New(app.Options{
			Heartbeat:   opts.Heartbeat,
			DisplayPoll: opts.DisplayPoll,
		}, u, settings, catalog, displays, logger, app.Callbacks{
			OnViews:   hooks.OnViews,
			OnOutcome: hooks.OnOutcome,
		}),
		tracker:  tracker,
		onStatus: hooks.OnStatus,
	}
	return svc, nil
}

func newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = responseHeaderTimeout
	return &http.Client{Transport: transport}
}

type service struct {
	*app.App
	tracker  *status.Tracker
	onStatus func(status.Snapshot)
}

func (s *service) RunContext(ctx context.Context) error {
	if s.onStatus != nil {
		unsubscribe := s.tracker.Subscribe(s.onStatus)
		defer unsubscribe()
	}
	return s.App.RunContext(ctx)
}
