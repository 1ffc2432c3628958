package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// CatalogVersion selects the catalog schema published by the config origin.
const CatalogVersion = "1.0.0"

const DefaultConfigURL = "https://spaceeye-satellite-configs.s3.us-east-2.amazonaws.com/" + CatalogVersion + "/config.json"

type Options struct {
	ConfigURL       string        `long:"config-url" env:"SPACEEYE_CONFIG_URL" description:"Satellite catalog URL"`
	ImagesDir       string        `long:"images-dir" env:"SPACEEYE_IMAGES_DIR" description:"Directory for downloaded images"`
	Heartbeat       time.Duration `long:"heartbeat" env:"SPACEEYE_HEARTBEAT" default:"10m" description:"Interval between periodic wallpaper refreshes"`
	DisplayPoll     time.Duration `long:"display-poll" env:"SPACEEYE_DISPLAY_POLL" default:"5s" description:"Interval between monitor layout checks"`
	DownloadTimeout time.Duration `long:"download-timeout" env:"SPACEEYE_DOWNLOAD_TIMEOUT" description:"Abort a single image download after this long (0 disables)"`
	Monitors        []string      `long:"monitor" env:"SPACEEYE_MONITORS" env-delim:"," description:"Attached monitor as WxH[@scale]; repeat for each monitor"`
	WallpaperCmd    string        `long:"wallpaper-cmd" env:"SPACEEYE_WALLPAPER_CMD" description:"Command that sets the wallpaper; {path}, {index} and {scaling} are substituted"`
	View            int           `long:"view" env:"SPACEEYE_VIEW" description:"Select a satellite view by ID and trigger an update"`
	Headless        bool          `long:"headless" env:"SPACEEYE_HEADLESS" description:"Run with the terminal UI instead of the tray (GUI builds only)"`
	Debug           bool          `long:"debug" env:"SPACEEYE_DEBUG" description:"Enable verbose debug output"`
}

func ParseOptions(defaultImagesDirFn func() string) (Options, error) {
	_ = godotenv.Load()
	opts := Options{}
	if _, err := flags.Parse(&opts); err != nil {
		return Options{}, err
	}
	if strings.TrimSpace(opts.ImagesDir) == "" && defaultImagesDirFn != nil {
		opts.ImagesDir = defaultImagesDirFn()
	}
	if strings.TrimSpace(opts.ConfigURL) == "" {
		opts.ConfigURL = DefaultConfigURL
	}
	return opts, nil
}

func ValidateRequired(opts Options) error {
	if err := validateConfigURL(opts.ConfigURL); err != nil {
		return err
	}
	if strings.TrimSpace(opts.ImagesDir) == "" {
		return errors.New("images directory is required")
	}
	if opts.Heartbeat <= 0 {
		return errors.New("heartbeat interval must be positive")
	}
	if opts.DisplayPoll <= 0 {
		return errors.New("display poll interval must be positive")
	}
	if opts.DownloadTimeout < 0 {
		return errors.New("download timeout must not be negative")
	}
	if opts.View < 0 {
		return errors.New("view ID must not be negative")
	}
	return nil
}

func validateConfigURL(raw string) error {
	value := strings.TrimSpace(raw)
	if value == "" {
		return errors.New("config URL is required")
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("config URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return errors.New("config URL must be absolute, like https://example.com/config.json")
	}
	if !strings.EqualFold(parsed.Scheme, "http") && !strings.EqualFold(parsed.Scheme, "https") {
		return errors.New("config URL scheme must be http or https")
	}
	return nil
}
