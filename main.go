package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"spaceeye/internal/config"
	"spaceeye/internal/ui/gui"
	"spaceeye/internal/ui/headless"

	flags "github.com/jessevdk/go-flags"
)

var BuildVersion = "dev"

func main() {
	rootCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	opts, err := config.ParseOptions(config.DefaultImagesDir)
	if err != nil {
		var flagErr *flags.Error
		if errors.As(err, &flagErr) && flagErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := config.ValidateRequired(opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	lock, lockedByOther, lockErr := acquireInstanceLock()
	if lockErr != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize single-instance lock:", lockErr)
		os.Exit(2)
	}
	if lockedByOther {
		// The running instance watches the settings file and picks the view up itself.
		if opts.View > 0 {
			if err := persistView(opts.View); err != nil {
				fmt.Fprintln(os.Stderr, "failed to hand view to running instance:", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "SpaceEye is already running; switched it to view %d.\n", opts.View)
			os.Exit(0)
		}
		if !gui.Available() || opts.Headless {
			fmt.Fprintln(os.Stderr, "SpaceEye is already running.")
		} else {
			hideAndDetachConsoleForGUI()
			showAlreadyRunningDialog()
		}
		os.Exit(1)
	}
	defer func() {
		_ = lock.Release()
	}()

	if opts.View > 0 {
		if err := persistView(opts.View); err != nil {
			fmt.Fprintln(os.Stderr, "failed to save selected view:", err)
		}
	}

	// Headless-tag builds always run headless; runtime UI selection is ignored.
	if !gui.Available() || opts.Headless {
		headless.Run(rootCtx, BuildVersion, opts)
		return
	}
	hideAndDetachConsoleForGUI()
	gui.Run(rootCtx, BuildVersion, opts)
}

func persistView(viewID int) error {
	store, err := config.DefaultSettingsStore()
	if err != nil {
		return err
	}
	return store.SetCurrentViewID(viewID)
}
