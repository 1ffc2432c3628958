//go:build headless

package gui

import (
	"context"
	"fmt"
	"os"

	"spaceeye/internal/config"
)

func Available() bool {
	return false
}

func Run(context.Context, string, config.Options) {
	fmt.Fprintln(os.Stderr, "SpaceEye was built without the tray UI; run with --headless.")
}
