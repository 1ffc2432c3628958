//go:build linux

package config

import (
	"os"
	"path/filepath"
)

func DefaultImagesDir() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "spaceeye", "downloaded_images")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "spaceeye", "downloaded_images")
}
