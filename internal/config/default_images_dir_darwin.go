//go:build darwin

package config

import (
	"os"
	"path/filepath"
)

func DefaultImagesDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "Library", "Application Support", "SpaceEye", "downloaded_images")
}
