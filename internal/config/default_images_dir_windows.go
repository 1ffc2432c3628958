//go:build windows

package config

import (
	"os"
	"path/filepath"
)

func DefaultImagesDir() string {
	if local := os.Getenv("LocalAppData"); local != "" {
		return filepath.Join(local, "SpaceEye", "downloaded_images")
	}
	root, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(root, "SpaceEye", "downloaded_images")
}
