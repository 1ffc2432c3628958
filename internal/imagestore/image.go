package imagestore

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

// PartialSuffix marks a file that is still being written.
const PartialSuffix = ".download"

var imageNamePattern = regexp.MustCompile(`^(\d+)-(\d+)\.(jpg|jpeg|png)$`)

// DownloadedImage identifies one image file by its source ID, the UTC time it
// was downloaded, and its extension. Its path is derived from these alone.
type DownloadedImage struct {
	ImageID   int
	Timestamp time.Time
	Extension string
}

func (img DownloadedImage) FileName() string {
	return fmt.Sprintf("%d-%d.%s", img.ImageID, img.Timestamp.UTC().UnixMilli(), img.Extension)
}

// Age is how long ago the image was downloaded, relative to now.
func (img DownloadedImage) Age(now time.Time) time.Duration {
	return now.Sub(img.Timestamp)
}

// ParseFileName is the inverse of FileName.
func ParseFileName(name string) (DownloadedImage, bool) {
	m := imageNamePattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return DownloadedImage{}, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return DownloadedImage{}, false
	}
	millis, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return DownloadedImage{}, false
	}
	return DownloadedImage{
		ImageID:   id,
		Timestamp: time.UnixMilli(millis).UTC(),
		Extension: m[3],
	}, true
}
