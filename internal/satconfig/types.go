package satconfig

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ScalingMode is how an image is fitted to a monitor.
type ScalingMode string

const (
	ScalingFill    ScalingMode = "fill"
	ScalingFit     ScalingMode = "fit"
	ScalingStretch ScalingMode = "stretch"
	ScalingCenter  ScalingMode = "center"
	ScalingTile    ScalingMode = "tile"
)

func (m *ScalingMode) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseScalingMode(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseScalingMode accepts the catalog spelling of a mode. Empty means fill.
func ParseScalingMode(raw string) (ScalingMode, error) {
	switch mode := ScalingMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "":
		return ScalingFill, nil
	case ScalingFill, ScalingFit, ScalingStretch, ScalingCenter, ScalingTile:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown scaling mode %q", raw)
	}
}

type RootConfig struct {
	Version    string      `json:"version"`
	Satellites []Satellite `json:"satellites"`
}

type Satellite struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Views []View `json:"views"`
}

type View struct {
	ID           int           `json:"id"`
	Name         string        `json:"name"`
	ImageSources []ImageSource `json:"imageSources"`
}

// ImageSource is one downloadable variant of a view. UpdateInterval is in
// seconds and Dimensions is width then height.
type ImageSource struct {
	ID             int         `json:"id"`
	URL            string      `json:"url"`
	UpdateInterval int         `json:"updateInterval"`
	Dimensions     [2]int      `json:"dimensions"`
	DefaultScaling ScalingMode `json:"defaultScaling"`
	IsThumbnail    bool        `json:"isThumbnail,omitempty"`
}

func (s ImageSource) Width() int  { return s.Dimensions[0] }
func (s ImageSource) Height() int { return s.Dimensions[1] }
func (s ImageSource) Area() int   { return s.Dimensions[0] * s.Dimensions[1] }

func (s ImageSource) UpdateIntervalDuration() time.Duration {
	return time.Duration(s.UpdateInterval) * time.Second
}

func (s ImageSource) Scaling() ScalingMode {
	if s.DefaultScaling == "" {
		return ScalingFill
	}
	return s.DefaultScaling
}
