package satconfig

import (
	"context"
	"fmt"
)

// ViewEntry pairs a view with the satellite it belongs to.
type ViewEntry struct {
	Satellite *Satellite
	View      *View
}

func (s *Store) SatelliteByID(ctx context.Context, id int) (*Satellite, error) {
	cfg, err := s.Config(ctx)
	if err != nil {
		return nil, err
	}
	for i := range cfg.Satellites {
		if cfg.Satellites[i].ID == id {
			return &cfg.Satellites[i], nil
		}
	}
	return nil, fmt.Errorf("satellite %d: %w", id, ErrNotFound)
}

func (s *Store) ViewByID(ctx context.Context, id int) (*View, error) {
	entry, err := s.findView(ctx, func(v *View) bool { return v.ID == id })
	if err != nil {
		return nil, fmt.Errorf("view %d: %w", id, err)
	}
	return entry.View, nil
}

func (s *Store) SatelliteByViewID(ctx context.Context, viewID int) (*Satellite, error) {
	entry, err := s.findView(ctx, func(v *View) bool { return v.ID == viewID })
	if err != nil {
		return nil, fmt.Errorf("satellite for view %d: %w", viewID, err)
	}
	return entry.Satellite, nil
}

func (s *Store) ViewByImageID(ctx context.Context, imageID int) (*View, error) {
	entry, _, err := s.findImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	return entry.View, nil
}

func (s *Store) SatelliteByImageID(ctx context.Context, imageID int) (*Satellite, error) {
	entry, _, err := s.findImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	return entry.Satellite, nil
}

func (s *Store) ImageByID(ctx context.Context, imageID int) (*ImageSource, error) {
	_, source, err := s.findImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	return source, nil
}

// Views lists every view in catalog order.
func (s *Store) Views(ctx context.Context) ([]ViewEntry, error) {
	cfg, err := s.Config(ctx)
	if err != nil {
		return nil, err
	}
	var out []ViewEntry
	for i := range cfg.Satellites {
		sat := &cfg.Satellites[i]
		for j := range sat.Views {
			out = append(out, ViewEntry{Satellite: sat, View: &sat.Views[j]})
		}
	}
	return out, nil
}

func (s *Store) findView(ctx context.Context, match func(*View) bool) (ViewEntry, error) {
	entries, err := s.Views(ctx)
	if err != nil {
		return ViewEntry{}, err
	}
	for _, entry := range entries {
		if match(entry.View) {
			return entry, nil
		}
	}
	return ViewEntry{}, ErrNotFound
}

func (s *Store) findImage(ctx context.Context, imageID int) (ViewEntry, *ImageSource, error) {
	entries, err := s.Views(ctx)
	if err != nil {
		return ViewEntry{}, nil, err
	}
	for _, entry := range entries {
		for i := range entry.View.ImageSources {
			if entry.View.ImageSources[i].ID == imageID {
				return entry, &entry.View.ImageSources[i], nil
			}
		}
	}
	return ViewEntry{}, nil, fmt.Errorf("image %d: %w", imageID, ErrNotFound)
}
