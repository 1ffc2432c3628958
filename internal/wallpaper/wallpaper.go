// Package wallpaper applies images to monitors through an external command.
package wallpaper

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"spaceeye/internal/display"
	"spaceeye/internal/logging"
	"spaceeye/internal/satconfig"
)

// Setter is the OS wallpaper collaborator. Monitors are addressed by both
// identity and index since some platforms only know the index.
type Setter interface {
	SetWallpaper(ctx context.Context, monitor display.Monitor, index int, path string, scaling satconfig.ScalingMode) error
	Wallpaper(ctx context.Context, monitor display.Monitor, index int) (string, error)
}

// CommandSetter runs a command template for every wallpaper change and
// remembers the last path applied per monitor. Placeholders {path}, {index},
// {monitor} and {scaling} are substituted in each argument. An empty template
// only records paths.
type CommandSetter struct {
	args   []string
	logger *logging.Logger
	run    func(ctx context.Context, name string, args ...string) ([]byte, error)

	mu      sync.Mutex
	current map[string]string
}

func NewCommandSetter(template string, logger *logging.Logger) *CommandSetter {
	if logger == nil {
		panic("wallpaper.NewCommandSetter: logger must not be nil")
	}
	return &CommandSetter{
		args:    strings.Fields(template),
		logger:  logger.Scope("wallpaper"),
		run:     runCommand,
		current: map[string]string{},
	}
}

func (s *CommandSetter) DryRun() bool {
	return len(s.args) == 0
}

func (s *CommandSetter) SetWallpaper(ctx context.Context, monitor display.Monitor, index int, path string, scaling satconfig.ScalingMode) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("wallpaper path is required")
	}
	if !s.DryRun() {
		args := expand(s.args, monitor, index, path, scaling)
		output, err := s.run(ctx, args[0], args[1:]...)
		if err != nil {
			s.logger.Warn("wallpaper command failed",
				logging.Field("command", args[0]),
				logging.Field("monitor", monitor.ID),
				logging.Field("output", logging.Truncate(string(output))),
				logging.Field("error", err),
			)
			return fmt.Errorf("set wallpaper on monitor %d: %w", index, err)
		}
	}
	s.mu.Lock()
	s.current[key(monitor, index)] = path
	s.mu.Unlock()
	s.logger.Info("wallpaper set",
		logging.Field("monitor", monitor.ID),
		logging.Field("index", index),
		logging.Field("path", path),
		logging.Field("scaling", string(scaling)),
		logging.Field("dry_run", s.DryRun()),
	)
	return nil
}

// Wallpaper returns the last path applied to the monitor, or "" if none.
func (s *CommandSetter) Wallpaper(ctx context.Context, monitor display.Monitor, index int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current[key(monitor, index)], nil
}

func key(monitor display.Monitor, index int) string {
	return monitor.ID + "#" + strconv.Itoa(index)
}

func expand(template []string, monitor display.Monitor, index int, path string, scaling satconfig.ScalingMode) []string {
	r := strings.NewReplacer(
		"{path}", path,
		"{index}", strconv.Itoa(index),
		"{monitor}", monitor.ID,
		"{scaling}", string(scaling),
	)
	out := make([]string, len(template))
	for i, arg := range template {
		out[i] = r.Replace(arg)
	}
	return out
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}
