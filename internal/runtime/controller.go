package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"spaceeye/internal/config"
	"spaceeye/internal/logging"
	"spaceeye/internal/satconfig"
	"spaceeye/internal/status"
	"spaceeye/internal/updatelock"
	"spaceeye/internal/updater"
)

var ErrNotRunning = errors.New("spaceeye is not running")

type Controller struct {
	rootCtx context.Context
	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	service Service
	deps    Collaborators
	wg      sync.WaitGroup
}

type StartHooks struct {
	OnViews   func([]satconfig.ViewEntry)
	OnStatus  func(status.Snapshot)
	OnOutcome func(updatelock.Initiator, updater.Outcome)
	OnExit    func(error)
}

func NewController(rootCtx context.Context) *Controller {
	if rootCtx == nil {
		rootCtx = context.Background()
	}
	return &Controller{rootCtx: rootCtx}
}

// WithCollaborators replaces the OS facing pieces used by the next Start.
func (c *Controller) WithCollaborators(deps Collaborators) *Controller {
	c.mu.Lock()
	c.deps = deps
	c.mu.Unlock()
	return c
}

func (c *Controller) Start(opts config.Options, logger *logging.Logger, hooks StartHooks) error {
	if logger == nil {
		panic("runtime.Controller.Start: logger must not be nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("spaceeye is already running")
	}
	if err := config.ValidateRequired(opts); err != nil {
		return err
	}
	logger.Debug("runtime start requested",
		logging.Field("images_dir", opts.ImagesDir),
		logging.Field("monitors", len(opts.Monitors)),
		logging.Field("has_status_hook", hooks.OnStatus != nil),
	)

	service, err := NewServiceWithHooks(opts, logger, hooks, c.deps)
	if err != nil {
		return err
	}

	parent := c.rootCtx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	c.cancel = cancel
	c.running = true
	c.service = service
	c.wg.Go(func() {
		defer cancel()
		runErr := service.RunContext(ctx)
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			logger.Debug("runtime service exited due to context cancellation", logging.Field("error", runErr))
		} else if runErr != nil {
			logger.Warn("runtime service exited with error", logging.Field("error", runErr))
		} else {
			logger.Info("runtime service exited")
		}
		c.mu.Lock()
		c.running = false
		c.cancel = nil
		c.service = nil
		c.mu.Unlock()

		if hooks.OnExit != nil {
			hooks.OnExit(runErr)
		}
	})

	return nil
}

// RequestUpdate asks the running service for an update without waiting.
func (c *Controller) RequestUpdate(initiator updatelock.Initiator) bool {
	c.mu.Lock()
	service := c.service
	c.mu.Unlock()
	if service == nil {
		return false
	}
	return service.RequestUpdate(initiator)
}

func (c *Controller) SelectView(id int) error {
	c.mu.Lock()
	service := c.service
	c.mu.Unlock()
	if service == nil {
		return ErrNotRunning
	}
	return service.SelectView(id)
}

func (c *Controller) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Controller) Wait(timeout time.Duration) bool {
	waitDone := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(waitDone)
	}()
	if timeout <= 0 {
		<-waitDone
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-waitDone:
		return true
	case <-timer.C:
		return false
	}
}

func (c *Controller) StopAndWait(timeout time.Duration) bool {
	c.Stop()
	return c.Wait(timeout)
}

func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
