package updater

import (
	"context"
	"errors"

	"spaceeye/internal/downloader"
	"spaceeye/internal/logging"
	"spaceeye/internal/status"
	"spaceeye/internal/updatelock"
)

type Outcome int

const (
	// OutcomeSkipped means the lock was refused to a lower priority trigger.
	OutcomeSkipped Outcome = iota
	OutcomeUpdated
	OutcomeNothingToDo
	// OutcomeCancelled means the attempt was preempted or its context ended.
	OutcomeCancelled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeUpdated:
		return "updated"
	case OutcomeNothingToDo:
		return "nothing to do"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Succeeded reports whether the desktop now shows the selected view.
func (o Outcome) Succeeded() bool {
	return o == OutcomeUpdated
}

// Update acquires the lock for initiator and runs the pipeline. Benign
// conditions are turned into outcomes; only unexpected failures invalidate the
// lock and are logged as errors.
func (u *Updater) Update(ctx context.Context, initiator updatelock.Initiator) Outcome {
	lock, ok := u.arbiter.Acquire(initiator)
	if !ok {
		u.logger.Debug("update skipped; another update holds the lock", logging.Field("initiator", initiator.String()))
		return OutcomeSkipped
	}
	log := u.logger.Scope(initiator.String())
	log.Debug("update started", logging.Field("lock_id", lock.ID()))

	err := u.Pipeline(ctx, lock)
	switch {
	case err == nil:
		log.Info("wallpaper updated", logging.Field("lock_id", lock.ID()))
		return OutcomeUpdated
	case errors.Is(err, ErrNoViewConfigured):
		lock.Release()
		log.Info("no view selected; nothing to update")
		return OutcomeNothingToDo
	case errors.Is(err, ErrLockInvalidated), errors.Is(err, downloader.ErrRequestCancelled):
		lock.Release()
		log.Info("update cancelled", logging.Field("lock_id", lock.ID()), logging.Field("reason", err))
		return OutcomeCancelled
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		lock.Release()
		log.Debug("update stopped", logging.Field("error", err))
		return OutcomeCancelled
	default:
		lock.Invalidate()
		log.Error("update failed", logging.Field("lock_id", lock.ID()), logging.Field("error", err))
		if viewID, ok := u.settings.CurrentViewID(); ok {
			u.tracker.SetView(viewID, status.Error, err.Error())
		}
		return OutcomeFailed
	}
}
