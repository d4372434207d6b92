package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/itour/internal/logger"
	"github.com/MrSnakeDoc/itour/internal/store"
)

// DefaultAutosaveInterval is used when no interval is configured
const DefaultAutosaveInterval = 30 * time.Second

// Committer commits pending store changes for a trigger.
type Committer interface {
	Persist(ctx context.Context, trigger store.Trigger) error
}

// AutoSaver commits pending changes on a ticker and on demand.
type AutoSaver struct {
	committer     Committer
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan store.Trigger
	done          chan struct{}
	started       bool
	stopOnce      sync.Once
}

// NewAutoSaver creates a new autosaver
func NewAutoSaver(c Committer, log logger.Logger, interval time.Duration) *AutoSaver {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}

	return &AutoSaver{
		committer:     c,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: make(chan store.Trigger, 1),
		done:          make(chan struct{}),
	}
}

// Start commits once with the foreground trigger, then runs the loop.
func (a *AutoSaver) Start(ctx context.Context) error {
	if err := a.committer.Persist(ctx, store.TriggerForeground); err != nil {
		return err
	}

	a.started = true
	ticker := time.NewTicker(a.interval)
	go func() {
		defer close(a.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				a.save(ctx, store.TriggerInterval)
			case t := <-a.manualTrigger:
				a.logger.Info("commit requested", logger.String("trigger", string(t)))
				a.save(ctx, t)
			case <-a.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Trigger queues a commit. It reports false when one is already queued.
func (a *AutoSaver) Trigger(t store.Trigger) bool {
	select {
	case a.manualTrigger <- t:
		return true
	default:
		a.logger.Debug("commit already queued", logger.String("trigger", string(t)))
		return false
	}
}

// Stop stops the loop and waits for an in-flight commit to finish.
func (a *AutoSaver) Stop() {
	a.stopOnce.Do(func() { close(a.stopCh) })
	if a.started {
		<-a.done
	}
}

func (a *AutoSaver) save(ctx context.Context, t store.Trigger) {
	if err := a.committer.Persist(ctx, t); err != nil {
		a.logger.Error("autosave failed",
			logger.String("trigger", string(t)),
			logger.Error(err))
	}
}
