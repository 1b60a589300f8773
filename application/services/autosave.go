package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AutoSaver periodically writes the session's document. The snapshot is
// taken on the session loop; the write happens on its own goroutine so a
// slow store never stalls interaction. Write failures are logged only.
type AutoSaver struct {
	session  *Session
	gateway  *PersistenceGateway
	interval time.Duration
	logger   *zap.Logger

	writes sync.WaitGroup

	startOnce   sync.Once
	stopOnce    sync.Once
	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewAutoSaver creates an autosaver ticking every interval
func NewAutoSaver(session *Session, gateway *PersistenceGateway, interval time.Duration, logger *zap.Logger) *AutoSaver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &AutoSaver{
		session:     session,
		gateway:     gateway,
		interval:    interval,
		logger:      logger,
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

// Start begins the save loop
func (a *AutoSaver) Start(ctx context.Context) {
	a.startOnce.Do(func() {
		a.logger.Info("Starting autosave",
			zap.String("key", a.gateway.Key()),
			zap.Duration("interval", a.interval),
		)
		go a.saveLoop(ctx)
	})
}

// Stop ends the loop and waits for in-flight writes
func (a *AutoSaver) Stop() {
	a.stopOnce.Do(func() {
		close(a.stopChan)
		a.startOnce.Do(func() { close(a.stoppedChan) })
		<-a.stoppedChan
		a.writes.Wait()
		a.logger.Info("Autosave stopped")
	})
}

func (a *AutoSaver) saveLoop(ctx context.Context) {
	defer close(a.stoppedChan)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.stopChan:
			return
		case <-ticker.C:
			a.tick(ctx)
		}
	}
}

func (a *AutoSaver) tick(ctx context.Context) {
	snap, err := a.session.Snapshot(ctx)
	if err != nil {
		a.logger.Error("Autosave snapshot failed", zap.Error(err))
		return
	}

	a.writes.Add(1)
	go func() {
		defer a.writes.Done()
		// the gateway drops the write if a newer snapshot already landed
		if _, err := a.gateway.Save(ctx, snap); err != nil {
			a.logger.Error("Autosave failed", zap.String("key", a.gateway.Key()), zap.Error(err))
		}
	}()
}
