package services

import (
	"context"
	"sync"

	"mindcanvas/application/canvas"
	"mindcanvas/application/ports"
	"mindcanvas/domain/core/aggregates"
	"mindcanvas/domain/core/entities"
	"mindcanvas/domain/events"
	pkgerrors "mindcanvas/pkg/errors"

	"go.uber.org/zap"
)

// Workspace is the state owned by the session loop. It must only be
// touched from inside a function passed to Session.Do.
type Workspace struct {
	Map        *aggregates.MindMap
	Viewport   *canvas.Viewport
	Controller *canvas.Controller
}

type operation struct {
	fn   func(*Workspace) error
	done chan error
}

// Session serializes all access to one mind map. Submitted functions run
// one at a time on a dedicated goroutine; domain events they raise are
// published after each function returns.
type Session struct {
	ws        *Workspace
	gateway   *PersistenceGateway
	publisher ports.EventPublisher
	logger    *zap.Logger

	ops         chan operation
	stopChan    chan struct{}
	stoppedChan chan struct{}

	startOnce sync.Once
	closeOnce sync.Once
	closeErr  error
}

// NewSession creates a session around m. gateway and publisher may be nil.
// Event handlers run on the session loop and must not call Do.
func NewSession(
	m *aggregates.MindMap,
	gateway *PersistenceGateway,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	viewport := canvas.NewViewport(m.Config())
	return &Session{
		ws: &Workspace{
			Map:        m,
			Viewport:   viewport,
			Controller: canvas.NewController(m, viewport, m.Config()),
		},
		gateway:     gateway,
		publisher:   publisher,
		logger:      logger,
		ops:         make(chan operation),
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

// Start runs the session loop until Close
func (s *Session) Start() {
	s.startOnce.Do(func() {
		s.logger.Info("Starting session", zap.String("mapID", s.ws.Map.ID()))
		go s.loop()
	})
}

func (s *Session) loop() {
	defer close(s.stoppedChan)
	for {
		select {
		case <-s.stopChan:
			return
		case op := <-s.ops:
			err := op.fn(s.ws)
			s.flushEvents()
			op.done <- err
		}
	}
}

func (s *Session) flushEvents() {
	pending := s.ws.Map.GetUncommittedEvents()
	if len(pending) == 0 {
		return
	}
	s.ws.Map.MarkEventsAsCommitted()

	for _, e := range pending {
		if deleted, ok := e.(events.NodesDeleted); ok {
			s.ws.Controller.Forget(deleted.Removed)
		}
	}

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishBatch(context.Background(), pending); err != nil {
		s.logger.Warn("Failed to publish events", zap.Int("count", len(pending)), zap.Error(err))
	}
}

// Do runs fn on the session loop and waits for it to finish
func (s *Session) Do(ctx context.Context, fn func(*Workspace) error) error {
	op := operation{fn: fn, done: make(chan error, 1)}
	select {
	case s.ops <- op:
	case <-s.stoppedChan:
		return pkgerrors.NewUnavailableError("session")
	case <-ctx.Done():
		return pkgerrors.NewTimeoutError("session").WithCause(ctx.Err())
	}
	// Once accepted the operation always completes; waiting keeps callers
	// from observing a half-applied state.
	return <-op.done
}

// Snapshot copies the node states on the loop
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.Do(ctx, func(w *Workspace) error {
		snap = Snapshot{MapID: w.Map.ID(), Version: w.Map.Version(), Nodes: w.Map.Snapshot()}
		return nil
	})
	return snap, err
}

// Nodes returns node copies in document order
func (s *Session) Nodes(ctx context.Context) ([]*entities.Node, error) {
	var nodes []*entities.Node
	err := s.Do(ctx, func(w *Workspace) error {
		nodes = w.Map.Nodes()
		return nil
	})
	return nodes, err
}

// Restore loads the autosave document into the map and selects its first
// node. With nothing stored the map keeps its current content. A stored
// document that cannot be read is logged and ignored.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	if s.gateway == nil {
		return false, nil
	}
	states, ok, err := s.gateway.Load(ctx)
	if err != nil {
		if pkgerrors.IsValidation(err) {
			s.logger.Error("Failed to load from storage", zap.Error(err))
			return false, nil
		}
		return false, err
	}
	if !ok {
		return false, nil
	}
	return true, s.replace(ctx, states)
}

// Import replaces the map with an uploaded document. Invalid input leaves
// the map untouched.
func (s *Session) Import(ctx context.Context, data []byte) error {
	if s.gateway == nil {
		return pkgerrors.NewUnavailableError("persistence")
	}
	states, err := s.gateway.Import(data)
	if err != nil {
		return err
	}
	return s.replace(ctx, states)
}

func (s *Session) replace(ctx context.Context, states []entities.NodeState) error {
	return s.Do(ctx, func(w *Workspace) error {
		if err := w.Map.LoadDocument(states); err != nil {
			return err
		}
		w.Controller.ClearSelection()
		if nodes := w.Map.Nodes(); len(nodes) > 0 {
			w.Controller.Select(nodes[0].ID())
		}
		return nil
	})
}

// Save writes the current state through the gateway and waits for it
func (s *Session) Save(ctx context.Context) error {
	if s.gateway == nil {
		return pkgerrors.NewUnavailableError("persistence")
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	_, err = s.gateway.Save(ctx, snap)
	return err
}

// Follow reloads the map whenever notifier reports that another process
// rewrote the stored document. It returns when ctx is done.
func (s *Session) Follow(ctx context.Context, notifier ports.ChangeNotifier) error {
	if s.gateway == nil {
		return pkgerrors.NewUnavailableError("persistence")
	}
	changes, err := notifier.Watch(ctx, s.gateway.Key())
	if err != nil {
		return err
	}
	go func() {
		for range changes {
			external, err := s.gateway.ChangedExternally(ctx)
			if err != nil {
				s.logger.Warn("Failed to check stored document", zap.Error(err))
				continue
			}
			if !external {
				continue
			}
			if _, err := s.Restore(ctx); err != nil {
				s.logger.Warn("Failed to reload stored document", zap.Error(err))
				continue
			}
			s.logger.Info("Reloaded document changed in storage", zap.String("key", s.gateway.Key()))
		}
	}()
	return nil
}

// Close performs a final synchronous save and stops the loop. Stop any
// AutoSaver first so an older in-flight write cannot land after this one.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.Start()
		if s.gateway != nil {
			if err := s.Save(ctx); err != nil {
				s.logger.Error("Final save failed", zap.Error(err))
				s.closeErr = err
			}
		}
		close(s.stopChan)
		<-s.stoppedChan
		s.logger.Info("Session closed", zap.String("mapID", s.ws.Map.ID()))
	})
	return s.closeErr
}
