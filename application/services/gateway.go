package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mindcanvas/application/ports"
	"mindcanvas/domain/config"
	"mindcanvas/domain/core/entities"
	"mindcanvas/domain/events"
	"mindcanvas/infrastructure/persistence/document"
	pkgerrors "mindcanvas/pkg/errors"

	"go.uber.org/zap"
)

// Snapshot is a point-in-time copy of the mind map taken on the session loop
type Snapshot struct {
	MapID   string
	Version int
	Nodes   []entities.NodeState
}

// PersistenceGateway moves documents between the node store and a
// key-value store, and renders export files.
type PersistenceGateway struct {
	store     ports.KeyValueStore
	cfg       *config.DomainConfig
	clock     ports.Clock
	publisher ports.EventPublisher
	logger    *zap.Logger
	key       string

	// writeMu orders saves; saved is the newest map version written
	writeMu sync.Mutex
	saved   int

	mu      sync.Mutex
	written []string
}

// recentWrites bounds the updatedAt values remembered as our own
const recentWrites = 8

// NewPersistenceGateway creates a gateway writing under cfg.StorageKey.
// publisher may be nil.
func NewPersistenceGateway(
	store ports.KeyValueStore,
	cfg *config.DomainConfig,
	clock ports.Clock,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *PersistenceGateway {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersistenceGateway{
		store:     store,
		cfg:       cfg,
		clock:     clock,
		publisher: publisher,
		logger:    logger,
		key:       cfg.StorageKey,
	}
}

// Key returns the storage key documents are written under
func (g *PersistenceGateway) Key() string { return g.key }

// Save writes the snapshot as the autosave document. The createdAt of a
// previously stored document is carried over; an unreadable previous
// document is treated as absent. A snapshot older than one already written
// is skipped and Save returns a nil document.
func (g *PersistenceGateway) Save(ctx context.Context, snap Snapshot) (*document.Document, error) {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	if snap.Version < g.saved {
		g.logger.Debug("Skipping stale snapshot",
			zap.Int("version", snap.Version),
			zap.Int("saved", g.saved),
		)
		return nil, nil
	}

	createdAt := ""
	if prev, err := g.read(ctx); err == nil && prev != nil {
		createdAt = prev.CreatedAt
	} else if err != nil && !pkgerrors.IsValidation(err) {
		return nil, err
	}

	doc := document.New(snap.Nodes, g.cfg, createdAt, g.clock.Now())
	data, err := document.Encode(doc)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to encode document").WithCause(err)
	}

	// Stores may announce the change before Set returns, so the value is
	// recorded as ours first.
	g.remember(doc.UpdatedAt)
	if err := g.store.Set(ctx, g.key, string(data)); err != nil {
		g.forget(doc.UpdatedAt)
		return nil, pkgerrors.NewDatabaseError("save document", err)
	}
	g.saved = snap.Version

	g.logger.Debug("Document saved",
		zap.String("key", g.key),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("bytes", len(data)),
	)

	if g.publisher != nil {
		event := events.NewDocumentSaved(snap.MapID, snap.Version, g.key, len(doc.Nodes), len(data), g.clock.Now())
		if err := g.publisher.Publish(ctx, event); err != nil {
			g.logger.Warn("Failed to publish event", zap.String("type", event.GetEventType()), zap.Error(err))
		}
	}
	return doc, nil
}

// Load reads the autosave document. It reports false when nothing is
// stored. A stored document that fails validation is returned as an error.
func (g *PersistenceGateway) Load(ctx context.Context) ([]entities.NodeState, bool, error) {
	doc, err := g.read(ctx)
	if err != nil {
		return nil, false, err
	}
	if doc == nil {
		return nil, false, nil
	}
	states, err := doc.States()
	if err != nil {
		return nil, false, err
	}
	return states, true, nil
}

// Document returns the stored document as written, or nil when absent
func (g *PersistenceGateway) Document(ctx context.Context) (*document.Document, error) {
	return g.read(ctx)
}

// ChangedExternally reports whether the stored document was written by
// someone other than this gateway since its last save.
func (g *PersistenceGateway) ChangedExternally(ctx context.Context) (bool, error) {
	doc, err := g.read(ctx)
	if err != nil || doc == nil {
		return false, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, w := range g.written {
		if w == doc.UpdatedAt {
			return false, nil
		}
	}
	return true, nil
}

func (g *PersistenceGateway) remember(updatedAt string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.written = append(g.written, updatedAt)
	if len(g.written) > recentWrites {
		g.written = g.written[len(g.written)-recentWrites:]
	}
}

func (g *PersistenceGateway) forget(updatedAt string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := len(g.written) - 1; i >= 0; i-- {
		if g.written[i] == updatedAt {
			g.written = append(g.written[:i], g.written[i+1:]...)
			return
		}
	}
}

// Clear removes the autosave document
func (g *PersistenceGateway) Clear(ctx context.Context) error {
	if err := g.store.Remove(ctx, g.key); err != nil {
		return pkgerrors.NewDatabaseError("clear document", err)
	}
	g.mu.Lock()
	g.written = nil
	g.mu.Unlock()
	return nil
}

// Export renders the snapshot as an indented JSON file and returns the
// suggested filename.
func (g *PersistenceGateway) Export(snap Snapshot) (string, []byte, error) {
	now := g.clock.Now()
	doc := document.New(snap.Nodes, g.cfg, "", now)
	data, err := document.EncodeIndent(doc)
	if err != nil {
		return "", nil, pkgerrors.NewInternalError("failed to encode document").WithCause(err)
	}
	return ExportFilename(now), data, nil
}

// Import validates and decodes an uploaded document. Nothing is written.
func (g *PersistenceGateway) Import(data []byte) ([]entities.NodeState, error) {
	doc, err := document.Decode(data, g.cfg)
	if err != nil {
		return nil, err
	}
	return doc.States()
}

func (g *PersistenceGateway) read(ctx context.Context) (*document.Document, error) {
	raw, ok, err := g.store.Get(ctx, g.key)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("load document", err)
	}
	if !ok {
		return nil, nil
	}
	doc, err := document.Decode([]byte(raw), g.cfg)
	if err != nil {
		return nil, fmt.Errorf("stored document %q: %w", g.key, err)
	}
	return doc, nil
}

// ExportFilename is mindmap-<YYYY-MM-DD>.json for the UTC date of t, the
// same clock the document timestamps use
func ExportFilename(t time.Time) string {
	return "mindmap-" + t.UTC().Format("2006-01-02") + ".json"
}
