package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"mindcanvas/domain/config"
	"mindcanvas/domain/core/aggregates"
	"mindcanvas/domain/core/valueobjects"
	"mindcanvas/domain/events"
	"mindcanvas/infrastructure/persistence/document"
	"mindcanvas/infrastructure/persistence/kv"
	pkgerrors "mindcanvas/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type capturePublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (p *capturePublisher) Publish(_ context.Context, e events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturePublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	for _, e := range batch {
		_ = p.Publish(ctx, e)
	}
	return nil
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.GetEventType())
	}
	return out
}

type fixture struct {
	store     *kv.MemoryStore
	clock     *testClock
	publisher *capturePublisher
	gateway   *PersistenceGateway
	session   *Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.DefaultDomainConfig()
	f := &fixture{
		store:     kv.NewMemoryStore(),
		clock:     newTestClock(),
		publisher: &capturePublisher{},
	}
	f.gateway = NewPersistenceGateway(f.store, cfg, f.clock, f.publisher, zap.NewNop())
	m := aggregates.NewMindMap(cfg, valueobjects.NewSequenceGenerator("n"),
		aggregates.WithID("map-1"), aggregates.WithClock(f.clock.Now))
	f.session = NewSession(m, f.gateway, f.publisher, zap.NewNop())
	f.session.Start()
	t.Cleanup(func() { _ = f.session.Close(context.Background()) })
	return f
}

func (f *fixture) writeExternal(t *testing.T, titles ...string) {
	t.Helper()
	m := aggregates.NewMindMap(config.DefaultDomainConfig(), valueobjects.NewSequenceGenerator("x"))
	for _, title := range titles {
		node, err := m.CreateNode(nil, 0, 0)
		require.NoError(t, err)
		require.NoError(t, m.UpdateNode(node.ID(), aggregates.NodePatch{Title: &title}))
	}
	f.clock.Advance(time.Minute)
	data, err := document.Encode(document.New(m.Snapshot(), nil, "", f.clock.Now()))
	require.NoError(t, err)
	require.NoError(t, f.store.Set(context.Background(), f.gateway.Key(), string(data)))
}

func TestGateway_SaveLoadRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, ok, err := f.gateway.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	snap, err := f.session.Snapshot(ctx)
	require.NoError(t, err)
	doc, err := f.gateway.Save(ctx, snap)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", doc.Version)

	states, ok, err := f.gateway.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, states, 1)
	assert.Equal(t, "My Mindmap Todo", states[0].Title)
	assert.Contains(t, f.publisher.types(), events.TypeDocumentSaved)
}

func TestGateway_PreservesCreatedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	snap, err := f.session.Snapshot(ctx)
	require.NoError(t, err)

	first, err := f.gateway.Save(ctx, snap)
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	second, err := f.gateway.Save(ctx, snap)
	require.NoError(t, err)

	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.NotEqual(t, first.UpdatedAt, second.UpdatedAt)
}

func TestGateway_InvalidStoredDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, f.gateway.Key(), "{not json"))

	_, _, err := f.gateway.Load(ctx)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))

	snap, err := f.session.Snapshot(ctx)
	require.NoError(t, err)
	_, err = f.gateway.Save(ctx, snap)
	assert.NoError(t, err, "an unreadable previous document is overwritten")
}

func TestGateway_ExportImport(t *testing.T) {
	f := newFixture(t)
	snap, err := f.session.Snapshot(context.Background())
	require.NoError(t, err)

	name, data, err := f.gateway.Export(snap)
	require.NoError(t, err)
	assert.Equal(t, "mindmap-2024-03-01.json", name)
	assert.Contains(t, string(data), "\n  \"nodes\"")

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "1.0.0", raw["version"])

	states, err := f.gateway.Import(data)
	require.NoError(t, err)
	assert.Len(t, states, 1)

	tests := []struct {
		name string
		data string
	}{
		{"not json", "nope"},
		{"missing nodes", `{"version":"1.0.0"}`},
		{"nodes not array", `{"nodes":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.gateway.Import([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err))
		})
	}
}

func TestGateway_ChangedExternallyAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	snap, err := f.session.Snapshot(ctx)
	require.NoError(t, err)
	_, err = f.gateway.Save(ctx, snap)
	require.NoError(t, err)

	changed, err := f.gateway.ChangedExternally(ctx)
	require.NoError(t, err)
	assert.False(t, changed)

	f.writeExternal(t, "Elsewhere")
	changed, err = f.gateway.ChangedExternally(ctx)
	require.NoError(t, err)
	assert.True(t, changed)

	require.NoError(t, f.gateway.Clear(ctx))
	doc, err := f.gateway.Document(ctx)
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestSession_PublishesEventsAndForgetsDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var child valueobjects.NodeID
	require.NoError(t, f.session.Do(ctx, func(w *Workspace) error {
		root := valueobjects.MustNodeID("1")
		n, err := w.Map.CreateNode(&root, 10, 10)
		if err != nil {
			return err
		}
		child = n.ID()
		w.Controller.Select(child)
		return nil
	}))

	require.NoError(t, f.session.Do(ctx, func(w *Workspace) error {
		_, err := w.Map.DeleteNode(child)
		return err
	}))

	require.NoError(t, f.session.Do(ctx, func(w *Workspace) error {
		_, ok := w.Controller.Selected()
		assert.False(t, ok)
		assert.Empty(t, w.Map.GetUncommittedEvents())
		return nil
	}))
	assert.Equal(t, []string{events.TypeNodeCreated, events.TypeNodesDeleted}, f.publisher.types())
}

func TestSession_DoErrors(t *testing.T) {
	m := aggregates.NewMindMap(nil, valueobjects.NewSequenceGenerator("n"))
	s := NewSession(m, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Do(ctx, func(*Workspace) error { return nil })
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeTimeout))

	require.NoError(t, s.Close(context.Background()))
	err = s.Do(context.Background(), func(*Workspace) error { return nil })
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
}

func TestSession_RestoreSelectsFirstNode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.writeExternal(t, "Alpha", "Beta")

	ok, err := f.session.Restore(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	nodes, err := f.session.Nodes(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	require.NoError(t, f.session.Do(ctx, func(w *Workspace) error {
		sel, ok := w.Controller.Selected()
		assert.True(t, ok)
		assert.Equal(t, nodes[0].ID(), sel)
		return nil
	}))
}

func TestSession_RestoreIgnoresInvalidDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, f.gateway.Key(), `{"nodes":"bad"}`))

	ok, err := f.session.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	nodes, err := f.session.Nodes(ctx)
	require.NoError(t, err)
	assert.Len(t, nodes, 1)
}

func TestSession_ImportInvalidLeavesMap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.session.Import(ctx, []byte(`[]`))
	require.Error(t, err)

	nodes, err := f.session.Nodes(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "My Mindmap Todo", nodes[0].Title())
}

func TestSession_CloseSaves(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.session.Close(context.Background()))

	doc, err := f.gateway.Document(context.Background())
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Len(t, doc.Nodes, 1)
}

func TestSession_FollowReloadsExternalWrites(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, f.session.Follow(ctx, f.store))
	require.NoError(t, f.session.Save(ctx))
	f.writeExternal(t, "From another process")

	assert.Eventually(t, func() bool {
		nodes, err := f.session.Nodes(ctx)
		return err == nil && len(nodes) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAutoSaver_WritesPeriodically(t *testing.T) {
	f := newFixture(t)
	saver := NewAutoSaver(f.session, f.gateway, 10*time.Millisecond, zap.NewNop())
	saver.Start(context.Background())

	assert.Eventually(t, func() bool {
		doc, err := f.gateway.Document(context.Background())
		return err == nil && doc != nil
	}, 2*time.Second, 5*time.Millisecond)

	saver.Stop()
	saver.Stop()
}

func TestAutoSaver_StopWithoutStart(t *testing.T) {
	f := newFixture(t)
	saver := NewAutoSaver(f.session, f.gateway, time.Hour, nil)
	done := make(chan struct{})
	go func() {
		saver.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without Start")
	}
}

// slowStore stands in for a remote store that announces a write before
// the Set call returns to the writer.
type slowStore struct {
	*kv.MemoryStore
	delay time.Duration
}

func (s *slowStore) Set(ctx context.Context, key, value string) error {
	if err := s.MemoryStore.Set(ctx, key, value); err != nil {
		return err
	}
	time.Sleep(s.delay)
	return nil
}

func TestSession_FollowIgnoresOwnSlowWrites(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	store := &slowStore{MemoryStore: kv.NewMemoryStore(), delay: 20 * time.Millisecond}
	clock := newTestClock()
	publisher := &capturePublisher{}
	gateway := NewPersistenceGateway(store, cfg, clock, publisher, zap.NewNop())
	m := aggregates.NewMindMap(cfg, valueobjects.NewSequenceGenerator("n"),
		aggregates.WithID("map-1"), aggregates.WithClock(clock.Now))
	session := NewSession(m, gateway, publisher, zap.NewNop())
	session.Start()
	t.Cleanup(func() { _ = session.Close(context.Background()) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, session.Follow(ctx, store))

	var created valueobjects.NodeID
	require.NoError(t, session.Do(ctx, func(w *Workspace) error {
		node, err := w.Map.CreateNode(nil, 10, 10)
		if err != nil {
			return err
		}
		created = node.ID()
		w.Controller.Select(created)
		return nil
	}))
	require.NoError(t, session.Save(ctx))

	loaded := func() bool {
		for _, typ := range publisher.types() {
			if typ == events.TypeDocumentLoaded {
				return true
			}
		}
		return false
	}
	assert.Never(t, loaded, 200*time.Millisecond, 10*time.Millisecond)

	require.NoError(t, session.Do(ctx, func(w *Workspace) error {
		sel, ok := w.Controller.Selected()
		assert.True(t, ok)
		assert.Equal(t, created, sel)
		return nil
	}))
}

func TestGateway_SkipsStaleSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	older, err := f.session.Snapshot(ctx)
	require.NoError(t, err)
	require.NoError(t, f.session.Do(ctx, func(w *Workspace) error {
		_, err := w.Map.CreateNode(nil, 50, 50)
		return err
	}))
	require.NoError(t, f.session.Save(ctx))

	doc, err := f.gateway.Save(ctx, older)
	require.NoError(t, err)
	assert.Nil(t, doc, "an older snapshot must not overwrite a newer save")

	stored, err := f.gateway.Document(ctx)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Len(t, stored.Nodes, 2)
}

func TestExportFilename_UsesUTCDate(t *testing.T) {
	evening := time.Date(2024, 3, 1, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	assert.Equal(t, "mindmap-2024-03-02.json", ExportFilename(evening))
	assert.Equal(t, "mindmap-2024-03-01.json", ExportFilename(time.Date(2024, 3, 1, 0, 5, 0, 0, time.UTC)))
}
