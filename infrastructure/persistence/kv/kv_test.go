package kv

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"mindcanvas/application/ports"
	pkgerrors "mindcanvas/pkg/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStoreContract(t *testing.T, store ports.KeyValueStore) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "mindmap-autosave")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "mindmap-autosave", `{"nodes":[]}`))
	value, ok, err := store.Get(ctx, "mindmap-autosave")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"nodes":[]}`, value)

	require.NoError(t, store.Set(ctx, "mindmap-autosave", `{"nodes":[{"id":"1"}]}`))
	value, _, err = store.Get(ctx, "mindmap-autosave")
	require.NoError(t, err)
	assert.Equal(t, `{"nodes":[{"id":"1"}]}`, value)

	require.NoError(t, store.Set(ctx, "other/key", "x"))

	require.NoError(t, store.Remove(ctx, "mindmap-autosave"))
	_, ok, err = store.Get(ctx, "mindmap-autosave")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Remove(ctx, "mindmap-autosave"), "removing a missing key is not an error")

	value, ok, err = store.Get(ctx, "other/key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x", value)
}

func expectNotification(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case _, ok := <-ch:
		require.True(t, ok, "channel closed")
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	testStoreContract(t, s)
	before := s.Keys()

	require.NoError(t, s.Set(context.Background(), "a", "1"))
	require.NoError(t, s.Set(context.Background(), "b", "2"))
	require.NoError(t, s.Set(context.Background(), "a", "3"))
	assert.Equal(t, 2, s.Keys()-before)
}

func TestMemoryStore_Watch(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := s.Watch(ctx, "k")
	require.NoError(t, err)

	require.NoError(t, s.Set(context.Background(), "other", "v"))
	require.NoError(t, s.Set(context.Background(), "k", "v"))
	expectNotification(t, ch)

	cancel()
	_, ok := <-ch
	assert.False(t, ok, "closed after cancel")
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "data"), nil)
	require.NoError(t, err)
	testStoreContract(t, s)
}

func TestFileStore_WatchSeesOtherWriters(t *testing.T) {
	dir := t.TempDir()
	reader, err := NewFileStore(dir, nil)
	require.NoError(t, err)
	writer, err := NewFileStore(dir, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := reader.Watch(ctx, "mindmap-autosave")
	require.NoError(t, err)

	require.NoError(t, writer.Set(context.Background(), "mindmap-autosave", "v1"))
	expectNotification(t, ch)

	value, ok, err := reader.Get(context.Background(), "mindmap-autosave")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", value)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	defer s.Close()

	testStoreContract(t, s)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	s, err := NewSQLiteStore(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "k", "persisted"))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(context.Background(), path)
	require.NoError(t, err)
	defer s.Close()
	value, ok, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "persisted", value)
}

func TestDialectRebind(t *testing.T) {
	assert.Equal(t, "SELECT ? FROM t WHERE a = ?", dialect{}.rebind("SELECT ? FROM t WHERE a = ?"))
	assert.Equal(t, "SELECT $1 FROM t WHERE a = $2", dialect{numbered: true}.rebind("SELECT ? FROM t WHERE a = ?"))
}

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	s, err := NewRedisStore(context.Background(), "redis://"+m.Addr(), "mc:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, m
}

func TestRedisStore(t *testing.T) {
	s, m := setupTestRedis(t)
	testStoreContract(t, s)

	assert.True(t, m.Exists("mc:other/key"), "keys are prefixed")
	assert.NoError(t, s.Ping(context.Background()))
}

func TestRedisStore_Watch(t *testing.T) {
	s, _ := setupTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.Watch(ctx, "k")
	require.NoError(t, err)

	require.NoError(t, s.Set(context.Background(), "k", "v"))
	expectNotification(t, ch)
}

func TestNewRedisStore_BadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "://nope", "")
	assert.Error(t, err)
}

// fakeDynamo keeps items in memory and understands the SET expressions the
// store builds
type fakeDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func itemID(key map[string]types.AttributeValue) string {
	pk := key["PK"].(*types.AttributeValueMemberS).Value
	sk := key["SK"].(*types.AttributeValueMemberS).Value
	return pk + "|" + sk
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[itemID(in.Key)]}, nil
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := itemID(in.Key)
	item := f.items[id]
	if item == nil {
		item = map[string]types.AttributeValue{"PK": in.Key["PK"], "SK": in.Key["SK"]}
	}
	assignments := strings.TrimPrefix(strings.TrimSpace(*in.UpdateExpression), "SET ")
	for _, a := range strings.Split(assignments, ", ") {
		parts := strings.SplitN(a, " = ", 2)
		item[in.ExpressionAttributeNames[parts[0]]] = in.ExpressionAttributeValues[parts[1]]
	}
	f.items[id] = item
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, itemID(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestDynamoDBStore(t *testing.T) {
	fake := newFakeDynamo()
	testStoreContract(t, NewDynamoDBStore(fake, "mindcanvas"))

	raw := fake.items["KV#other/key|DOCUMENT"]
	require.NotNil(t, raw)
	var item kvItem
	require.NoError(t, attributevalue.UnmarshalMap(raw, &item))
	assert.Equal(t, "x", item.Value)
	assert.NotEmpty(t, item.UpdatedAt)
}

type failingStore struct{ calls int }

func (f *failingStore) Get(context.Context, string) (string, bool, error) {
	f.calls++
	return "", false, errors.New("connection refused")
}
func (f *failingStore) Set(context.Context, string, string) error {
	f.calls++
	return errors.New("connection refused")
}
func (f *failingStore) Remove(context.Context, string) error {
	f.calls++
	return errors.New("connection refused")
}

func TestBreakerStore_OpensAfterFailures(t *testing.T) {
	inner := &failingStore{}
	cfg := DefaultBreakerConfig("test")
	cfg.Timeout = time.Hour
	s := NewBreakerStore(inner, cfg, nil)
	ctx := context.Background()

	for i := 0; i < int(cfg.MinRequests); i++ {
		err := s.Set(ctx, "k", "v")
		require.Error(t, err)
		assert.False(t, pkgerrors.HasCode(err, pkgerrors.CodeStorageBreakerOff))
	}
	assert.Equal(t, gobreaker.StateOpen, s.State())

	_, _, err := s.Get(ctx, "k")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStorageBreakerOff))
	assert.Equal(t, int(cfg.MinRequests), inner.calls, "open breaker does not reach the store")
}

func TestBreakerStore_PassesThrough(t *testing.T) {
	s := NewBreakerStore(NewMemoryStore(), DefaultBreakerConfig("test"), nil)
	testStoreContract(t, s)
	assert.Equal(t, gobreaker.StateClosed, s.State())
}
