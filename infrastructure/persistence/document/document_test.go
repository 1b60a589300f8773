package document

import (
	"encoding/json"
	"testing"
	"time"

	"mindcanvas/domain/config"
	"mindcanvas/domain/core/aggregates"
	"mindcanvas/domain/core/valueobjects"
	pkgerrors "mindcanvas/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: "   "},
		{name: "not json", data: "{nodes: ["},
		{name: "array at top level", data: `[{"id":"1"}]`},
		{name: "missing nodes", data: `{"version":"1.0.0"}`},
		{name: "nodes is an object", data: `{"nodes":{"id":"1"}}`},
		{name: "nodes is null", data: `{"nodes":null}`},
		{name: "nodes is a string", data: `{"nodes":"[]"}`},
		{name: "node field has the wrong type", data: `{"nodes":[{"id":"1","x":"left"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode([]byte(tt.data), nil)
			assert.Nil(t, doc)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err))
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidDocument))
		})
	}
}

func TestNormalize_MissingFields(t *testing.T) {
	tests := []struct {
		name  string
		node  string
		check func(t *testing.T, r NodeRecord)
	}{
		{
			name: "missing title",
			node: `{"id":"a"}`,
			check: func(t *testing.T, r NodeRecord) {
				assert.Equal(t, "Untitled", r.Title)
			},
		},
		{
			name: "missing description",
			node: `{"id":"a","title":"T"}`,
			check: func(t *testing.T, r NodeRecord) {
				assert.Equal(t, "T", r.Title)
				assert.Equal(t, "Click to edit description", r.Description)
			},
		},
		{
			name: "empty title and description get defaults",
			node: `{"id":"a","title":"","description":""}`,
			check: func(t *testing.T, r NodeRecord) {
				assert.Equal(t, "Untitled", r.Title)
				assert.Equal(t, "Click to edit description", r.Description)
			},
		},
		{
			name: "missing connections",
			node: `{"id":"a"}`,
			check: func(t *testing.T, r NodeRecord) {
				assert.NotNil(t, r.Connections)
				assert.Empty(t, r.Connections)
			},
		},
		{
			name: "missing media",
			node: `{"id":"a"}`,
			check: func(t *testing.T, r NodeRecord) {
				assert.NotNil(t, r.Media)
				assert.Empty(t, r.Media)
			},
		},
		{
			name: "missing children and parent",
			node: `{"id":"a"}`,
			check: func(t *testing.T, r NodeRecord) {
				assert.Empty(t, r.Children)
				assert.Nil(t, r.ParentID)
			},
		},
		{
			name: "empty parent id means root",
			node: `{"id":"a","parentId":""}`,
			check: func(t *testing.T, r NodeRecord) {
				assert.Nil(t, r.ParentID)
			},
		},
		{
			name: "missing formatting",
			node: `{"id":"a"}`,
			check: func(t *testing.T, r NodeRecord) {
				assert.False(t, r.Formatting.Bold)
				assert.Equal(t, "none", r.Formatting.Highlight)
				assert.Equal(t, "default", r.Formatting.TextColor)
			},
		},
		{
			name: "partial formatting",
			node: `{"id":"a","formatting":{"italic":true}}`,
			check: func(t *testing.T, r NodeRecord) {
				assert.True(t, r.Formatting.Italic)
				assert.Equal(t, "none", r.Formatting.Highlight)
			},
		},
		{
			name: "size kept when present",
			node: `{"id":"a","width":250,"height":190}`,
			check: func(t *testing.T, r NodeRecord) {
				require.NotNil(t, r.Width)
				assert.Equal(t, 250.0, *r.Width)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode([]byte(`{"nodes":[`+tt.node+`],"version":"1.0.0"}`), nil)
			require.NoError(t, err)
			require.Len(t, doc.Nodes, 1)
			tt.check(t, doc.Nodes[0])
		})
	}
}

func TestNormalize_DropsNodesWithoutID(t *testing.T) {
	doc, err := Decode([]byte(`{"nodes":[{"title":"orphan"},{"id":""},{"id":"ok"}]}`), nil)
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, "ok", doc.Nodes[0].ID)
}

func TestMigrate_LegacyDocument(t *testing.T) {
	data := `{"nodes":[{"id":"a","media":[{"type":"image","url":"data:x","name":"pic"}]}]}`

	doc, err := Decode([]byte(data), nil)
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", doc.Version)
	require.Len(t, doc.Nodes[0].Media, 1)
	assert.Equal(t, "a-media-1", doc.Nodes[0].Media[0].ID)
}

func TestMigrator(t *testing.T) {
	m := NewMigrator()
	require.NoError(t, m.RegisterMigration(Migration{FromVersion: "0", ToVersion: "1", Up: func(*RawDocument) error { return nil }}))
	require.NoError(t, m.RegisterMigration(Migration{FromVersion: "1", ToVersion: "2", Up: func(d *RawDocument) error {
		d.Nodes = append(d.Nodes, RawNode{})
		return nil
	}}))
	assert.Error(t, m.RegisterMigration(Migration{FromVersion: "1", ToVersion: "3", Up: func(*RawDocument) error { return nil }}))
	assert.Error(t, m.RegisterMigration(Migration{FromVersion: "4", ToVersion: "4", Up: func(*RawDocument) error { return nil }}))

	doc := &RawDocument{}
	require.NoError(t, m.Migrate(doc, "2"))
	assert.Equal(t, "2", *doc.Version)
	assert.Len(t, doc.Nodes, 1)
	assert.Len(t, m.History(), 2)

	future := "9.0.0"
	doc = &RawDocument{Version: &future}
	require.NoError(t, m.Migrate(doc, "2"), "unknown versions load as is")
	assert.Equal(t, "9.0.0", *doc.Version)
}

func TestRoundTrip_ThroughAggregate(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	m := aggregates.NewMindMap(cfg, valueobjects.NewSequenceGenerator("n"))
	root := valueobjects.MustNodeID("1")
	child, err := m.CreateNode(&root, 100, 100)
	require.NoError(t, err)
	require.NoError(t, m.AddConnection(root, child.ID()))
	_, err = m.ResizeNode(child.ID(), 260, 150)
	require.NoError(t, err)

	img, _ := valueobjects.NewMedia(valueobjects.MediaImage, valueobjects.MediaInfo{ID: "m1", Name: "a.png", Source: "data:image/png;base64,AA"}, "")
	link, _ := valueobjects.NewMedia(valueobjects.MediaLink, valueobjects.MediaInfo{ID: "m2", Name: "song", Source: "https://x/a.mp3"}, "")
	require.NoError(t, m.AddMedia(child.ID(), img))
	require.NoError(t, m.AddMedia(child.ID(), link))
	chat := []valueobjects.ChatMessage{{Role: valueobjects.RoleUser, Content: "hi"}}
	require.NoError(t, m.UpdateNode(root, aggregates.NodePatch{Chat: &chat}))

	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	doc := New(m.Snapshot(), cfg, "", now)
	assert.Equal(t, "2024-05-06T07:08:09.000Z", doc.CreatedAt)
	assert.Equal(t, doc.CreatedAt, doc.UpdatedAt)

	data, err := Encode(doc)
	require.NoError(t, err)

	decoded, err := Decode(data, cfg)
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)

	states, err := decoded.States()
	require.NoError(t, err)

	restored := aggregates.NewMindMap(cfg, valueobjects.NewSequenceGenerator("x"))
	require.NoError(t, restored.LoadDocument(states))
	assert.Equal(t, m.Snapshot(), restored.Snapshot())
}

func TestEncode_WireShape(t *testing.T) {
	m := aggregates.NewMindMap(nil, valueobjects.NewSequenceGenerator("n"))
	doc := New(m.Snapshot(), nil, "2024-01-01T00:00:00.000Z", time.Now())

	data, err := EncodeIndent(doc)
	require.NoError(t, err)

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Equal(t, "1.0.0", generic["version"])
	assert.Equal(t, "2024-01-01T00:00:00.000Z", generic["createdAt"])

	nodes := generic["nodes"].([]interface{})
	require.Len(t, nodes, 1)
	node := nodes[0].(map[string]interface{})
	assert.Equal(t, "1", node["id"])
	assert.Nil(t, node["parentId"])
	assert.Contains(t, node, "parentId", "parentId is written as null")
	assert.NotContains(t, node, "width")
	assert.Equal(t, true, node["formatting"].(map[string]interface{})["bold"])
}
