package canvas

import (
	"testing"

	"mindcanvas/domain/config"
	"mindcanvas/domain/core/entities"
	"mindcanvas/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewport_ZoomSteps(t *testing.T) {
	v := NewViewport(nil)
	assert.Equal(t, 1.0, v.Zoom())

	assert.Equal(t, 1.1, v.ZoomIn())
	assert.Equal(t, 1.2, v.ZoomIn())
	assert.Equal(t, 1.1, v.ZoomOut())
}

func TestViewport_ZoomClamps(t *testing.T) {
	tests := []struct {
		name  string
		steps int
		in    bool
		want  float64
	}{
		{name: "zoom in stops at max", steps: 50, in: true, want: 3.0},
		{name: "zoom out stops at min", steps: 50, in: false, want: 0.3},
		{name: "one step out", steps: 1, in: false, want: 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewViewport(nil)
			for i := 0; i < tt.steps; i++ {
				if tt.in {
					v.ZoomIn()
				} else {
					v.ZoomOut()
				}
				assert.GreaterOrEqual(t, v.Zoom(), 0.3)
				assert.LessOrEqual(t, v.Zoom(), 3.0)
			}
			assert.Equal(t, tt.want, v.Zoom())
		})
	}
}

func TestViewport_SetZoomRounds(t *testing.T) {
	v := NewViewport(nil)
	assert.Equal(t, 1.3, v.SetZoom(1.26))
	assert.Equal(t, 0.3, v.SetZoom(-4))
	assert.Equal(t, 3.0, v.SetZoom(10))
}

func TestViewport_TransformRoundTrip(t *testing.T) {
	origin := valueobjects.NewPoint(12, 48)
	points := []valueobjects.Point{
		valueobjects.NewPoint(0, 0),
		valueobjects.NewPoint(400, 200),
		valueobjects.NewPoint(-250.5, 1333.25),
	}

	for _, zoom := range []float64{0.3, 0.7, 1, 1.5, 3} {
		v := NewViewport(nil)
		v.SetZoom(zoom)
		v.SetOffset(valueobjects.NewPoint(-37, 91))
		for _, p := range points {
			back := v.ScreenToCanvas(v.CanvasToScreen(p, origin), origin)
			assert.True(t, back.ApproxEqual(p, 1e-9), "zoom %v point %v got %v", zoom, p, back)
		}
	}
}

func TestViewport_ScreenToCanvas(t *testing.T) {
	v := NewViewport(nil)
	v.SetZoom(2)
	v.SetOffset(valueobjects.NewPoint(100, 50))

	got := v.ScreenToCanvas(valueobjects.NewPoint(310, 160), valueobjects.NewPoint(10, 10))
	assert.Equal(t, valueobjects.NewPoint(100, 50), got)
}

func TestViewport_Wheel(t *testing.T) {
	v := NewViewport(nil)

	assert.False(t, v.Wheel(-100, false))
	assert.Equal(t, 1.0, v.Zoom())

	assert.True(t, v.Wheel(-100, true))
	assert.Equal(t, 1.1, v.Zoom())

	assert.True(t, v.Wheel(100, true))
	assert.True(t, v.Wheel(100, true))
	assert.Equal(t, 0.9, v.Zoom())

	assert.True(t, v.Wheel(0, true))
	assert.Equal(t, 0.9, v.Zoom())
}

func TestViewport_CenterOnContent(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	nodes := []*entities.Node{
		mustNode(t, "a", 0, 0),
		mustNode(t, "b", 200, 100),
	}

	v := NewViewport(cfg)
	v.SetZoom(2)
	v.CenterOnContent(nodes, valueobjects.NewSize(800, 600))
	// center (100, 50) scaled by 2 lands on (400, 300)
	assert.Equal(t, valueobjects.NewPoint(200, 200), v.Offset())

	v.SetOffset(valueobjects.NewPoint(5, 5))
	v.CenterOnContent(nil, valueobjects.NewSize(800, 600))
	assert.Equal(t, valueobjects.NewPoint(5, 5), v.Offset())
}

func TestViewport_PanAndReset(t *testing.T) {
	v := NewViewport(nil)
	v.SetOffset(valueobjects.NewPoint(10, 10))

	v.PanTo(valueobjects.NewPoint(500, 500))
	assert.Equal(t, valueobjects.NewPoint(10, 10), v.Offset(), "no pan without StartPan")

	v.StartPan(valueobjects.NewPoint(100, 100))
	assert.True(t, v.IsPanning())
	v.PanTo(valueobjects.NewPoint(130, 80))
	assert.Equal(t, valueobjects.NewPoint(40, -10), v.Offset())
	v.EndPan()
	assert.False(t, v.IsPanning())

	v.SetZoom(2)
	v.Reset()
	assert.Equal(t, ViewportState{Zoom: 1}, v.State())
}

func mustNode(t *testing.T, id string, x, y float64) *entities.Node {
	t.Helper()
	n, err := entities.NewNode(valueobjects.MustNodeID(id), nil, valueobjects.NewPoint(x, y), id, "")
	require.NoError(t, err)
	return n
}
