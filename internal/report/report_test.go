package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summitline/trailprep/internal/model"
)

func resolved(name string, lat, lon float64) model.TrailRecord {
	r := model.TrailRecord{PlaceName: name}
	r.SetCoordinates(lat, lon, name+" address")
	return r
}

func TestBuild(t *testing.T) {
	records := []model.TrailRecord{
		resolved("A", -0.15, 37.31),
		resolved("B", -1.10, 36.65),
		{PlaceName: "C", Status: model.StatusFailed},
		{PlaceName: "D", Status: model.StatusSkipped},
	}

	r := Build(records)
	assert.Equal(t, 2, r.Summary.Resolved)
	assert.Equal(t, 1, r.Summary.Failed)
	assert.Equal(t, 1, r.Summary.Skipped)

	require.NotNil(t, r.Bounds)
	assert.InDelta(t, -1.10, r.Bounds.Min(1), 1e-9)
	assert.InDelta(t, -0.15, r.Bounds.Max(1), 1e-9)
	assert.InDelta(t, 36.65, r.Bounds.Min(0), 1e-9)
	assert.InDelta(t, 37.31, r.Bounds.Max(0), 1e-9)

	require.NotNil(t, r.Centroid)
	assert.InDelta(t, -0.625, r.Centroid.Y(), 1e-9)
	assert.InDelta(t, 36.98, r.Centroid.X(), 1e-9)
}

func TestBuild_NothingResolved(t *testing.T) {
	r := Build([]model.TrailRecord{
		{PlaceName: "A", Status: model.StatusFailed},
	})
	assert.Nil(t, r.Bounds)
	assert.Nil(t, r.Centroid)
}

func TestRender(t *testing.T) {
	records := []model.TrailRecord{
		resolved("Mt Kenya", -0.15, 37.31),
		{PlaceName: "Lost Gate", Status: model.StatusFailed},
		{PlaceName: "Unknown", Status: model.StatusSkipped},
	}

	out := Build(records).Render()
	assert.Contains(t, out, "geocoded 1 of 3 records (1 failed, 1 skipped)")
	assert.Contains(t, out, "needs manual follow-up")
	assert.Contains(t, out, "- Lost Gate")
	assert.Contains(t, out, "skipped (no starting point)")
	assert.Contains(t, out, "- Unknown")
}
