package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summitline/trailprep/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "trailprep.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRun(records []model.TrailRecord) model.Run {
	now := time.Now().UTC().Truncate(time.Second)
	return model.Run{
		ID:         uuid.New().String(),
		Country:    "ke",
		Source:     "trails.csv",
		StartedAt:  now.Add(-time.Minute),
		FinishedAt: now,
		Summary:    model.Summarize(records),
	}
}

func sampleRecords() []model.TrailRecord {
	resolved := model.TrailRecord{
		PlaceName:     "Mt Kenya",
		StartingPoint: "Naro Moru Gate",
		Area:          "Nyeri",
		Query:         "Naro Moru Gate",
	}
	resolved.SetCoordinates(-0.15, 37.3167, "Naro Moru Gate, Kenya")

	return []model.TrailRecord{
		resolved,
		{PlaceName: "Lost Gate", StartingPoint: "somewhere vague", Query: "somewhere vague", Status: model.StatusFailed},
		{PlaceName: "Unknown", Status: model.StatusSkipped},
		{PlaceName: "Second Failure", StartingPoint: "old quarry", Query: "old quarry", Status: model.StatusFailed},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	records := sampleRecords()
	run := sampleRun(records)
	require.NoError(t, s.SaveRun(ctx, run, records))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "ke", got.Country)
	assert.Equal(t, "trails.csv", got.Source)
	assert.Equal(t, 4, got.Summary.Total)
	assert.Equal(t, 1, got.Summary.Resolved)
	assert.Equal(t, 2, got.Summary.Failed)
	assert.Equal(t, 1, got.Summary.Skipped)
}

func TestGetRun_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetRun(context.Background(), "no-such-run")
	assert.Error(t, err)
}

func TestRunRecords_OrderPreserved(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	records := sampleRecords()
	run := sampleRun(records)
	require.NoError(t, s.SaveRun(ctx, run, records))

	got, err := s.RunRecords(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "Mt Kenya", got[0].PlaceName)
	assert.Equal(t, "Lost Gate", got[1].PlaceName)
	assert.Equal(t, "Unknown", got[2].PlaceName)
	assert.Equal(t, "Second Failure", got[3].PlaceName)

	require.True(t, got[0].HasCoordinates())
	assert.InDelta(t, -0.15, *got[0].Lat, 1e-9)
	assert.Equal(t, "Naro Moru Gate, Kenya", got[0].ResolvedAddress)
	assert.False(t, got[1].HasCoordinates())
}

func TestFailedRecords_ResetForRetry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	records := sampleRecords()
	run := sampleRun(records)
	require.NoError(t, s.SaveRun(ctx, run, records))

	failed, err := s.FailedRecords(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, failed, 2)

	assert.Equal(t, "Lost Gate", failed[0].PlaceName)
	assert.Equal(t, "Second Failure", failed[1].PlaceName)
	for _, r := range failed {
		assert.Equal(t, model.StatusPending, r.Status)
		assert.False(t, r.HasCoordinates())
		assert.Empty(t, r.Query)
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := sampleRun(nil)
	older.StartedAt = time.Now().UTC().Add(-2 * time.Hour)
	newer := sampleRun(nil)

	require.NoError(t, s.SaveRun(ctx, older, nil))
	require.NoError(t, s.SaveRun(ctx, newer, nil))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID)
	assert.Equal(t, older.ID, runs[1].ID)
}

func TestListRuns_Limit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.SaveRun(ctx, sampleRun(nil), nil))
	}

	runs, err := s.ListRuns(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}
