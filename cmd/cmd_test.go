package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summitline/trailprep/internal/config"
	"github.com/summitline/trailprep/internal/model"
	"github.com/summitline/trailprep/internal/normalize"
)

func setTestConfig(t *testing.T) {
	t.Helper()
	prev := cfg
	cfg = &config.Config{
		Store: config.StoreConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	}
	t.Cleanup(func() { cfg = prev })
}

func TestLoadMapping_Default(t *testing.T) {
	setTestConfig(t)
	normalizeMapping = ""

	m, err := loadMapping()
	require.NoError(t, err)
	assert.NoError(t, m.Validate())
}

func TestLoadMapping_FlagWins(t *testing.T) {
	setTestConfig(t)
	path := filepath.Join(t.TempDir(), "m.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fields:
  - field: place_name
    aliases: [route]
  - field: starting_point
    aliases: [depart]
`), 0o600))
	normalizeMapping = path
	t.Cleanup(func() { normalizeMapping = "" })

	m, err := loadMapping()
	require.NoError(t, err)
	require.Len(t, m.Fields, 2)
	assert.Equal(t, []string{"route"}, m.Fields[0].Aliases)
}

func TestLoadMapping_BadFile(t *testing.T) {
	setTestConfig(t)
	normalizeMapping = filepath.Join(t.TempDir(), "missing.yaml")
	t.Cleanup(func() { normalizeMapping = "" })

	_, err := loadMapping()
	assert.Error(t, err)
}

func TestGeocodeInput_RequiresInFlag(t *testing.T) {
	setTestConfig(t)
	geocodeIn, geocodeRetryRun = "", ""

	_, _, err := geocodeInput(context.Background(), nil)
	assert.Error(t, err)
}

func TestGeocodeInput_RetryFailedSubset(t *testing.T) {
	setTestConfig(t)
	ctx := context.Background()

	st, err := openStore(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	records := []model.TrailRecord{
		{PlaceName: "OK", StartingPoint: "gate", Status: model.StatusResolved},
		{PlaceName: "Nope", StartingPoint: "lost gate", Status: model.StatusFailed},
	}
	run := model.Run{
		ID:         uuid.New().String(),
		Country:    "ke",
		Source:     "trails.csv",
		StartedAt:  time.Now().UTC(),
		FinishedAt: time.Now().UTC(),
		Summary:    model.Summarize(records),
	}
	require.NoError(t, st.SaveRun(ctx, run, records))

	geocodeRetryRun = run.ID
	t.Cleanup(func() { geocodeRetryRun = "" })

	got, source, err := geocodeInput(ctx, st)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Nope", got[0].PlaceName)
	assert.Equal(t, model.StatusPending, got[0].Status)
	assert.Equal(t, "retry:"+run.ID, source)
}

func TestGeocodeInput_ReadsCSV(t *testing.T) {
	setTestConfig(t)
	path := filepath.Join(t.TempDir(), "trails.csv")
	require.NoError(t, os.WriteFile(path,
		[]byte("place_name,starting_point\nMt Kenya,Naro Moru Gate\n"), 0o600))

	geocodeIn = path
	t.Cleanup(func() { geocodeIn = "" })

	got, source, err := geocodeInput(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, path, source)
	assert.Equal(t, "Naro Moru Gate", got[0].StartingPoint)
}

// Sanity check that the default mapping accepts a typical scraped header set.
func TestDefaultMappingCoversScrapedHeaders(t *testing.T) {
	m := normalize.DefaultMapping()
	records, dropped := normalize.Normalize([]normalize.RawRow{
		{"Trail Name": "Elephant Hill", "Starting Point": "Njabini Gate", "County": "Nyandarua"},
	}, m)
	require.Len(t, records, 1)
	assert.Equal(t, 0, dropped)
	assert.Equal(t, "Njabini Gate", records[0].StartingPoint)
}
