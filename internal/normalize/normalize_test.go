package normalize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summitline/trailprep/internal/model"
)

func TestNormalize_AliasCoalescing(t *testing.T) {
	rows := []RawRow{
		{"Trail Name": "Elephant Hill", "Trailhead": "Njabini Gate", "County": "Nyandarua"},
		{"name": "Table Mountain", "start point": "Kimende"},
		// Both aliases present: the earlier-ranked alias wins.
		{"trail": "Sleeping Warrior", "starting_point": "Soysambu Gate", "trailhead": "Wrong Gate"},
	}

	records, dropped := Normalize(rows, DefaultMapping())
	require.Len(t, records, 3)
	assert.Equal(t, 0, dropped)

	assert.Equal(t, "Elephant Hill", records[0].PlaceName)
	assert.Equal(t, "Njabini Gate", records[0].StartingPoint)
	assert.Equal(t, "Nyandarua", records[0].Area)

	assert.Equal(t, "Table Mountain", records[1].PlaceName)
	assert.Equal(t, "Kimende", records[1].StartingPoint)

	assert.Equal(t, "Soysambu Gate", records[2].StartingPoint,
		"starting_point ranks before trailhead in the mapping")
}

func TestNormalize_PassthroughColumns(t *testing.T) {
	rows := []RawRow{
		{"name": "Ngong Hills", "trailhead": "Ngong Gate", "Difficulty": "moderate", "Distance (km)": "11"},
	}

	records, _ := Normalize(rows, DefaultMapping())
	require.Len(t, records, 1)
	assert.Equal(t, map[string]string{
		"Difficulty":    "moderate",
		"Distance (km)": "11",
	}, records[0].Extra)
}

func TestNormalize_DropsRowsWithoutPlaceName(t *testing.T) {
	rows := []RawRow{
		{"name": "", "trailhead": "Somewhere"},
		{"name": "Kept", "trailhead": "Gate"},
		{"comment": "stray footer row"},
	}

	records, dropped := Normalize(rows, DefaultMapping())
	require.Len(t, records, 1)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, "Kept", records[0].PlaceName)
	assert.Equal(t, model.StatusPending, records[0].Status)
}

func TestNormalize_EmptyStartingPointKept(t *testing.T) {
	// A blank starting point is the resolver's business (it skips it), not
	// the normalizer's.
	rows := []RawRow{{"name": "Mystery Hill"}}

	records, dropped := Normalize(rows, DefaultMapping())
	require.Len(t, records, 1)
	assert.Equal(t, 0, dropped)
	assert.Empty(t, records[0].StartingPoint)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Naro   Moru\tGate ", "Naro Moru Gate"},
		{"Nairobi Area", "Nairobi Area"},
		{"line1\nline2", "line1 line2"},
		{"", ""},
		{"   ", ""},
		{"café", "café"}, // combining accent folded to NFC
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanText(tt.in), "input %q", tt.in)
	}
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "starting_point", NormalizeHeader(" Starting  Point "))
	assert.Equal(t, "trail_name", NormalizeHeader("Trail Name"))
	assert.Equal(t, "name", NormalizeHeader("NAME"))
}

func TestLoadMapping(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fields:
  - field: place_name
    aliases: [route, name]
  - field: starting_point
    aliases: [depart, trailhead]
`), 0o600))

	m, err := LoadMapping(path)
	require.NoError(t, err)
	require.Len(t, m.Fields, 2)

	records, _ := Normalize([]RawRow{{"route": "Longonot", "depart": "Main Gate"}}, m)
	require.Len(t, records, 1)
	assert.Equal(t, "Longonot", records[0].PlaceName)
	assert.Equal(t, "Main Gate", records[0].StartingPoint)
}

func TestLoadMapping_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "fields:\n  - field: elevation\n    aliases: [elev]\n"},
		{"missing starting_point", "fields:\n  - field: place_name\n    aliases: [name]\n"},
		{"no aliases", "fields:\n  - field: place_name\n    aliases: []\n  - field: starting_point\n    aliases: [start]\n"},
		{"duplicate field", "fields:\n  - field: place_name\n    aliases: [a]\n  - field: place_name\n    aliases: [b]\n  - field: starting_point\n    aliases: [s]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o600))
			_, err := LoadMapping(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMapping_MissingFile(t *testing.T) {
	_, err := LoadMapping(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
