// Package normalize coalesces the inconsistent columns of a scraped trail
// listing into the canonical record schema.
package normalize

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Canonical field names a mapping may target.
const (
	FieldPlaceName     = "place_name"
	FieldStartingPoint = "starting_point"
	FieldArea          = "area"
)

// FieldMap binds one canonical field to the source-column aliases that may
// carry its value. Aliases are tried in order; the first non-empty cell wins.
type FieldMap struct {
	Field   string   `yaml:"field"`
	Aliases []string `yaml:"aliases"`
}

// Mapping is the declarative old-column -> canonical-field table that drives
// normalization. Source columns not claimed by any alias pass through
// unchanged as extra columns.
type Mapping struct {
	Fields []FieldMap `yaml:"fields"`
}

// DefaultMapping covers the column spellings seen across trail-listing
// exports.
func DefaultMapping() Mapping {
	return Mapping{Fields: []FieldMap{
		{Field: FieldPlaceName, Aliases: []string{
			"place_name", "name", "trail", "trail_name", "route", "peak", "hike",
		}},
		{Field: FieldStartingPoint, Aliases: []string{
			"starting_point", "start_point", "starting point", "trailhead",
			"start", "start_location", "starting_location",
		}},
		{Field: FieldArea, Aliases: []string{
			"area", "county", "region", "park",
		}},
	}}
}

// LoadMapping reads a mapping override from a YAML file.
func LoadMapping(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Mapping{}, eris.Wrapf(err, "normalize: read mapping %s", path)
	}

	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Mapping{}, eris.Wrapf(err, "normalize: parse mapping %s", path)
	}
	if err := m.Validate(); err != nil {
		return Mapping{}, err
	}
	return m, nil
}

// Validate checks that the mapping targets only known canonical fields and
// covers the two required ones.
func (m Mapping) Validate() error {
	known := map[string]bool{
		FieldPlaceName:     true,
		FieldStartingPoint: true,
		FieldArea:          true,
	}

	seen := map[string]bool{}
	for _, fm := range m.Fields {
		if !known[fm.Field] {
			return eris.Errorf("normalize: unknown canonical field %q", fm.Field)
		}
		if seen[fm.Field] {
			return eris.Errorf("normalize: duplicate mapping for field %q", fm.Field)
		}
		if len(fm.Aliases) == 0 {
			return eris.Errorf("normalize: field %q has no aliases", fm.Field)
		}
		seen[fm.Field] = true
	}

	for _, required := range []string{FieldPlaceName, FieldStartingPoint} {
		if !seen[required] {
			return eris.Errorf("normalize: mapping must cover %q", required)
		}
	}
	return nil
}

// aliasIndex returns alias -> canonical field with aliases in normalized
// header form.
func (m Mapping) aliasIndex() map[string]string {
	idx := make(map[string]string)
	for _, fm := range m.Fields {
		for _, a := range fm.Aliases {
			idx[NormalizeHeader(a)] = fm.Field
		}
	}
	return idx
}

// NormalizeHeader canonicalizes a source column name for alias matching:
// lower-cased, trimmed, inner whitespace collapsed to underscores.
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.Fields(h), "_")
}
