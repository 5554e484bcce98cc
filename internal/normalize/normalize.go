package normalize

import (
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/summitline/trailprep/internal/model"
)

// RawRow is one scraped or imported listing row, keyed by source column name.
type RawRow map[string]string

// Normalize maps raw listing rows onto the canonical trail schema. Rows with
// no usable place name are dropped with a warning and counted in the second
// return value; nothing is dropped silently.
func Normalize(rows []RawRow, m Mapping) ([]model.TrailRecord, int) {
	log := zap.L().With(zap.String("component", "normalizer"))
	idx := m.aliasIndex()

	records := make([]model.TrailRecord, 0, len(rows))
	dropped := 0

	for i, row := range rows {
		extra := map[string]string{}
		for col, val := range row {
			if _, mapped := idx[NormalizeHeader(col)]; mapped {
				continue
			}
			if v := CleanText(val); v != "" {
				extra[col] = v
			}
		}

		// Coalesce aliases in declared order so the result is deterministic
		// regardless of map iteration.
		canonical := map[string]string{}
		for _, fm := range m.Fields {
			canonical[fm.Field] = firstNonEmpty(fm, row)
		}

		if canonical[FieldPlaceName] == "" {
			dropped++
			log.Warn("dropping row without a place name", zap.Int("row", i+1))
			continue
		}

		rec := model.TrailRecord{
			PlaceName:     canonical[FieldPlaceName],
			StartingPoint: canonical[FieldStartingPoint],
			Area:          canonical[FieldArea],
			Status:        model.StatusPending,
		}
		if len(extra) > 0 {
			rec.Extra = extra
		}
		records = append(records, rec)
	}

	log.Info("normalized listing rows",
		zap.Int("rows", len(rows)),
		zap.Int("records", len(records)),
		zap.Int("dropped", dropped),
	)
	return records, dropped
}

// firstNonEmpty walks a field's aliases in order and returns the first
// non-empty cleaned cell.
func firstNonEmpty(fm FieldMap, row RawRow) string {
	normalized := make(map[string]string, len(row))
	for col, val := range row {
		key := NormalizeHeader(col)
		if _, exists := normalized[key]; !exists || normalized[key] == "" {
			normalized[key] = val
		}
	}
	for _, alias := range fm.Aliases {
		if v := CleanText(normalized[NormalizeHeader(alias)]); v != "" {
			return v
		}
	}
	return ""
}

// CleanText prepares a scraped cell for use: Unicode NFC form, control
// characters stripped, runs of whitespace collapsed to single spaces.
func CleanText(s string) string {
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
