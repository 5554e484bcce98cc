// Package table reads and writes the tabular form of trail records. Output
// keeps the input row order, which the manual gap-fill pass relies on.
package table

import (
	"encoding/csv"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/summitline/trailprep/internal/model"
	"github.com/summitline/trailprep/internal/normalize"
)

// Canonical output columns, always first and in this order.
var canonicalColumns = []string{
	"place_name", "starting_point", "area",
	"lat", "lon", "resolved_address", "geocode_status",
}

// ReadRaw reads any CSV into header-keyed rows, for files that have not been
// normalized yet.
func ReadRaw(path string) ([]normalize.RawRow, error) {
	rows, header, err := readAll(path)
	if err != nil {
		return nil, err
	}

	raw := make([]normalize.RawRow, 0, len(rows))
	for _, row := range rows {
		rr := normalize.RawRow{}
		for i, col := range header {
			if i < len(row) {
				rr[col] = row[i]
			}
		}
		raw = append(raw, rr)
	}
	return raw, nil
}

// ReadRecords reads a normalized (optionally already geocoded) trail CSV.
// Columns outside the canonical set are preserved in Extra.
func ReadRecords(path string) ([]model.TrailRecord, error) {
	rows, header, err := readAll(path)
	if err != nil {
		return nil, err
	}

	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[strings.TrimSpace(col)] = i
	}
	if _, ok := colIdx["place_name"]; !ok {
		return nil, eris.Errorf("table: %s is missing required column place_name", path)
	}

	canonical := map[string]bool{}
	for _, c := range canonicalColumns {
		canonical[c] = true
	}

	records := make([]model.TrailRecord, 0, len(rows))
	for n, row := range rows {
		get := func(col string) string {
			idx, ok := colIdx[col]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		rec := model.TrailRecord{
			PlaceName:       get("place_name"),
			StartingPoint:   get("starting_point"),
			Area:            get("area"),
			ResolvedAddress: get("resolved_address"),
			Status:          model.StatusPending,
		}
		if s := get("geocode_status"); s != "" {
			rec.Status = model.GeocodeStatus(s)
		}

		latStr, lonStr := get("lat"), get("lon")
		if latStr != "" && lonStr != "" {
			lat, latErr := strconv.ParseFloat(latStr, 64)
			lon, lonErr := strconv.ParseFloat(lonStr, 64)
			if latErr != nil || lonErr != nil {
				return nil, eris.Errorf("table: row %d has malformed coordinates %q,%q", n+2, latStr, lonStr)
			}
			rec.Lat = &lat
			rec.Lon = &lon
		} else if latStr != "" || lonStr != "" {
			return nil, eris.Errorf("table: row %d has a partial coordinate pair", n+2)
		}

		for col, idx := range colIdx {
			if canonical[col] || idx >= len(row) {
				continue
			}
			if v := strings.TrimSpace(row[idx]); v != "" {
				if rec.Extra == nil {
					rec.Extra = map[string]string{}
				}
				rec.Extra[col] = v
			}
		}

		records = append(records, rec)
	}
	return records, nil
}

// WriteRecords writes trail records as CSV: canonical columns first, then any
// extra columns sorted by name. Unset coordinates become empty cells.
func WriteRecords(path string, records []model.TrailRecord) error {
	extraCols := collectExtraColumns(records)
	header := append(append([]string{}, canonicalColumns...), extraCols...)

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := []string{
			r.PlaceName,
			r.StartingPoint,
			r.Area,
			formatCoord(r.Lat),
			formatCoord(r.Lon),
			r.ResolvedAddress,
			string(r.Status),
		}
		for _, col := range extraCols {
			row = append(row, r.Extra[col])
		}
		rows = append(rows, row)
	}

	return writeAll(path, header, rows)
}

// WriteRaw writes header-keyed rows with a fixed column order, for scraper
// output that has not been normalized yet.
func WriteRaw(path string, header []string, rows []normalize.RawRow) error {
	out := make([][]string, 0, len(rows))
	for _, rr := range rows {
		row := make([]string, len(header))
		for i, col := range header {
			row[i] = rr[col]
		}
		out = append(out, row)
	}
	return writeAll(path, header, out)
}

func readAll(path string) (rows [][]string, header []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "table: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, eris.Wrapf(err, "table: read %s", path)
	}
	if len(all) == 0 {
		return nil, nil, eris.Errorf("table: %s is empty", path)
	}
	return all[1:], all[0], nil
}

func writeAll(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "table: create %s", path)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close() //nolint:errcheck,gosec
		return eris.Wrap(err, "table: write header")
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			f.Close() //nolint:errcheck,gosec
			return eris.Wrap(err, "table: write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close() //nolint:errcheck,gosec
		return eris.Wrap(err, "table: flush")
	}
	return eris.Wrapf(f.Close(), "table: close %s", path)
}

func collectExtraColumns(records []model.TrailRecord) []string {
	seen := map[string]bool{}
	for _, r := range records {
		for col := range r.Extra {
			seen[col] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for col := range seen {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}
