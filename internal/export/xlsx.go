// Package export writes the downstream artifacts of a geocoded batch: the
// spreadsheet for the manual gap-fill pass and a GIS shapefile of resolved
// trailheads.
package export

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/summitline/trailprep/internal/model"
)

// WriteGapFillWorkbook writes an XLSX workbook with a "Trails" sheet holding
// every record and a "Needs Review" sheet holding only failed and skipped
// records, with empty coordinate cells left for manual entry.
func WriteGapFillWorkbook(path string, records []model.TrailRecord) error {
	f := xlsx.NewFile()

	trails, err := f.AddSheet("Trails")
	if err != nil {
		return eris.Wrap(err, "export: add trails sheet")
	}
	addHeader(trails)
	for i := range records {
		addRecordRow(trails, &records[i])
	}

	review, err := f.AddSheet("Needs Review")
	if err != nil {
		return eris.Wrap(err, "export: add review sheet")
	}
	addHeader(review)
	for i := range records {
		r := &records[i]
		if r.Status == model.StatusFailed || r.Status == model.StatusSkipped {
			addRecordRow(review, r)
		}
	}

	return eris.Wrapf(f.Save(path), "export: save workbook %s", path)
}

func addHeader(sheet *xlsx.Sheet) {
	row := sheet.AddRow()
	for _, h := range []string{"Place", "Starting Point", "Area", "Lat", "Lon", "Resolved Address", "Status"} {
		row.AddCell().SetString(h)
	}
}

func addRecordRow(sheet *xlsx.Sheet, r *model.TrailRecord) {
	row := sheet.AddRow()
	row.AddCell().SetString(r.PlaceName)
	row.AddCell().SetString(r.StartingPoint)
	row.AddCell().SetString(r.Area)

	latCell, lonCell := row.AddCell(), row.AddCell()
	if r.HasCoordinates() {
		latCell.SetString(strconv.FormatFloat(*r.Lat, 'f', 6, 64))
		lonCell.SetString(strconv.FormatFloat(*r.Lon, 'f', 6, 64))
	}

	row.AddCell().SetString(r.ResolvedAddress)
	row.AddCell().SetString(string(r.Status))
}
