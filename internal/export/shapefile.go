package export

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/summitline/trailprep/internal/model"
)

// WriteTrailheadShapefile writes resolved trailheads as a POINT shapefile
// with PLACE, START and ADDRESS attributes. Failed and skipped records carry
// no coordinates and are left out. Returns the number of points written.
func WriteTrailheadShapefile(path string, records []model.TrailRecord) (int, error) {
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return 0, eris.Wrapf(err, "export: create shapefile %s", path)
	}

	fields := []shp.Field{
		shp.StringField("PLACE", 80),
		shp.StringField("START", 120),
		shp.StringField("ADDRESS", 254),
	}
	w.SetFields(fields)

	n := 0
	for i := range records {
		r := &records[i]
		if r.Status != model.StatusResolved || !r.HasCoordinates() {
			continue
		}
		idx := w.Write(&shp.Point{X: *r.Lon, Y: *r.Lat})
		if err := w.WriteAttribute(int(idx), 0, r.PlaceName); err != nil {
			w.Close()
			return n, eris.Wrap(err, "export: write PLACE attribute")
		}
		if err := w.WriteAttribute(int(idx), 1, r.StartingPoint); err != nil {
			w.Close()
			return n, eris.Wrap(err, "export: write START attribute")
		}
		if err := w.WriteAttribute(int(idx), 2, r.ResolvedAddress); err != nil {
			w.Close()
			return n, eris.Wrap(err, "export: write ADDRESS attribute")
		}
		n++
	}

	w.Close()
	return n, nil
}
