package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/summitline/trailprep/internal/export"
	"github.com/summitline/trailprep/internal/table"
)

var (
	exportIn   string
	exportXLSX string
	exportSHP  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write downstream artifacts from a geocoded CSV",
	Long: `Writes the gap-fill workbook (all records plus a "Needs Review" sheet of
failed/skipped rows) and, optionally, a POINT shapefile of resolved
trailheads.

Example:
  trailprep export --in geocoded.csv --xlsx gaps.xlsx --shp trailheads.shp`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if exportXLSX == "" && exportSHP == "" {
			return eris.New("export: nothing to do, pass --xlsx and/or --shp")
		}

		records, err := table.ReadRecords(exportIn)
		if err != nil {
			return eris.Wrap(err, "export: read input")
		}

		if exportXLSX != "" {
			if err := export.WriteGapFillWorkbook(exportXLSX, records); err != nil {
				return err
			}
			zap.L().Info("workbook written", zap.String("path", exportXLSX))
		}

		if exportSHP != "" {
			n, err := export.WriteTrailheadShapefile(exportSHP, records)
			if err != nil {
				return err
			}
			zap.L().Info("shapefile written", zap.String("path", exportSHP), zap.Int("points", n))
		}

		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportIn, "in", "", "geocoded trail CSV (required)")
	exportCmd.Flags().StringVar(&exportXLSX, "xlsx", "", "gap-fill workbook path")
	exportCmd.Flags().StringVar(&exportSHP, "shp", "", "trailhead shapefile path")
	_ = exportCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(exportCmd)
}
