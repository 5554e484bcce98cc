package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/summitline/trailprep/internal/normalize"
	"github.com/summitline/trailprep/internal/table"
)

var (
	normalizeIn      string
	normalizeOut     string
	normalizeMapping string
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Coalesce raw listing columns into the canonical trail schema",
	Long: `Reads a raw listing CSV and maps its inconsistent columns onto the canonical
schema (place_name, starting_point, area) using a declarative field-mapping
table. Unmapped columns pass through unchanged.

Example:
  trailprep normalize --in raw.csv --out trails.csv --mapping mapping.yaml`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		mapping, err := loadMapping()
		if err != nil {
			return err
		}

		rows, err := table.ReadRaw(normalizeIn)
		if err != nil {
			return eris.Wrap(err, "normalize: read input")
		}

		records, dropped := normalize.Normalize(rows, mapping)
		if len(records) == 0 {
			return eris.Errorf("normalize: no usable rows in %s", normalizeIn)
		}

		if err := table.WriteRecords(normalizeOut, records); err != nil {
			return eris.Wrap(err, "normalize: write output")
		}

		zap.L().Info("normalize complete",
			zap.Int("records", len(records)),
			zap.Int("dropped", dropped),
			zap.String("out", normalizeOut),
		)
		return nil
	},
}

// loadMapping resolves the column mapping: the --mapping flag wins, then the
// configured mapping.path, then the built-in default.
func loadMapping() (normalize.Mapping, error) {
	path := normalizeMapping
	if path == "" {
		path = cfg.Mapping.Path
	}
	if path == "" {
		return normalize.DefaultMapping(), nil
	}
	m, err := normalize.LoadMapping(path)
	if err != nil {
		return normalize.Mapping{}, eris.Wrap(err, "normalize: load mapping")
	}
	return m, nil
}

func init() {
	normalizeCmd.Flags().StringVar(&normalizeIn, "in", "", "raw listing CSV (required)")
	normalizeCmd.Flags().StringVar(&normalizeOut, "out", "trails.csv", "output CSV path")
	normalizeCmd.Flags().StringVar(&normalizeMapping, "mapping", "", "column mapping YAML (defaults to built-in mapping)")
	_ = normalizeCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(normalizeCmd)
}
