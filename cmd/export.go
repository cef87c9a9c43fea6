package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"apartment-watcher/models"
	"apartment-watcher/storage"
)

func newExportCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every apartment seen so far to CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, _ := newLogger(cfg)

			if out == "" {
				out = filepath.Join(filepath.Dir(cfg.ApartmentsFile), "apartments.csv")
			}

			state := storage.NewJSONStateStore(cfg.ApartmentsFile, logger).Load()

			w, err := storage.NewCSVWriter(out)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			if err := exportListings(w, state.Apartments); err != nil {
				return fmt.Errorf("export: %w", err)
			}

			logger.Success("Exported %d apartments to %s", len(state.Apartments), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "CSV output path (default next to the apartments file)")
	return cmd
}

// exportListings writes listings and closes exp.
func exportListings(exp storage.ListingExporter, listings []models.PersistedListing) error {
	if err := exp.Write(listings); err != nil {
		_ = exp.Close()
		return err
	}
	return exp.Close()
}
