package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"apartment-watcher/models"
	"apartment-watcher/storage"
	"apartment-watcher/utils"
)

func newListCommand() *cobra.Command {
	var (
		checkIndex int
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every apartment seen so far",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, loc := newLogger(cfg)

			store := storage.NewJSONStateStore(cfg.ApartmentsFile, logger)
			state := store.Load()
			listings := selectListings(state.Apartments, checkIndex, limit)
			if len(listings) == 0 {
				logger.Info("No apartments recorded in %s", store.Path())
				return nil
			}

			renderListings(os.Stdout, listings, loc)
			fmt.Fprintf(os.Stdout, "Last check: #%d\n", state.LastCheckIndex)
			return nil
		},
	}

	cmd.Flags().IntVar(&checkIndex, "check", 0, "only show apartments first seen in this check")
	cmd.Flags().IntVar(&limit, "limit", 0, "show only the most recent N apartments")
	return cmd
}

// selectListings filters by check index (0 means all) and keeps the last
// limit records (0 means no limit).
func selectListings(all []models.PersistedListing, checkIndex, limit int) []models.PersistedListing {
	out := make([]models.PersistedListing, 0, len(all))
	for _, a := range all {
		if checkIndex > 0 && a.CheckIndex != checkIndex {
			continue
		}
		out = append(out, a)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

func renderListings(w io.Writer, listings []models.PersistedListing, loc *time.Location) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Title", "Price", "Location", "Area", "Seen", "Link"})

	for _, l := range listings {
		area := "-"
		if l.Area != nil {
			area = strconv.Itoa(*l.Area) + " m²"
		}
		t.AppendRow(table.Row{
			l.CheckIndex,
			l.Title,
			l.Price,
			l.Location,
			area,
			utils.FormatLocal(l.CheckTimestamp, loc),
			l.Link,
		})
	}
	t.AppendFooter(table.Row{"", "Total", len(listings)})
	t.Render()
}
