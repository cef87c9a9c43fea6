package services

import (
	"fmt"
	"io"
	"strings"
	"time"

	"apartment-watcher/models"
	"apartment-watcher/utils"
)

// PrintReport writes a human-readable summary of a finished cycle to w.
func PrintReport(w io.Writer, r *models.CycleReport, loc *time.Location) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  🏠 CHECK #%d\033[0m\n", r.CheckIndex)
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Run ID                : %s\n", r.RunID)
	fmt.Fprintf(w, "  Listings on page      : \033[1m%d\033[0m\n", r.TotalFound)
	fmt.Fprintf(w, "  In filtered locations : \033[1m%d\033[0m\n", r.TotalFiltered)
	fmt.Fprintf(w, "  New                   : \033[1;32m%d\033[0m\n", r.NovelCount())
	fmt.Fprintf(w, "  Took                  : %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "  Next check            : %s\n", utils.FormatLocal(r.NextCheck, loc))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  New Listings\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.NovelCount() == 0 {
		fmt.Fprintf(w, "  No new listings\n")
	} else {
		for i, l := range r.Novel {
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-40s \033[1;32m%s\033[0m\n", i+1, truncate(l.Title, 38), l.Price)
			fmt.Fprintf(w, "     %s\n", truncate(l.Location, 48))
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

// truncate shortens s to at most max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
