// Package report renders read-only views over the fix store. It only
// consumes the store's query interface; the table schema is a stable
// contract between the logger and this reader.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/locness/gpslog/store"
)

// Latest writes the most recent limit fixes as an aligned table,
// newest first.
func Latest(w io.Writer, s *store.Store, limit int) error {
	rows, err := s.Latest(limit)
	if err != nil {
		return fmt.Errorf("query fixes: %w", err)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "No GPS data found in database.")
		return nil
	}

	total, err := s.Count()
	if err != nil {
		return fmt.Errorf("count fixes: %w", err)
	}

	rule := strings.Repeat("-", 80)
	fmt.Fprintf(w, "Latest %v of %v GPS records:\n", len(rows), total)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-20s %-12s %-12s %-12s %-20s\n",
		"PC Time (UTC)", "NMEA Time", "Latitude", "Longitude", "Created")
	fmt.Fprintln(w, rule)
	for _, r := range rows {
		pc := time.Unix(r.DatetimeUTC, 0).UTC().Format("2006-01-02 15:04:05")
		fmt.Fprintf(w, "%-20s %-12s %-12.6f %-12.6f %-20s\n",
			pc, r.NMEATime, r.Latitude, r.Longitude, r.CreatedAt)
	}
	return nil
}
