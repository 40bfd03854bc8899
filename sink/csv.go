package sink

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/locness/gpslog/data"
)

// CSV appends fixes to a comma-separated text file, one row per fix.
// The header row is written only when the file starts out empty.
type CSV struct {
	file *os.File
	w    *csv.Writer
}

// NewCSV opens or creates the file in append mode and writes the
// header if the file has no content yet.
func NewCSV(path string) (*CSV, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open csv %v: %w", path, err)
	}
	c := &CSV{file: f, w: csv.NewWriter(f)}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat csv %v: %w", path, err)
	}
	if st.Size() == 0 {
		if err := c.write(data.CSVHeader); err != nil {
			f.Close()
			return nil, fmt.Errorf("write csv header: %w", err)
		}
	}
	return c, nil
}

func (c *CSV) Name() string { return "csv" }

// Record appends one row and flushes it to the file. No retry; the
// session counts the failure and carries on.
func (c *CSV) Record(fix data.Fix) error {
	return c.write(fix.CSVRecord())
}

func (c *CSV) write(record []string) error {
	if err := c.w.Write(record); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

// Close flushes pending data and closes the file.
func (c *CSV) Close() error {
	c.w.Flush()
	return c.file.Close()
}
