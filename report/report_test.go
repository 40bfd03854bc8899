package report

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/locness/gpslog/data"
	"github.com/locness/gpslog/store"
)

func TestLatest(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "gps_data.db")
	s, err := store.Open(dbFile, "gps")
	if err != nil {
		t.Fatal("Error opening store: ", err)
	}
	defer s.Close()

	fix := data.Fix{
		CapturedAt: time.Date(2024, 5, 17, 10, 30, 45, 0, time.UTC),
		NMEATime:   "103045.00",
		Latitude:   37.7749,
		Longitude:  -122.4194,
	}
	if err := s.Record(fix); err != nil {
		t.Fatal("Error recording fix: ", err)
	}

	var buf bytes.Buffer
	if err := Latest(&buf, s, 10); err != nil {
		t.Fatal("Error rendering report: ", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Latest 1 of 1 GPS records:",
		"PC Time (UTC)",
		"2024-05-17 10:30:45",
		"103045.00",
		"37.774900",
		"-122.419400",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("Report missing %q:\n%v", want, out)
		}
	}
}

func TestLatestEmpty(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "gps_data.db")
	s, err := store.Open(dbFile, "gps")
	if err != nil {
		t.Fatal("Error opening store: ", err)
	}
	defer s.Close()

	var buf bytes.Buffer
	if err := Latest(&buf, s, 10); err != nil {
		t.Fatal("Error rendering report: ", err)
	}
	if !strings.Contains(buf.String(), "No GPS data found") {
		t.Fatal("Expected empty-database message, got:\n", buf.String())
	}
}
