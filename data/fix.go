package data

import (
	"strconv"
	"time"
)

// Fix is a single decoded position report extracted from one GGA
// sentence. It is only constructed once latitude and longitude have
// decoded successfully; the NMEA time field is optional metadata.
type Fix struct {
	CapturedAt time.Time // wall-clock time at reception, not GPS time
	NMEATime   string    // time-of-day field as transmitted, may be empty
	Latitude   float64   // decimal degrees, south negative
	Longitude  float64   // decimal degrees, west negative
}

// CSVHeader is the column header written once per CSV file lifetime.
var CSVHeader = []string{"pc_time", "nmea_time", "latitude", "longitude"}

// CSVRecord formats the fix as one CSV row. pc_time is ISO-8601 with
// microsecond precision; coordinates keep full round-trip precision.
func (f Fix) CSVRecord() []string {
	return []string{
		f.CapturedAt.Format("2006-01-02T15:04:05.000000"),
		f.NMEATime,
		strconv.FormatFloat(f.Latitude, 'f', -1, 64),
		strconv.FormatFloat(f.Longitude, 'f', -1, 64),
	}
}
