package gps

import (
	"fmt"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/locness/gpslog/data"
)

// DecodeReason classifies why a line did not produce a Fix.
type DecodeReason int

const (
	// NotRelevant is a well-formed sentence of a type other than GGA.
	NotRelevant DecodeReason = iota
	// NoFix is a GGA sentence whose fix quality field reports no fix.
	NoFix
	// Malformed is a line that failed checksum or structural parsing.
	Malformed
)

func (r DecodeReason) String() string {
	switch r {
	case NotRelevant:
		return "not relevant"
	case NoFix:
		return "no fix"
	case Malformed:
		return "malformed"
	}
	return "unknown"
}

// DecodeError reports a line that did not decode to a Fix.
type DecodeError struct {
	Reason DecodeReason
	Err    error // underlying parse error for Malformed, else nil
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode: %v: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode: %v", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodeGGA parses one NMEA line and returns a position fix. Only GGA
// sentences with a valid fix quality produce a Fix; every other outcome
// comes back as a *DecodeError. The fix CapturedAt is the time of the
// call, not the receiver-reported time. DecodeGGA is stateless and
// never logs or persists.
func DecodeGGA(line string) (data.Fix, error) {
	s, err := nmea.Parse(strings.TrimSpace(line))
	if err != nil {
		return data.Fix{}, &DecodeError{Reason: Malformed, Err: err}
	}
	if s.DataType() != nmea.TypeGGA {
		return data.Fix{}, &DecodeError{Reason: NotRelevant}
	}
	gga := s.(nmea.GGA)
	if gga.FixQuality == nmea.Invalid {
		return data.Fix{}, &DecodeError{Reason: NoFix}
	}
	return data.Fix{
		CapturedAt: time.Now(),
		NMEATime:   rawTimeField(gga),
		Latitude:   gga.Latitude,
		Longitude:  gga.Longitude,
	}, nil
}

// rawTimeField returns the time-of-day exactly as transmitted. go-nmea
// reformats Time on String(), so take the raw sentence field instead.
func rawTimeField(gga nmea.GGA) string {
	if len(gga.Fields) == 0 {
		return ""
	}
	return gga.Fields[0]
}
