package gps

import (
	"errors"
	"math"
	"testing"
	"time"
)

const (
	ggaValid  = "$GPGGA,103045.00,3746.494,N,12225.164,W,1,08,0.9,545.4,M,46.9,M,,*7D"
	ggaNoFix  = "$GPGGA,103045.00,3746.494,N,12225.164,W,0,08,0.9,545.4,M,46.9,M,,*7C"
	ggaNoTime = "$GPGGA,,3746.494,N,12225.164,W,1,08,0.9,545.4,M,46.9,M,,*50"
	ggaEast   = "$GPGGA,103045.00,5133.820,N,00042.240,W,1,08,0.9,545.4,M,46.9,M,,*79"
	rmcValid  = "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestDecodeGGA(t *testing.T) {
	before := time.Now()
	fix, err := DecodeGGA(ggaValid)
	after := time.Now()

	if err != nil {
		t.Fatal("Error decoding valid GGA: ", err)
	}
	if !almostEqual(fix.Latitude, 37.7749) {
		t.Fatal("Wrong latitude: ", fix.Latitude)
	}
	if !almostEqual(fix.Longitude, -122.4194) {
		t.Fatal("Wrong longitude: ", fix.Longitude)
	}
	if fix.NMEATime != "103045.00" {
		t.Fatal("Wrong NMEA time: ", fix.NMEATime)
	}
	if fix.CapturedAt.Before(before) || fix.CapturedAt.After(after) {
		t.Fatal("CapturedAt outside decode window: ", fix.CapturedAt)
	}
}

func TestDecodeGGANorthernHemisphere(t *testing.T) {
	fix, err := DecodeGGA(ggaEast)
	if err != nil {
		t.Fatal("Error decoding GGA: ", err)
	}
	if !almostEqual(fix.Latitude, 51.563667) {
		t.Fatal("Wrong latitude: ", fix.Latitude)
	}
	if !almostEqual(fix.Longitude, -0.704) {
		t.Fatal("Wrong longitude: ", fix.Longitude)
	}
}

// An absent time field is optional metadata, not a validity gate; the
// fix is still emitted.
func TestDecodeGGAMissingTime(t *testing.T) {
	fix, err := DecodeGGA(ggaNoTime)
	if err != nil {
		t.Fatal("Error decoding GGA without time: ", err)
	}
	if fix.NMEATime != "" {
		t.Fatal("Expected empty NMEA time, got: ", fix.NMEATime)
	}
	if !almostEqual(fix.Latitude, 37.7749) {
		t.Fatal("Wrong latitude: ", fix.Latitude)
	}
}

func TestDecodeFailures(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		reason DecodeReason
	}{
		{"zero fix quality", ggaNoFix, NoFix},
		{"rmc sentence", rmcValid, NotRelevant},
		{"bad checksum", "$GPGGA,103045.00,3746.494,N,12225.164,W,1,08,0.9,545.4,M,46.9,M,,*47", Malformed},
		{"no checksum", "$GPGGA,103045.00,3746.494,N,12225.164,W,1,08", Malformed},
		{"not a sentence", "hello world", Malformed},
		{"empty line", "", Malformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeGGA(tt.line)
			if err == nil {
				t.Fatal("Expected decode failure")
			}
			var derr *DecodeError
			if !errors.As(err, &derr) {
				t.Fatal("Expected *DecodeError, got: ", err)
			}
			if derr.Reason != tt.reason {
				t.Fatalf("Expected reason %v, got %v", tt.reason, derr.Reason)
			}
		})
	}
}
