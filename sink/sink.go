// Package sink defines where decoded fixes are durably recorded.
package sink

import "github.com/locness/gpslog/data"

// Sink durably records fixes. Implementations own their underlying
// resource exclusively, and a Record failure must leave the sink
// usable for the next fix.
type Sink interface {
	// Name identifies the sink in logs and failure counters.
	Name() string
	// Record persists a single fix.
	Record(fix data.Fix) error
	// Close releases the underlying resource.
	Close() error
}
