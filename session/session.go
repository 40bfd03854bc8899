// Package session runs the read-decode-dispatch loop that turns a
// serial NMEA stream into durably recorded fixes. The loop is a single
// sequential thread of control; throughput is bounded by the serial
// link, so there is nothing to gain from concurrent sinks.
package session

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/locness/gpslog/data"
	"github.com/locness/gpslog/gps"
	"github.com/locness/gpslog/sink"
)

// State of the session lifecycle.
type State int

const (
	Idle State = iota
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// ErrNoFix is returned by ReadOne when the attempt budget runs out
// before a valid fix arrives.
var ErrNoFix = errors.New("no fix obtained")

// LineSource is the transport the session pulls raw sentences from.
// *gps.Source implements it.
type LineSource interface {
	NextLine() (string, error)
	Reopen() error
	Close() error
}

// Counters tracks what the session has seen. Observability only; the
// loop never branches on them.
type Counters struct {
	LinesRead    int
	FixesDecoded int
	NotRelevant  int
	NoFix        int
	Malformed    int
	ReadErrors   int
	SinkFailures map[string]int
}

// Config wires a session together.
type Config struct {
	Source LineSource
	Sinks  []sink.Sink // dispatched in slice order, every fix to every sink

	// MaxReconnects bounds reconnect attempts after a read error.
	// Zero means fail fast.
	MaxReconnects int
	// ReconnectWait is the delay before each reconnect attempt.
	ReconnectWait time.Duration
}

// Session owns one logging run: the serial source, the configured
// sinks, and the failure-isolation policy between them.
type Session struct {
	src           LineSource
	sinks         []sink.Sink
	maxReconnects int
	reconnectWait time.Duration

	stop     chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	state    State
	counters Counters
}

// New creates an idle session. Start runs it.
func New(cfg Config) *Session {
	wait := cfg.ReconnectWait
	if wait == 0 {
		wait = time.Second
	}
	return &Session{
		src:           cfg.Source,
		sinks:         cfg.Sinks,
		maxReconnects: cfg.MaxReconnects,
		reconnectWait: wait,
		stop:          make(chan struct{}),
		counters:      Counters{SinkFailures: make(map[string]int)},
	}
}

// Start runs the logging loop until end of stream, an unrecovered read
// error, or Stop. It blocks, and it releases the source and every sink
// before returning no matter how the run ends. The signature matches
// the oklog/run execute contract.
func (s *Session) Start() error {
	s.setState(Running)
	defer s.shutdown()

	reconnects := 0
	for {
		select {
		case <-s.stop:
			log.Println("SESSION: stop requested")
			return nil
		default:
		}

		line, err := s.src.NextLine()
		switch {
		case err == nil:
		case errors.Is(err, gps.ErrTimeout):
			// no data in the window, not a failure
			continue
		case errors.Is(err, io.EOF):
			log.Println("SESSION: end of stream")
			return nil
		default:
			s.count(func(c *Counters) { c.ReadErrors++ })
			if reconnects >= s.maxReconnects {
				return fmt.Errorf("read: %w", err)
			}
			reconnects++
			log.Printf("SESSION: read error: %v, reconnecting (%v/%v)", err, reconnects, s.maxReconnects)
			time.Sleep(s.reconnectWait)
			if rerr := s.src.Reopen(); rerr != nil {
				return fmt.Errorf("reconnect: %w", rerr)
			}
			continue
		}

		fix, ok := s.decode(line)
		if !ok {
			continue
		}
		s.dispatch(fix)
	}
}

// Stop requests a clean shutdown. It is sampled at the top of the next
// iteration, so the wait is bounded by the read timeout. The signature
// matches the oklog/run interrupt contract and it is safe to call more
// than once.
func (s *Session) Stop(error) {
	s.stopOnce.Do(func() { close(s.stop) })
}

// decode classifies one raw line. Decode failures are counted and
// absorbed here; they never end the session.
func (s *Session) decode(line string) (data.Fix, bool) {
	s.count(func(c *Counters) { c.LinesRead++ })

	fix, err := gps.DecodeGGA(line)
	if err != nil {
		var derr *gps.DecodeError
		if errors.As(err, &derr) {
			switch derr.Reason {
			case gps.NotRelevant:
				s.count(func(c *Counters) { c.NotRelevant++ })
			case gps.NoFix:
				s.count(func(c *Counters) { c.NoFix++ })
			case gps.Malformed:
				s.count(func(c *Counters) { c.Malformed++ })
				log.Println("SESSION: dropping malformed line: ", derr.Err)
			}
		}
		return data.Fix{}, false
	}

	s.count(func(c *Counters) { c.FixesDecoded++ })
	return fix, true
}

// dispatch hands the fix to every sink in order. A failing sink is
// counted and skipped; it never blocks the remaining sinks or the
// next iteration.
func (s *Session) dispatch(fix data.Fix) {
	for _, snk := range s.sinks {
		if err := snk.Record(fix); err != nil {
			name := snk.Name()
			s.count(func(c *Counters) { c.SinkFailures[name]++ })
			log.Printf("SINK: %v: record failed: %v", name, err)
		}
	}
	log.Printf("SESSION: logged fix %.6f, %.6f", fix.Latitude, fix.Longitude)
}

// ReadOne is the single-shot mode: the same loop run until one valid
// fix decodes, retrying timeouts and decode failures. Each read
// consumes one attempt; when the budget is exhausted ErrNoFix is
// returned. The caller keeps ownership of the source lifecycle.
func (s *Session) ReadOne(attempts int) (data.Fix, error) {
	for i := 0; i < attempts; i++ {
		line, err := s.src.NextLine()
		switch {
		case err == nil:
		case errors.Is(err, gps.ErrTimeout):
			continue
		default:
			return data.Fix{}, fmt.Errorf("read: %w", err)
		}

		fix, ok := s.decode(line)
		if !ok {
			continue
		}
		s.dispatch(fix)
		return fix, nil
	}
	return data.Fix{}, ErrNoFix
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Counters returns a snapshot of the session counters.
func (s *Session) Counters() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.counters
	snap.SinkFailures = make(map[string]int, len(s.counters.SinkFailures))
	for k, v := range s.counters.SinkFailures {
		snap.SinkFailures[k] = v
	}
	return snap
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) count(f func(*Counters)) {
	s.mu.Lock()
	f(&s.counters)
	s.mu.Unlock()
}

// shutdown releases every owned handle exactly once, on every exit
// path out of Start.
func (s *Session) shutdown() {
	s.setState(Stopping)
	if err := s.src.Close(); err != nil {
		log.Println("SESSION: closing source: ", err)
	}
	for _, snk := range s.sinks {
		if err := snk.Close(); err != nil {
			log.Printf("SINK: %v: close failed: %v", snk.Name(), err)
		}
	}
	c := s.Counters()
	log.Printf("SESSION: %v lines, %v fixes, %v decode failures",
		c.LinesRead, c.FixesDecoded, c.NotRelevant+c.NoFix+c.Malformed)
	s.setState(Stopped)
}
