// Package gps decodes NMEA GGA sentences and owns the serial
// connection they are read from.
package gps

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.bug.st/serial"
)

// ErrTimeout indicates the read window elapsed with no complete line.
// It is a retry signal, not a failure; partial data stays buffered for
// the next NextLine call.
var ErrTimeout = errors.New("timeout")

// SourceConfig holds the serial transport settings. Values come from
// the config file or CLI and are consumed verbatim.
type SourceConfig struct {
	Port    string
	Baud    int
	Timeout time.Duration // read window for NextLine
}

// Source owns one serial connection and frames the byte stream into
// text lines. It is not safe for concurrent use; the logging session
// is the only caller.
type Source struct {
	port   io.ReadCloser
	open   func() (io.ReadCloser, error)
	buf    []byte
	chunk  []byte
	closed bool
}

// Open opens the configured serial port. An error here means the
// device could not be opened at all and the session never starts.
func Open(cfg SourceConfig) (*Source, error) {
	s := &Source{
		open:  func() (io.ReadCloser, error) { return openSerial(cfg) },
		chunk: make([]byte, 256),
	}
	port, err := s.open()
	if err != nil {
		return nil, err
	}
	s.port = port
	return s, nil
}

func openSerial(cfg SourceConfig) (io.ReadCloser, error) {
	mode := &serial.Mode{BaudRate: cfg.Baud}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("open %v: %w", cfg.Port, err)
	}
	if cfg.Timeout > 0 {
		if err := port.SetReadTimeout(cfg.Timeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("set read timeout on %v: %w", cfg.Port, err)
		}
	}
	return port, nil
}

// NewSource wraps an arbitrary stream, mainly for tests and replay of
// recorded NMEA logs. A zero-byte read with a nil error is treated as
// a timeout, matching serial port behavior.
func NewSource(rc io.ReadCloser) *Source {
	return &Source{port: rc, chunk: make([]byte, 256)}
}

// NextLine blocks until one full text line has been read and returns
// it without the trailing line ending. It returns ErrTimeout when the
// read window elapses first, io.EOF at end of stream, and any other
// error when the transport has failed.
func (s *Source) NextLine() (string, error) {
	if s.port == nil || s.closed {
		return "", io.EOF
	}
	for {
		if i := bytes.IndexByte(s.buf, '\n'); i >= 0 {
			line := strings.TrimRight(string(s.buf[:i]), "\r")
			s.buf = s.buf[i+1:]
			return line, nil
		}
		n, err := s.port.Read(s.chunk)
		if n > 0 {
			s.buf = append(s.buf, s.chunk[:n]...)
			continue
		}
		if err != nil {
			return "", err
		}
		return "", ErrTimeout
	}
}

// Reopen closes the port and opens it again, discarding any buffered
// partial line. Used by the session's bounded reconnect.
func (s *Source) Reopen() error {
	if s.open == nil {
		return errors.New("source is not reopenable")
	}
	s.Close()
	port, err := s.open()
	if err != nil {
		return err
	}
	s.port = port
	s.buf = nil
	s.closed = false
	return nil
}

// Close releases the port. Safe to call more than once.
func (s *Source) Close() error {
	if s.closed || s.port == nil {
		return nil
	}
	s.closed = true
	return s.port.Close()
}
