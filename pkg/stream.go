package teldata

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// EventStream reads consecutive event documents, as written by the
// data-taking and conversion programs: one document after another,
// usually one per line.
type EventStream struct {
	dec       *json.Decoder
	EvtCount  int
	Skip      int
	MaxEvents int
}

// NewEventStream returns a stream that drops the first skip documents and
// stops once maxEvents documents have been returned. A non-positive maxEvents
// means no limit.
func NewEventStream(r io.Reader, skip int, maxEvents int) *EventStream {
	return &EventStream{dec: json.NewDecoder(r), EvtCount: -1, Skip: skip, MaxEvents: maxEvents}
}

// Next returns the next raw document. It returns io.EOF at the end of the
// input or once MaxEvents documents have been read.
func (s *EventStream) Next() ([]byte, error) {
	for {
		// Stop before reading past the limit.
		if s.MaxEvents > 0 && s.EvtCount+1 >= s.Skip+s.MaxEvents {
			return nil, io.EOF
		}
		var raw json.RawMessage
		if err := s.dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("event %d: %w", s.EvtCount+1, malformed("", "%v", err))
		}
		s.EvtCount++
		if s.EvtCount < s.Skip {
			if verbosity > 1 {
				logger.Info(fmt.Sprintf("Skipping event %d", s.EvtCount), "stream")
			}
			continue
		}
		return raw, nil
	}
}

// NextEvent reads and parses the next document.
func (s *EventStream) NextEvent() (Event, error) {
	raw, err := s.Next()
	if err != nil {
		return Event{}, err
	}
	return Parse(raw)
}

// EventWriter writes one compact document per line.
type EventWriter struct {
	out *bufio.Writer
}

func NewEventWriter(w io.Writer) *EventWriter {
	return &EventWriter{out: bufio.NewWriter(w)}
}

func (w *EventWriter) WriteEvent(event *Event) error {
	data, err := Serialize(event)
	if err != nil {
		return err
	}
	if _, err := w.out.Write(data); err != nil {
		return err
	}
	return w.out.WriteByte('\n')
}

// Close flushes buffered documents. It does not close the underlying writer.
func (w *EventWriter) Close() error {
	return w.out.Flush()
}
