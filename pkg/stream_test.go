package teldata

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventLines(t *testing.T, events ...Event) string {
	t.Helper()
	var buf bytes.Buffer
	w := NewEventWriter(&buf)
	for i := range events {
		require.NoError(t, w.WriteEvent(&events[i]))
	}
	require.NoError(t, w.Close())
	return buf.String()
}

func TestEventWriterLines(t *testing.T) {
	out := eventLines(t, Event{EventN: 1}, Event{EventN: 2})
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"EV":{"RN":0,"EN":2,"DN":0,"CK":0,"MRs":[],"MHs":[],"TJs":[]}}`, lines[1])
}

func TestEventStreamReadsAll(t *testing.T) {
	sample := sampleEvent()
	input := eventLines(t, sample, Event{EventN: 43})

	stream := NewEventStream(strings.NewReader(input), 0, 0)
	first, err := stream.NextEvent()
	require.NoError(t, err)
	assert.True(t, sample.Equal(&first))

	second, err := stream.NextEvent()
	require.NoError(t, err)
	assert.Equal(t, uint64(43), second.EventN)

	_, err = stream.NextEvent()
	assert.Equal(t, io.EOF, err)
}

func TestEventStreamSkipAndMax(t *testing.T) {
	var events []Event
	for i := 0; i < 6; i++ {
		events = append(events, Event{EventN: uint64(i)})
	}
	stream := NewEventStream(strings.NewReader(eventLines(t, events...)), 2, 3)

	var got []uint64
	for {
		event, err := stream.NextEvent()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, event.EventN)
	}
	assert.Equal(t, []uint64{2, 3, 4}, got)
}

func TestEventStreamStopsAtMaxBeforeReading(t *testing.T) {
	input := eventLines(t, Event{EventN: 0}, Event{EventN: 1}) + "{broken\n"

	for _, skip := range []int{0, 1} {
		stream := NewEventStream(strings.NewReader(input), skip, 2-skip)
		for i := skip; i < 2; i++ {
			event, err := stream.NextEvent()
			require.NoError(t, err)
			assert.Equal(t, uint64(i), event.EventN)
		}
		_, err := stream.Next()
		assert.Equal(t, io.EOF, err, "skip %d", skip)
		_, err = stream.Next()
		assert.Equal(t, io.EOF, err, "skip %d", skip)
	}
}

func TestEventStreamConcatenated(t *testing.T) {
	input := `{"RN":1,"EN":1,"DN":0,"CK":0,"MRs":[],"MHs":[],"TJs":[]}{"RN":1,"EN":2,"DN":0,"CK":0,"MRs":[],"MHs":[],"TJs":[]}`
	stream := NewEventStream(strings.NewReader(input), 1, 0)
	event, err := stream.NextEvent()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), event.EventN)
}

func TestEventStreamBrokenDocument(t *testing.T) {
	input := eventLines(t, Event{}) + `{"EV": [`
	stream := NewEventStream(strings.NewReader(input), 0, 0)
	_, err := stream.Next()
	require.NoError(t, err)

	_, err = stream.Next()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedRecord)
	assert.Contains(t, err.Error(), "event 1")
}

func TestEventStreamLogsSkipped(t *testing.T) {
	rec := &recordingLogger{}
	SetLogger(rec)
	SetVerbosity(2)
	defer func() {
		SetLogger(nil)
		SetVerbosity(0)
	}()

	stream := NewEventStream(strings.NewReader(eventLines(t, Event{}, Event{})), 1, 0)
	_, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"stream: Skipping event 0"}, rec.infos)
}
