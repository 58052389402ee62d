package teldata

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// Decoder turns raw documents into checked events. Schema and Catalog are
// optional.
type Decoder struct {
	Schema  *Schema
	Catalog *Catalog
}

// Decode parses and validates one document. Detector inconsistencies are
// returned as warnings, never as errors.
func (d *Decoder) Decode(raw []byte) (Event, []Warning, error) {
	if d.Schema != nil {
		if err := d.Schema.Check(raw); err != nil {
			return Event{}, nil, err
		}
	}
	event, err := Parse(raw)
	if err != nil {
		return Event{}, nil, err
	}
	if err := Validate(&event); err != nil {
		return Event{}, nil, err
	}
	warnings := CheckHitGroupDetectors(&event)
	if d.Catalog != nil {
		setup, err := d.Catalog.Setup(event.RunN, event.SetupN)
		if err != nil {
			return Event{}, nil, err
		}
		warnings = append(warnings, setup.Check(&event)...)
	}
	return event, warnings, nil
}

// DecodedEvent is the outcome of decoding the Seq-th document returned by a
// stream.
type DecodedEvent struct {
	Seq      int
	Event    Event
	Warnings []Warning
	Err      error
}

type workerData struct {
	seq  int
	data []byte
}

func worker(id int, decoder *Decoder, jobs <-chan workerData, results chan<- DecodedEvent, done <-chan struct{}) {
	for {
		var job workerData
		select {
		case j, ok := <-jobs:
			if !ok {
				return
			}
			job = j
		case <-done:
			return
		}
		if verbosity > 2 {
			logger.Info(fmt.Sprintf("Worker %d processing event %d", id, job.seq), "workers")
		}
		select {
		case results <- decodeJob(id, decoder, job):
		case <-done:
			return
		}
	}
}

// decodeJob recovers from panics so that every job gets a result.
func decodeJob(id int, decoder *Decoder, job workerData) (result DecodedEvent) {
	result.Seq = job.seq
	defer func() {
		if r := recover(); r != nil {
			logger.Error(fmt.Sprintf("Worker %d recovered from panic on event %d: %v", id, job.seq, r))
			result = DecodedEvent{Seq: job.seq, Err: fmt.Errorf("panic decoding event %d: %v", job.seq, r)}
		}
	}()
	result.Event, result.Warnings, result.Err = decoder.Decode(job.data)
	return result
}

func sendEventsToWorkers(stream *EventStream, jobs chan<- workerData, done <-chan struct{}, readErr chan<- error) {
	defer close(jobs)
	for seq := 0; ; seq++ {
		select {
		case <-done:
			readErr <- nil
			return
		default:
		}
		data, err := stream.Next()
		if errors.Is(err, io.EOF) {
			readErr <- nil
			return
		}
		if err != nil {
			select {
			case <-done:
				// input closed under us after the handler failed
				readErr <- nil
				return
			default:
			}
			logger.Error(fmt.Sprintf("Error reading event: %v", err))
			readErr <- err
			return
		}
		select {
		case jobs <- workerData{seq: seq, data: data}:
		case <-done:
			readErr <- nil
			return
		}
	}
}

// ProcessStream decodes the documents of stream on numWorkers goroutines and
// hands the results to handle in stream order. Decoding failures are
// delivered through DecodedEvent.Err; an error returned by handle stops the
// processing and is returned. A read error of the stream is returned after
// every document read before it has been handled.
//
// ProcessStream returns as soon as handle fails. A read of stream already in
// progress at that point is not interrupted: the reading goroutine exits once
// that Next call returns.
func ProcessStream(stream *EventStream, decoder *Decoder, numWorkers int, handle func(DecodedEvent) error) error {
	if numWorkers < 1 {
		numWorkers = 1
	}
	jobs := make(chan workerData, numWorkers)
	results := make(chan DecodedEvent, numWorkers)
	done := make(chan struct{})
	readErr := make(chan error, 1)

	go sendEventsToWorkers(stream, jobs, done, readErr)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			worker(id, decoder, jobs, results, done)
		}(i)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	pending := make(map[int]DecodedEvent)
	next := 0
	for res := range results {
		pending[res.Seq] = res
		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if err := handle(r); err != nil {
				close(done)
				return err
			}
		}
	}
	return <-readErr
}
