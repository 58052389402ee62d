package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	teldata "github.com/jmbenlloch/teldata_go/pkg"
	"github.com/spf13/cobra"
)

type eventSink interface {
	WriteEvent(event *teldata.Event) error
	Close() error
}

// jsonFileSink closes the output file after the buffered documents.
type jsonFileSink struct {
	*teldata.EventWriter
	file io.Closer
}

func (s jsonFileSink) Close() error {
	return errors.Join(s.EventWriter.Close(), s.file.Close())
}

func newSink(cmd *cobra.Command, filename string, config teldata.Configuration) (eventSink, error) {
	if isHDF5(filename) {
		return teldata.NewWriter(filename, config)
	}
	if filename == "-" {
		return teldata.NewEventWriter(cmd.OutOrStdout()), nil
	}
	file, err := os.Create(filename)
	if err != nil {
		return nil, &teldata.ErrOpenFile{Filename: filename, Err: err}
	}
	return jsonFileSink{EventWriter: teldata.NewEventWriter(file), file: file}, nil
}

func newConvertCommand(rootOpts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [<in> [<out>]]",
		Short: "Convert event files between JSON streams and HDF5",
		Long: `Convert event files between JSON streams and HDF5.

The format is chosen by extension: .h5 and .hdf5 are HDF5, anything else is
a JSON stream, "-" being standard input or output. Input and output default
to file_in and file_out of the configuration.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := rootOpts.config
			if len(args) > 0 {
				config.FileIn = args[0]
			}
			if len(args) > 1 {
				config.FileOut = args[1]
			}
			if config.FileIn == "" || config.FileOut == "" {
				return fmt.Errorf("input and output files are required")
			}
			return runConvert(cmd, config)
		},
	}
	return cmd
}

func runConvert(cmd *cobra.Command, config teldata.Configuration) (err error) {
	start := time.Now()

	var sink eventSink
	if config.WriteData {
		if sink, err = newSink(cmd, config.FileOut, config); err != nil {
			return err
		}
		defer func() {
			if closeErr := sink.Close(); closeErr != nil {
				err = errors.Join(err, closeErr)
			}
		}()
	}

	var written, discarded int
	write := func(event *teldata.Event) error {
		if sink == nil {
			return nil
		}
		if err := sink.WriteEvent(event); err != nil {
			return fmt.Errorf("error writing event %d: %w", event.EventN, err)
		}
		written++
		return nil
	}

	if isHDF5(config.FileIn) {
		err = forEachEvent(cmd, config, config.FileIn, func(_ int, event *teldata.Event) error {
			return write(event)
		})
	} else {
		err = convertStream(cmd, config, write, &discarded)
	}
	if err != nil {
		return err
	}

	if config.Verbosity > 0 {
		duration := time.Since(start)
		logger.Info(fmt.Sprintf("Written %d events, discarded %d, in %d ms", written, discarded, duration.Milliseconds()), "convert")
	}
	return nil
}

func convertStream(cmd *cobra.Command, config teldata.Configuration, write func(*teldata.Event) error, discarded *int) error {
	in, err := openInput(cmd, config.FileIn)
	if err != nil {
		return err
	}
	defer in.Close()

	decoder, dbConn, err := newDecoder(config)
	if err != nil {
		return err
	}
	if dbConn != nil {
		defer dbConn.Close()
	}

	stream := teldata.NewEventStream(in, config.Skip, config.MaxEvents)
	return teldata.ProcessStream(stream, decoder, config.NumWorkers, func(res teldata.DecodedEvent) error {
		if res.Err != nil {
			if !config.Discard {
				return fmt.Errorf("event %d: %w", config.Skip+res.Seq, res.Err)
			}
			logger.Error(fmt.Sprintf("discarding event %d: %v", config.Skip+res.Seq, res.Err))
			*discarded++
			return nil
		}
		if config.Verbosity > 0 {
			for _, w := range res.Warnings {
				logger.Info(fmt.Sprintf("event %d: %s", res.Event.EventN, w), "convert")
			}
		}
		return write(&res.Event)
	})
}
