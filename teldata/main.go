package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	sqlx "github.com/jmoiron/sqlx"
	teldata "github.com/jmbenlloch/teldata_go/pkg"
	"github.com/spf13/cobra"
)

var logger Logger

func init() {
	logger = NewLogger(os.Stdout, os.Stderr)
}

// rootOptions holds the global flags and the configuration resolved from
// them before any command runs.
type rootOptions struct {
	ConfigFile string
	Verbosity  int

	config teldata.Configuration
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "teldata",
		Short:         "Convert, check and inspect telescope event records",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config, err := LoadConfiguration(opts.ConfigFile)
			if err != nil {
				return fmt.Errorf("error reading configuration file: %w", err)
			}
			if cmd.Flags().Changed("verbosity") {
				config.Verbosity = opts.Verbosity
			}
			opts.config = config

			// Command output owns stdout.
			logger = NewLogger(cmd.ErrOrStderr(), cmd.ErrOrStderr())
			teldata.SetLogger(logger)
			teldata.SetVerbosity(config.Verbosity)

			if config.Verbosity > 0 {
				if opts.ConfigFile != "" {
					logger.Info(fmt.Sprintf("Reading configuration file: %s", opts.ConfigFile), "main")
				}
				printConfiguration(config, logger)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "configuration file (json or yaml)")
	cmd.PersistentFlags().IntVarP(&opts.Verbosity, "verbosity", "v", 0, "verbosity level, overrides the configuration")

	cmd.AddCommand(newConvertCommand(opts))
	cmd.AddCommand(newValidateCommand(opts))
	cmd.AddCommand(newPrintCommand(opts))
	cmd.AddCommand(newResidualsCommand(opts))

	return cmd
}

func isHDF5(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".h5", ".hdf5":
		return true
	}
	return false
}

// openInput opens a file, or the command input for "-".
func openInput(cmd *cobra.Command, filename string) (io.ReadCloser, error) {
	if filename == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	return file, nil
}

// newDecoder builds the decoder described by the configuration. The
// returned database handle is nil when the catalog is disabled.
func newDecoder(config teldata.Configuration) (*teldata.Decoder, *sqlx.DB, error) {
	decoder := &teldata.Decoder{}
	if config.StrictSchema {
		schema, err := teldata.NewSchema()
		if err != nil {
			return nil, nil, err
		}
		decoder.Schema = schema
	}
	if config.NoDB {
		return decoder, nil, nil
	}
	dbConn, err := teldata.ConnectToDatabase(config)
	if err != nil {
		return nil, nil, fmt.Errorf("error connecting to database: %w", err)
	}
	decoder.Catalog = teldata.NewCatalog(dbConn)
	return decoder, dbConn, nil
}

// forEachEvent calls fn with every event of a file, HDF5 or JSON stream,
// honouring skip and max_events for streams.
func forEachEvent(cmd *cobra.Command, config teldata.Configuration, filename string, fn func(int, *teldata.Event) error) error {
	if isHDF5(filename) {
		reader, err := teldata.OpenReader(filename)
		if err != nil {
			return err
		}
		defer reader.Close()
		for i := 0; i < reader.NumEvents(); i++ {
			event, err := reader.Event(i)
			if err != nil {
				return err
			}
			if err := fn(i, &event); err != nil {
				return err
			}
		}
		return nil
	}

	in, err := openInput(cmd, filename)
	if err != nil {
		return err
	}
	defer in.Close()
	stream := teldata.NewEventStream(in, config.Skip, config.MaxEvents)
	for {
		raw, err := stream.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		event, err := teldata.Parse(raw)
		if err != nil {
			return fmt.Errorf("event %d: %w", stream.EvtCount, err)
		}
		if err := fn(stream.EvtCount, &event); err != nil {
			return err
		}
	}
}
