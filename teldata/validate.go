package main

import (
	"fmt"

	teldata "github.com/jmbenlloch/teldata_go/pkg"
	"github.com/spf13/cobra"
)

func newValidateCommand(rootOpts *rootOptions) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate <in>",
		Short: "Check every event of a JSON stream",
		Long: `Check every event of a JSON stream.

Each event is parsed and its hit-group references are checked. With --schema
the documents are also checked against the published event schema, and when
the database is enabled the detectors are checked against the setup of the
run. Detector findings are reported as warnings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := rootOpts.config
			if cmd.Flags().Changed("schema") {
				config.StrictSchema = strict
			}
			return runValidate(cmd, config, args[0])
		},
	}
	cmd.Flags().BoolVar(&strict, "schema", false, "check documents against the event schema")
	return cmd
}

func runValidate(cmd *cobra.Command, config teldata.Configuration, filename string) error {
	in, err := openInput(cmd, filename)
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

	out := cmd.OutOrStdout()
	var total, invalid, warnings int
	stream := teldata.NewEventStream(in, config.Skip, config.MaxEvents)
	err = teldata.ProcessStream(stream, decoder, config.NumWorkers, func(res teldata.DecodedEvent) error {
		total++
		position := config.Skip + res.Seq
		if res.Err != nil {
			invalid++
			fmt.Fprintf(out, "event %d: %v\n", position, res.Err)
			return nil
		}
		for _, w := range res.Warnings {
			warnings++
			fmt.Fprintf(out, "event %d: warning: %s\n", position, w)
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%d events, %d invalid, %d warnings\n", total, invalid, warnings)
	if invalid > 0 {
		return fmt.Errorf("%d of %d events are invalid", invalid, total)
	}
	return nil
}
