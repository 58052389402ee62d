package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	teldata "github.com/jmbenlloch/teldata_go/pkg"
	"github.com/spf13/cobra"
)

var errFound = errors.New("found")

func newPrintCommand(rootOpts *rootOptions) *cobra.Command {
	var eventNumber int
	cmd := &cobra.Command{
		Use:   "print <file>",
		Short: "Print one event as indented JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrint(cmd, rootOpts.config, args[0], eventNumber)
		},
	}
	cmd.Flags().IntVarP(&eventNumber, "event", "e", 0, "position of the event in the file")
	return cmd
}

func runPrint(cmd *cobra.Command, config teldata.Configuration, filename string, n int) error {
	if n < 0 {
		return fmt.Errorf("event position must not be negative, got %d", n)
	}
	config.Skip = n
	config.MaxEvents = 1

	var found *teldata.Event
	err := forEachEvent(cmd, config, filename, func(i int, event *teldata.Event) error {
		if i != n {
			return nil
		}
		found = event
		return errFound
	})
	if err != nil && !errors.Is(err, errFound) {
		return err
	}
	if found == nil {
		return fmt.Errorf("file %s has no event %d", filename, n)
	}

	data, err := teldata.Serialize(found)
	if err != nil {
		return err
	}
	var indented bytes.Buffer
	if err := json.Indent(&indented, data, "", "  "); err != nil {
		return err
	}
	indented.WriteByte('\n')
	_, err = cmd.OutOrStdout().Write(indented.Bytes())
	return err
}
