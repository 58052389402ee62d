package main

import (
	"fmt"
	"text/tabwriter"

	teldata "github.com/jmbenlloch/teldata_go/pkg"
	"github.com/spf13/cobra"
)

func newResidualsCommand(rootOpts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "residuals <file>",
		Short: "Summarize matched-minus-fitted residuals per detector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResiduals(cmd, rootOpts.config, args[0])
		},
	}
	return cmd
}

func runResiduals(cmd *cobra.Command, config teldata.Configuration, filename string) error {
	var all []teldata.Residual
	err := forEachEvent(cmd, config, filename, func(_ int, event *teldata.Event) error {
		residuals, err := teldata.Residuals(event)
		if err != nil {
			return fmt.Errorf("event %d: %w", event.EventN, err)
		}
		all = append(all, residuals...)
		return nil
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DET\tCOUNT\tMEAN_U\tMEAN_V\tRMS_U\tRMS_V")
	for _, s := range teldata.SummarizeResiduals(all) {
		fmt.Fprintf(w, "%d\t%d\t%.4g\t%.4g\t%.4g\t%.4g\n", s.DetN, s.Count, s.MeanU, s.MeanV, s.RmsU, s.RmsV)
	}
	return w.Flush()
}
