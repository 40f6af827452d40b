package commands

import (
	"fmt"

	"github.com/de-tools/clickstream-atlas/pkg/runtime/env"
	"github.com/de-tools/clickstream-atlas/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

type RunsCmd struct {
	limit    int
	latency  bool
	load     env.Loader
	reporter *export.Reporter
}

func NewRunsCmd(load env.Loader, reporter *export.Reporter) *cobra.Command {
	rc := &RunsCmd{load: load, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent pipeline runs",
		RunE:  rc.run,
	}

	cmd.Flags().IntVar(&rc.limit, "limit", 10, "Number of runs to show")
	cmd.Flags().BoolVar(&rc.latency, "latency", false, "Also print stage duration percentiles over the listed runs")

	return cmd
}

func (rc *RunsCmd) run(cmd *cobra.Command, _ []string) error {
	rt, err := rc.load()
	if err != nil {
		return err
	}
	defer rt.Close()

	svc, err := rt.Analytics()
	if err != nil {
		return err
	}
	reports, err := svc.Runs(cmd.Context(), rc.limit)
	if err != nil {
		return err
	}

	if len(reports) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No pipeline runs recorded")
		return nil
	}
	for _, r := range reports {
		if err := rc.reporter.Run(r); err != nil {
			return err
		}
	}

	if !rc.latency {
		return nil
	}
	latency, err := svc.RunLatency(cmd.Context(), rc.limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return rc.reporter.Latency(latency)
}
