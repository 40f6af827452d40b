package commands

import (
	"fmt"

	"github.com/de-tools/clickstream-atlas/pkg/runtime/env"
	"github.com/de-tools/clickstream-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/clickstream-atlas/pkg/services/pipeline"
	"github.com/de-tools/clickstream-atlas/pkg/store/flat"
	"github.com/de-tools/clickstream-atlas/pkg/store/source"
	"github.com/spf13/cobra"
)

type RunCmd struct {
	load     env.Loader
	reporter *export.Reporter
}

func NewRunCmd(load env.Loader, reporter *export.Reporter) *cobra.Command {
	rc := &RunCmd{load: load, reporter: reporter}
	return &cobra.Command{
		Use:   "run",
		Short: "Clean raw events and rebuild the funnel and metrics snapshots",
		RunE:  rc.run,
	}
}

func (rc *RunCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	rt, err := rc.load()
	if err != nil {
		return err
	}
	defer rt.Close()

	src, err := source.New(ctx, rt.Config.Paths.Raw)
	if err != nil {
		return fmt.Errorf("failed to open raw events source: %w", err)
	}
	writer, err := flat.NewWriter(flat.Settings{
		ProcessedDir: rt.Config.Paths.ProcessedDir,
		OutputsDir:   rt.Config.Paths.OutputsDir,
	})
	if err != nil {
		return err
	}

	p, err := pipeline.New(pipeline.Dependencies{
		Source: src,
		Sinks:  []pipeline.Sink{writer, rt.Snapshots},
		Runs:   rt.Runs,
	})
	if err != nil {
		return err
	}

	report, runErr := p.Run(ctx)
	if report != nil {
		if err := rc.reporter.Run(report); err != nil {
			return err
		}
		if failed := report.FailedStage(); failed != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "pipeline failed at stage %s after %s\n", failed.Name, report.Elapsed())
		}
	}
	return runErr
}
