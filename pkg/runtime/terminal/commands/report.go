package commands

import (
	"github.com/de-tools/clickstream-atlas/pkg/runtime/env"
	"github.com/de-tools/clickstream-atlas/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

type ReportCmd struct {
	load     env.Loader
	reporter *export.Reporter
}

func NewReportCmd(load env.Loader, reporter *export.Reporter) *cobra.Command {
	rc := &ReportCmd{load: load, reporter: reporter}
	return &cobra.Command{
		Use:   "report",
		Short: "Print KPIs, funnel, top categories, retention and monthly metrics",
		RunE:  rc.run,
	}
}

func (rc *ReportCmd) run(cmd *cobra.Command, _ []string) error {
	rt, err := rc.load()
	if err != nil {
		return err
	}
	defer rt.Close()

	svc, err := rt.Analytics()
	if err != nil {
		return err
	}
	report, err := svc.Report(cmd.Context())
	if err != nil {
		return err
	}
	return rc.reporter.Handle(report)
}
