package commands

import (
	"github.com/de-tools/clickstream-atlas/pkg/runtime/env"
	"github.com/de-tools/clickstream-atlas/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

type ExperimentCmd struct {
	seed     uint64
	load     env.Loader
	reporter *export.Reporter
}

func NewExperimentCmd(load env.Loader, reporter *export.Reporter) *cobra.Command {
	ec := &ExperimentCmd{load: load, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "experiment",
		Short: "Randomly split stored sessions and compare purchase conversion",
		RunE:  ec.run,
	}

	cmd.Flags().Uint64Var(&ec.seed, "seed", 0, "Seed for group assignment (defaults to experiment.seed from config)")

	return cmd
}

func (ec *ExperimentCmd) run(cmd *cobra.Command, _ []string) error {
	rt, err := ec.load()
	if err != nil {
		return err
	}
	defer rt.Close()

	seed := rt.Config.Experiment.Seed
	if cmd.Flags().Changed("seed") {
		seed = ec.seed
	}

	svc, err := rt.Analytics()
	if err != nil {
		return err
	}
	result, err := svc.Experiment(cmd.Context(), seed)
	if err != nil {
		return err
	}
	return ec.reporter.Experiment(result)
}
