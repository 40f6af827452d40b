package terminal

import (
	"context"
	"io"
	"os"

	"github.com/de-tools/clickstream-atlas/pkg/config"
	"github.com/de-tools/clickstream-atlas/pkg/runtime/env"
	"github.com/de-tools/clickstream-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/clickstream-atlas/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	configPath string
	reporter   *export.Reporter
	rootCmd    *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Output    io.Writer
	ErrOutput io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.ErrOutput == nil {
		opts.ErrOutput = os.Stderr
	}

	cli := &CLI{
		reporter: export.NewReporter(opts.Output),
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	cli.rootCmd.SetErr(opts.ErrOutput)
	return cli
}

func (cli *CLI) Execute(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

// SetArgs overrides os.Args, mostly for tests.
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) loadEnv() (*env.Env, error) {
	cfg, err := config.Load(cli.configPath)
	if err != nil {
		return nil, err
	}
	return env.Open(cfg)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "clickstream",
		Short:         "Ecommerce clickstream analytics pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&cli.configPath, "config", "c", "",
		"Path to a YAML config file (CLICKSTREAM_* environment variables override it)")

	cmd.AddCommand(commands.NewRunCmd(cli.loadEnv, cli.reporter))
	cmd.AddCommand(commands.NewExperimentCmd(cli.loadEnv, cli.reporter))
	cmd.AddCommand(commands.NewReportCmd(cli.loadEnv, cli.reporter))
	cmd.AddCommand(commands.NewRunsCmd(cli.loadEnv, cli.reporter))

	return cmd
}
