package main

import (
	"fmt"
	"os"

	"github.com/de-tools/clickstream-atlas/pkg/config"
	"github.com/de-tools/clickstream-atlas/pkg/runtime/env"
	"github.com/de-tools/clickstream-atlas/pkg/server"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Serve the clickstream snapshot over HTTP",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to a YAML config file (CLICKSTREAM_* environment variables override it)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	runtime, err := env.Open(cfg)
	if err != nil {
		return err
	}
	defer runtime.Close()

	svc, err := runtime.Analytics()
	if err != nil {
		return fmt.Errorf("failed to create analytics service: %w", err)
	}

	logger.Info().
		Str("duckdb", cfg.DuckDB.Path).
		Str("category_summary", cfg.Paths.CategorySummary).
		Str("cohort_table", cfg.Paths.CohortTable).
		Msg("snapshot store opened")

	web := server.NewWebAPI(server.Config{
		Addr: cfg.Server.Addr(),
		Dependencies: server.Dependencies{
			Analytics:   svc,
			DefaultSeed: cfg.Experiment.Seed,
			Logger:      logger,
		},
	})
	return web.Start()
}
