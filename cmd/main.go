package main

import (
	"context"
	"fmt"
	"os"

	"github.com/de-tools/clickstream-atlas/pkg/runtime/terminal"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Logger().
		Level(logLevel())
	ctx := logger.WithContext(context.Background())

	cli := terminal.NewCLI(terminal.Options{})
	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func logLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(os.Getenv("CLICKSTREAM_LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
