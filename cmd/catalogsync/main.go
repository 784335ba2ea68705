package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

func main() {
	envErr := godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{logger: newLogger("info", "json")}
	root := a.command()
	root.Before = func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		a.logger = newLogger(cmd.String("log-level"), cmd.String("log-format"))
		if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
			a.logger.Warn().Err(envErr).Msg("Failed to load .env file")
		}
		return ctx, nil
	}

	if err := root.Run(ctx, os.Args); err != nil {
		a.logger.Error().Err(err).Msg("Command failed")
		stop()
		os.Exit(1)
	}
}

// newLogger writes JSON to stderr, or human readable lines when format is
// "console". stdout is left to command output.
func newLogger(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if strings.EqualFold(format, "console") {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(lvl).With().Timestamp().Logger()
}
