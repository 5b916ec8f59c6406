// Command animbake plays clips of a glTF asset headlessly at a fixed rate and writes the sampled
// property values as YAML.
//
// Usage:
//
//	animbake -i rig.glb --play walk -r 60 -o walk.yaml
//	animbake -c bake.yaml --library clips.db --import
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "animbake:", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		common.Logger().Error().Err(err).Msg("bake failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, stdout, stderr io.Writer) error {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	common.SetLogger(zerolog.New(zerolog.ConsoleWriter{Out: stderr}).Level(level).With().Timestamp().Logger())

	switch cfg.Profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(cfg.ProfilePath), profile.NoShutdownHook, profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath(cfg.ProfilePath), profile.NoShutdownHook, profile.Quiet).Stop()
	}

	out, err := bake(ctx, cfg)
	if err != nil {
		return err
	}
	if err := writeOutput(out, cfg.Output, stdout); err != nil {
		return err
	}
	common.Logger().Info().Int("frames", out.Frames).Int("tracks", len(out.Tracks)).Int("events", len(out.Events)).Str("output", cfg.Output).Msg("bake written")
	return nil
}
