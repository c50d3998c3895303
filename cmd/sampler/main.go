package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"wifi-sampler/pkg/sampler"
)

func main() {
	var opts sampler.Options
	flag.StringVar(&opts.ConfigPath, "config", "config/sampler.yaml", "path to YAML config")
	flag.StringVar(&opts.Variant, "variant", "", "override the uplink variant (http or lora)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "override log.level")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigCh
		log.Info().Str("signal", s.String()).Msg("shutting down")
		cancel()
	}()

	if err := sampler.Run(ctx, opts); err != nil {
		log.Fatal().Err(err).Msg("sampler exited with error")
	}
}
