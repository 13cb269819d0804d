// mockbackend serves an in-memory HR API for running the console locally.
//
//	mockbackend --addr :8081 --seed ./seed.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jrsteele09/go-hr-console/internal/mockbackend"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal().Err(err).Msg("Mock backend failed")
	}
}

func run(args []string) error {
	var (
		addr     string
		prefix   string
		seedPath string
		secret   string
		tokenTTL time.Duration
	)
	flags := pflag.NewFlagSet("mockbackend", pflag.ContinueOnError)
	flags.StringVar(&addr, "addr", ":8081", "listen address")
	flags.StringVar(&prefix, "prefix", "/api", "path prefix the API is mounted under")
	flags.StringVar(&seedPath, "seed", "", "YAML seed file (default: built-in demo accounts)")
	flags.StringVar(&secret, "secret", "", "token signing secret (default: random per run)")
	flags.DurationVar(&tokenTTL, "token-ttl", 8*time.Hour, "lifetime of issued bearer tokens")
	if err := flags.Parse(args); err != nil {
		return err
	}

	opts := []mockbackend.Option{
		mockbackend.WithTokenTTL(tokenTTL),
		mockbackend.WithLogger(log.Logger),
	}
	if seedPath != "" {
		seed, err := mockbackend.LoadSeedFile(seedPath)
		if err != nil {
			return err
		}
		opts = append(opts, mockbackend.WithSeed(seed))
	}
	if secret != "" {
		opts = append(opts, mockbackend.WithSecret([]byte(secret)))
	}

	backend, err := mockbackend.New(opts...)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle(prefix+"/", http.StripPrefix(prefix, backend.Handler()))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("Mock backend listening on %s%s", addr, prefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server.ListenAndServe %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
