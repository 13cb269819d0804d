package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-hr-console/credentials"
	"github.com/jrsteele09/go-hr-console/internal/config"
	"github.com/jrsteele09/go-hr-console/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	sweepInterval  = 10 * time.Minute
	browserMaxIdle = time.Hour
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running console")
	}
	log.Info().Msg("Console stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("Recovered from panic: %v", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	if !c.IsDevelopment() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory, err := credentialFactory(ctx, c)
	if err != nil {
		return err
	}
	if factory.Redis != nil {
		defer factory.Redis.Close()
	}

	handler, err := server.New(c, factory)
	if err != nil {
		return err
	}
	if factory.Durable() {
		go sweepBrowsers(ctx, handler)
	}

	srv := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		errCh <- listenAndServe(srv)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	return shutdown(srv)
}

// credentialFactory selects where browsers keep their credentials
func credentialFactory(ctx context.Context, c config.Config) (credentials.Factory, error) {
	factory := credentials.Factory{
		Kind: c.GetCredentialBackend(),
		Dir:  c.GetCredentialDir(),
		TTL:  c.GetCredentialTTL(),
	}
	if factory.Kind == credentials.KindRedis {
		client, err := credentials.NewRedisClient(ctx, c.GetRedisURL())
		if err != nil {
			return credentials.Factory{}, err
		}
		factory.Redis = client
	}
	log.Info().
		Str("env", c.GetEnv()).
		Str("backend", factory.Kind).
		Str("api", c.GetBackendURL()).
		Msg("Credential storage selected")
	return factory, nil
}

// sweepBrowsers drops browsers that have been idle for a while. Their
// credentials stay in file or Redis storage and rehydrate on the next visit.
func sweepBrowsers(ctx context.Context, console *server.Server) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := console.SweepIdle(browserMaxIdle); n > 0 {
				log.Debug().Int("browsers", n).Msg("Swept idle browsers")
			}
		}
	}
}

func listenAndServe(srv *http.Server) error {
	log.Info().Msgf("Console listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
