package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-token-auth/client"
	"github.com/jrsteele09/go-token-auth/internal/config"
	"github.com/jrsteele09/go-token-auth/internal/setup"
	"github.com/jrsteele09/go-token-auth/portal"
	"github.com/jrsteele09/go-token-auth/token"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults to $CONFIG_FILE)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Error running portal")
	}
	log.Info().Msg("Portal stopped")
}

func run(configPath string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := setup.Logging(c); err != nil {
		return err
	}
	displayAppname(c.GetAppName() + " Portal")

	key, err := setup.VerificationKey(c)
	if err != nil {
		return err
	}
	verifier, err := token.NewVerifier(key)
	if err != nil {
		return err
	}

	store, closeStore, err := portal.NewStore(c)
	if err != nil {
		return err
	}
	defer closeStore()
	log.Info().Str("mode", c.GetSessionMode()).Str("backend", c.GetSessionBackend()).Msg("Session store ready")

	httpClient := &http.Client{Timeout: 10 * time.Second}
	p, err := portal.New(c, portal.Deps{
		Store:   store,
		Checker: verifier,
		ClientOptions: []client.Option{
			client.WithHTTPClient(httpClient),
			client.WithLogger(log.Logger),
		},
	})
	if err != nil {
		return err
	}

	server := &http.Server{Addr: c.GetPortalPort(), Handler: p, ReadHeaderTimeout: 10 * time.Second}
	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(server) }()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Portal listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
