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
	"github.com/jrsteele09/go-token-auth/auth"
	"github.com/jrsteele09/go-token-auth/internal/config"
	"github.com/jrsteele09/go-token-auth/internal/metrics"
	"github.com/jrsteele09/go-token-auth/internal/setup"
	"github.com/jrsteele09/go-token-auth/server"
	"github.com/jrsteele09/go-token-auth/token"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults to $CONFIG_FILE)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
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
	displayAppname(c.GetAppName())

	handler, closeRepo, err := newHandler(c)
	if err != nil {
		return err
	}
	defer closeRepo()

	server := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(server) }()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

func newHandler(c config.Config) (http.Handler, func() error, error) {
	k, err := setup.SigningKeys(c)
	if err != nil {
		return nil, nil, err
	}
	issuer, err := setup.Issuer(c, k.Signing)
	if err != nil {
		return nil, nil, err
	}
	verifier, err := token.NewVerifier(k.Verification)
	if err != nil {
		return nil, nil, err
	}

	userRepo, closeRepo, err := setup.UserRepo(c)
	if err != nil {
		return nil, nil, err
	}

	recorder := metrics.NewRecorder()
	service, err := auth.NewService(userRepo, issuer, verifier,
		auth.WithLogger(log.Logger),
		auth.WithObserver(recorder),
	)
	if err != nil {
		_ = closeRepo()
		return nil, nil, err
	}

	s, err := server.New(c, server.Deps{
		Auth:     service,
		Verifier: verifier,
		Users:    userRepo,
		JWKS:     k.JWKS,
		Metrics:  recorder,
	})
	if err != nil {
		_ = closeRepo()
		return nil, nil, err
	}
	return s, closeRepo, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
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
