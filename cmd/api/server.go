package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"
)

// shutdownTimeout is how long in-flight requests get to finish once a stop
// signal arrives.
const shutdownTimeout = 5 * time.Second

// serve runs the HTTP server until SIGINT or SIGTERM, then drains it.
func (app *application) serve() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return app.serveUntil(ctx)
}

// serveUntil runs the HTTP server until ctx is done.
func (app *application) serveUntil(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", app.config.Port),
		Handler:      app.routes(ctx),
		ErrorLog:     log.New(app.logger, "", 0),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	listenErr := make(chan error, 1)

	go func() {
		app.logger.PrintInfo("starting server", map[string]string{
			"addr": srv.Addr,
			"env":  app.config.Env,
		})
		listenErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-listenErr:
		// The listener died before anyone asked us to stop.
		return err
	case <-ctx.Done():
	}

	app.logger.PrintInfo("shutting down server", map[string]string{
		"addr":    srv.Addr,
		"timeout": shutdownTimeout.String(),
	})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if err := <-listenErr; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	app.logger.PrintInfo("stopped server", map[string]string{
		"addr": srv.Addr,
	})

	return nil
}
