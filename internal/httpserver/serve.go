// Package httpserver runs an http.Server with context-driven graceful
// shutdown.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/quillauth/quillauth/internal/logutil"
)

const shutdownGrace = 30 * time.Second

// Serve listens on bind and serves handler until ctx is cancelled, then
// shuts down gracefully. It blocks until the server has stopped and returns
// the first listener error, or nil on a clean shutdown.
func Serve(ctx context.Context, bind string, handler http.Handler) error {
	server := &http.Server{
		Handler:           handler,
		Addr:              bind,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       5 * time.Minute,
	}
	log := logutil.GetOrDefault(ctx).With().Str("server.addr", bind).Logger()

	listenErr := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting HTTP server")
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		listenErr <- err
	}()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Initiating shutdown process")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("Shutdown completed")
	return <-listenErr
}
