package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"k8s.io/klog/v2"
)

const shutdownTimeout = 30 * time.Second

// Serve runs h on :port until ctx is cancelled, then shuts down gracefully.
// No write timeout is set: agent runs routinely take longer than a minute.
func Serve(ctx context.Context, name, port string, h http.Handler) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		klog.InfoS(name+" listening on", "port", port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	klog.InfoS("shutting down", "service", name)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
