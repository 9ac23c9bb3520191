package kit

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const readHeaderTimeout = 5 * time.Second

// RunHTTPServer serves h until ctx is done, then shuts down gracefully
// within shutdownTimeout.
func RunHTTPServer(ctx context.Context, addr string, h http.Handler, log *zap.Logger, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return Serve(ctx, ln, h, log, shutdownTimeout)
}

func Serve(ctx context.Context, ln net.Listener, h http.Handler, log *zap.Logger, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested", zap.Error(context.Cause(ctx)))
	case err := <-errCh:
		return err
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("http server stopped")
	return nil
}
