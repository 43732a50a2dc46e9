package utils

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

const (
	DEFAULT_READ_TIMEOUT     = 60 * time.Second
	DEFAULT_WRITE_TIMEOUT    = DEFAULT_READ_TIMEOUT
	DEFAULT_SHUTDOWN_TIMEOUT = 30 * time.Second
)

// Server wraps http.Server to shut down gracefully on SIGINT/SIGTERM.
type Server struct {
	*http.Server

	signalChan   chan os.Signal
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	shuttingDown atomic.Bool
	shutdownErr  error
	onShutdown   []func(context.Context)
}

// NewServer creates a Server with timeouts and handler.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *Server {
	return &Server{
		Server: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		signalChan:   make(chan os.Signal, 1),
		shutdownChan: make(chan struct{}),
	}
}

// OnShutdown registers fn to run after the HTTP server has drained, in registration order.
func (srv *Server) OnShutdown(fn func(context.Context)) {
	srv.onShutdown = append(srv.onShutdown, fn)
}

// ListenAndServe starts serving on tcp and blocks until shutdown has completed.
func (srv *Server) ListenAndServe() error {
	addr := srv.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return srv.Serve(ln)
}

// Serve accepts connections on ln and blocks until shutdown has completed.
func (srv *Server) Serve(ln net.Listener) error {
	signal.Notify(srv.signalChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(srv.signalChan)
	done := make(chan struct{})
	defer close(done)
	go srv.handleSignals(done)

	if err := srv.Server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if !srv.shuttingDown.Load() {
		// closed through the embedded http.Server, no hooks to wait for
		return nil
	}
	<-srv.shutdownChan
	return nil
}

// Shutdown drains the HTTP server, then runs the shutdown hooks. Calls after the first
// return the first call's result.
func (srv *Server) Shutdown(ctx context.Context) error {
	srv.shutdownOnce.Do(func() {
		srv.shuttingDown.Store(true)
		srv.shutdownErr = srv.Server.Shutdown(ctx)
		for _, fn := range srv.onShutdown {
			fn(ctx)
		}
		close(srv.shutdownChan)
	})
	return srv.shutdownErr
}

func (srv *Server) handleSignals(done <-chan struct{}) {
	select {
	case sig := <-srv.signalChan:
		L().Sugar().Infof("received %s, graceful shutting down HTTP server", sig)
	case <-done:
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), DEFAULT_SHUTDOWN_TIMEOUT)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		L().Sugar().Errorf("HTTP server shutdown error: %v", err)
	} else {
		L().Sugar().Info("HTTP server shutdown success")
	}
}
