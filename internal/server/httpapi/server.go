package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/parametrik/internal/logging"
)

const shutdownTimeout = 10 * time.Second

type HTTPServer struct {
	address string
	handler *Handler
	logger  logging.Logger
}

func NewHTTPServer(a string, l logging.Logger, us UserService) *HTTPServer {
	l = l.With("module", "http_server")
	return &HTTPServer{
		address: a,
		handler: NewHandler(us, l),
		logger:  l,
	}
}

// Routes returns the full handler chain.
func (s *HTTPServer) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/users", s.handler.CreateUser)
	mux.HandleFunc("POST /v1/user_tokens", s.handler.CreateUserToken)
	mux.Handle("GET /v1/me", s.handler.RequireBearer(http.HandlerFunc(s.handler.Me)))
	mux.HandleFunc("GET /health", s.handler.Health)

	var h http.Handler = mux
	h = Recovery(s.logger)(h)
	h = Logging(s.logger)(h)
	h = RequestID(h)
	return h
}

// Run listens on the configured address and serves until ctx is done.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then drains in-flight
// requests for up to shutdownTimeout.
func (s *HTTPServer) Serve(ctx context.Context, lis net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(sctx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-shutdownErr
}
