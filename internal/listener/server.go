package listener

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/godon-dev/godon-images/internal/observability"
)

type Server struct {
	name   string
	addr   string
	srv    *http.Server
	logger *observability.Logger
}

func NewServer(name, addr string, handler http.Handler, logger *observability.Logger) *Server {
	return &Server{
		name: name,
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Listen binds the address so bind errors surface before serving starts.
func (s *Server) Listen() (net.Listener, error) {
	return net.Listen("tcp", s.addr)
}

// Serve blocks until the server stops. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Infow("listening", "server", s.name, "addr", ln.Addr().String())
	return s.srv.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }
