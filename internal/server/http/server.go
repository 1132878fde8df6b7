package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/runlog/runlog/internal/runtime"
	"github.com/runlog/runlog/internal/server/http/controllers"
	runsvc "github.com/runlog/runlog/internal/services/runs"
)

// Server exposes the run store's tool-call boundary over HTTP JSON.
type Server struct {
	rt  *runtime.Runtime
	srv *http.Server
	lis net.Listener
}

// New builds the Server and registers all routes.
func New(rt *runtime.Runtime) *Server {
	mux := http.NewServeMux()
	s := &Server{rt: rt, srv: &http.Server{Handler: cors(mux)}}
	registry := controllers.NewControllerRegistry(rt, runsvc.New(rt))
	registry.RegisterAllRoutes(mux)
	return s
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

// Handler returns the root handler, CORS wrapping included.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Close releases the listener.
func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
