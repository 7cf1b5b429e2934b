package trans

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/ayanworks/arnima-agent-go/agent/dispatch"
	"github.com/golang/glog"
)

// Server is the inbound HTTP endpoint for agents reachable on a public
// address. Every posted wire message lands in the inbox; decryption and
// routing happen in the dispatch loop, never in the request handler.
type Server struct {
	srv *http.Server
}

func StartServer(addr string, loop *dispatch.Loop) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "read failed", http.StatusBadRequest)
			return
		}
		if err := loop.Add(body); err != nil {
			glog.Errorln("queueing inbound message:", err)
			http.Error(w, "queueing failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	s := &Server{srv: &http.Server{Addr: addr, Handler: mux}}
	go func() {
		glog.V(1).Infoln("inbound server at", addr)
		if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			glog.Errorln("inbound server:", err)
		}
	}()
	return s
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		glog.Warningln("inbound server shutdown:", err)
	}
}
