package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/VictoriaMetrics/metrics"
	"github.com/golang/glog"

	"github.com/robotalks/nxt.go/pkg/framework"
	"github.com/robotalks/nxt.go/pkg/nxt/comm"
)

// Server serves /metrics, /stats and /status.
type Server struct {
	Addr    string
	Hub     *Hub
	Tracker *comm.Tracker

	mux *http.ServeMux
}

// NewServer creates a Server.
func NewServer(addr string, hub *Hub, tracker *comm.Tracker) *Server {
	s := &Server{Addr: addr, Hub: hub, Tracker: tracker, mux: http.NewServeMux()}
	s.mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	s.mux.HandleFunc("/stats", s.serveStats)
	s.mux.Handle("/status", hub.Handler())
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type commandStat struct {
	Code          string `json:"code"`
	Count         uint64 `json:"count"`
	AverageMicros uint64 `json:"average_us"`
	MinimumMicros uint64 `json:"minimum_us"`
	WaitMicros    int64  `json:"wait_us"`
}

func (s *Server) serveStats(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.Tracker.Snapshot()
	stats := make([]commandStat, 0, len(snapshot))
	for _, st := range snapshot {
		stats = append(stats, commandStat{
			Code:          fmt.Sprintf("0x%02x", st.Code),
			Count:         st.Count,
			AverageMicros: st.AverageMicros,
			MinimumMicros: st.MinimumMicros,
			WaitMicros:    s.Tracker.MinimumWait(st.Code).Microseconds(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		glog.Warningf("encode stats: %v", err)
	}
}

// Run implements framework.Runnable.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	glog.Infof("HTTP listening on %s", ln.Addr())
	server := &http.Server{Handler: s}
	return framework.RunWithContextCloser(ctx, server, func() error {
		if err := server.Serve(ln); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
}
