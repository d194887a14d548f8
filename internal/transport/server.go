package transport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Service is the subset of node.Node the HTTP server drives. It is
// defined here, not imported from the node package, so transport has no
// import-cycle dependency on the package that depends on it for
// PeerClient.
type Service interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Put(ctx context.Context, key, value string, ttlSeconds int64, isReplica bool) error
	Remove(ctx context.Context, key string) error
}

// Server exposes a Service over HTTP+JSON, bounding concurrent request
// handling with a fixed-size worker pool.
type Server struct {
	svc     Service
	log     zerolog.Logger
	sem     chan struct{}
	handler http.Handler
}

// NewServer builds a Server. workerPoolSize bounds the number of
// concurrently executing Get/Put/Remove handlers; additional requests
// block until a slot frees up. reg, if non-nil, is exposed at /metrics.
func NewServer(svc Service, workerPoolSize int, reg *prometheus.Registry, log zerolog.Logger) *Server {
	if workerPoolSize <= 0 {
		workerPoolSize = 1
	}

	s := &Server{
		svc: svc,
		log: log.With().Str("component", "transport").Logger(),
		sem: make(chan struct{}, workerPoolSize),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/get", s.bounded(s.handleGet))
	mux.HandleFunc("/put", s.bounded(s.handlePut))
	mux.HandleFunc("/remove", s.bounded(s.handleRemove))
	if reg != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	s.handler = mux

	return s
}

// ServeHTTP lets Server be used directly with http.ListenAndServe.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// bounded wraps h so no more than the configured worker pool size of
// handlers run concurrently; it is the HTTP counterpart of the node's
// reference 12-thread handler bound.
func (s *Server) bounded(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.sem <- struct{}{}
		defer func() { <-s.sem }()
		h(w, r)
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	var req GetRequest
	if !decode(w, r, &req) {
		return
	}

	value, found, err := s.svc.Get(r.Context(), req.Key)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, GetResponse{Value: value, Found: found})
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	var req PutRequest
	if !decode(w, r, &req) {
		return
	}

	if err := s.svc.Put(r.Context(), req.Key, req.Value, req.TTLSeconds, req.IsReplica); err != nil {
		s.writeError(w, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, PutResponse{Success: true})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	var req RemoveRequest
	if !decode(w, r, &req) {
		return
	}

	if err := s.svc.Remove(r.Context(), req.Key); err != nil {
		s.writeError(w, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, RemoveResponse{Success: true})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: CodeInternal, Message: "malformed request body"})
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.log.Error().Str("code", code).Str("message", message).Msg("request failed")
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
