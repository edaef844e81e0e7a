// Package http exposes the CBM's substrate-matching queries over REST,
// using go-chi the way the teacher's interfaces/http layer routes its
// handlers, kept deliberately thin: this layer only translates requests
// into pkg/cbm calls and modelerrors.Kind into status codes.
package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fabric-testbed/InformationModel-sub001/internal/logging"
	"github.com/fabric-testbed/InformationModel-sub001/internal/tracing"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/cbm"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/graph"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/modelerrors"
)

// Server wires a *cbm.CBM into an http.Handler.
type Server struct {
	cbm    *cbm.CBM
	logger *zap.Logger
	router chi.Router
}

// NewServer builds a chi router with query endpoints for the given CBM,
// plus a /metrics endpoint serving reg (nil to omit it). Every query
// handler runs inside an internal/tracing span so a configured OTLP
// exporter sees the query's latency alongside the CBM's own operations.
// A nil logger is replaced with a no-op one.
func NewServer(c *cbm.CBM, logger *zap.Logger, reg *prometheus.Registry) *Server {
	s := &Server{cbm: c, logger: logging.NopIfNil(logger)}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/nodes", s.handleNodesMatching)
	r.Get("/intersite-links", s.handleIntersiteLinks)
	r.Get("/path", s.handlePathWithHops)
	if reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleNodesMatching(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.Start(r.Context(), "cbm.nodes_matching")
	defer span.End()

	q := r.URL.Query()
	class := graph.Class(q.Get("class"))
	if class == "" {
		class = graph.ClassNetworkNode
	}

	want := map[string]string{}
	if site := q.Get("site"); site != "" {
		want[graph.PropSite] = site
	}

	var required []cbm.ComponentRequest
	for _, rt := range q["component"] {
		required = append(required, cbm.ComponentRequest{Type: rt})
	}

	matches, err := s.cbm.NodesMatching(ctx, class, want, required)
	writeResult(w, s.logger, matches, err)
}

func (s *Server) handleIntersiteLinks(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.Start(r.Context(), "cbm.intersite_links")
	defer span.End()

	links, err := s.cbm.IntersiteLinks(ctx)
	writeResult(w, s.logger, links, err)
}

func (s *Server) handlePathWithHops(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.Start(r.Context(), "cbm.path_with_hops")
	defer span.End()

	q := r.URL.Query()
	a, z := q.Get("a"), q.Get("z")
	hops := q["hop"]

	cutoff := -1
	if raw := q.Get("cutoff"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid cutoff", http.StatusBadRequest)
			return
		}
		cutoff = parsed
	}

	path, err := s.cbm.PathWithHops(ctx, a, z, hops, cutoff)
	writeResult(w, s.logger, path, err)
}

func writeResult(w http.ResponseWriter, logger *zap.Logger, result interface{}, err error) {
	if err != nil {
		status := http.StatusInternalServerError
		if modelerrors.Of(err, modelerrors.NotFound) {
			status = http.StatusNotFound
		}
		logger.Error("query failed", zap.Error(err))
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.Error("encoding response", zap.Error(err))
	}
}
