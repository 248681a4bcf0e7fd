package inspect

import (
	"cmp"
	"encoding/json"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// graphResponse is the /api/graph payload.
type graphResponse struct {
	Nodes []GraphNode `json:"nodes"`
	Count int         `json:"count"`
}

// Handler returns the inspector's HTTP surface:
//
//	GET /api/graph  - snapshot of known nodes
//	GET /api/stats  - aggregate counters
//	GET /ws         - WebSocket event stream
//
// Mount it on its own listener or under a route of an existing server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/api/graph", s.handleGraph)
	r.Get("/api/stats", s.handleStats)
	r.Get("/ws", s.handleWebSocket)
	return r
}

// handleGraph serves the node snapshot, ordered by ID.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	nodes := make([]GraphNode, 0, len(s.nodes))
	for _, n := range s.nodes {
		nodes = append(nodes, *n)
	}
	s.mu.RUnlock()

	slices.SortFunc(nodes, func(a, b GraphNode) int {
		return cmp.Compare(a.ID, b.ID)
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(graphResponse{Nodes: nodes, Count: len(nodes)})
}

// handleStats serves the collector snapshot.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.stats.Snapshot())
}
