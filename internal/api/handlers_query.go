package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dgallion1/regrag/internal/retrieval"
)

const (
	defaultQueryN = 5
	maxQueryN     = 50
)

type queryRequest struct {
	Query string `json:"query"`
	N     int    `json:"n"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.N <= 0 {
		req.N = defaultQueryN
	}
	if req.N > maxQueryN {
		req.N = maxQueryN
	}

	results, err := s.retriever.Retrieve(r.Context(), strings.TrimSpace(req.Query), req.N)
	if err != nil {
		s.log.Error("query failed", "error", err)
		jsonError(w, "retrieval failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	if results == nil {
		results = []retrieval.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   req.Query,
		"results": results,
	})
}
