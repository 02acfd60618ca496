package api

import (
	"net/http"

	"github.com/dgallion1/regrag/internal/llm"
)

type providerStats struct {
	Name  string            `json:"name"`
	Model string            `json:"model"`
	Stats llm.StatsSnapshot `json:"stats"`
}

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if len(s.llm) == 0 {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}
	out := make([]providerStats, 0, len(s.llm))
	for _, p := range s.llm {
		if p.Stats == nil {
			continue
		}
		out = append(out, providerStats{Name: p.Name, Model: p.Model, Stats: p.Stats.Snapshot()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": out})
}
