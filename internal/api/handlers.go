package api

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

// Handler methods for routerHandlers
// These are used by both the standalone router (for testing) and the full Server.

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleGetState returns the same state message clients receive each tick
func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.GetSnapshot().State)
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	// Lock-free snapshot; never touches the world mutex
	snapshot := h.engine.GetSnapshot()
	stats := map[string]interface{}{
		"tick":        snapshot.TickNumber,
		"sequence":    snapshot.Sequence,
		"wave":        snapshot.State.Wave,
		"waveTimer":   snapshot.WaveTimer,
		"playerCount": snapshot.PlayerCount,
		"aliveCount":  snapshot.AliveCount,
		"enemyCount":  snapshot.EnemyCount,
		"totalKills":  h.engine.TotalKills(),
		"eventLog":    h.engine.GetEventLogStats(),
	}
	if h.connections != nil {
		stats["connections"] = h.connections.ClientCount()
		stats["input"] = h.connections.InputStats()
	}
	writeJSON(w, stats)
}

func (h *routerHandlers) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	n := defaultLeaderboardSize
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeError(w, "n must be a positive integer", http.StatusBadRequest)
			return
		}
		n = v
	}
	if n > maxLeaderboardSize {
		n = maxLeaderboardSize
	}

	writeJSON(w, h.engine.Leaderboard(n))
}

// handleGetPlayerRank returns one player's score and 1-based rank
func (h *routerHandlers) handleGetPlayerRank(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.engine.PlayerRank(chi.URLParam(r, "playerID"))
	if !ok {
		writeError(w, "player not found", http.StatusNotFound)
		return
	}
	writeJSON(w, entry)
}

func (h *routerHandlers) handleArenaPNG(w http.ResponseWriter, r *http.Request) {
	// Render into a buffer so a failure can still produce an error status
	var buf bytes.Buffer
	if err := h.renderer.RenderPNG(&buf, h.engine.GetSnapshot()); err != nil {
		log.Printf("⚠️ Arena render failed: %v", err)
		writeError(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
