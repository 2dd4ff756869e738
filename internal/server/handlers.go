package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/scrypster/reverie/internal/agent"
	"github.com/scrypster/reverie/pkg/types"
)

// Handlers bundles the API endpoints around one agent.
type Handlers struct {
	agent *agent.Agent
}

// NewHandlers creates the handler set.
func NewHandlers(a *agent.Agent) *Handlers {
	return &Handlers{agent: a}
}

type thinkRequest struct {
	Thought string `json:"thought"`
}

// Think ingests one thought and returns the pipeline result.
func (h *Handlers) Think(w http.ResponseWriter, r *http.Request) {
	var req thinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.agent.Process(r.Context(), req.Thought)
	if err != nil {
		if types.IsValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("server: processing failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to process thought")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Search runs a keyword search over saved thoughts.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing q parameter")
		return
	}

	thoughts, err := h.agent.Search(r.Context(), query, queryLimit(r, 10))
	if err != nil {
		log.Printf("server: search failed: %v", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": thoughts})
}

// Resurface returns thoughts due for spaced-repetition review.
func (h *Handlers) Resurface(w http.ResponseWriter, r *http.Request) {
	thoughts, err := h.agent.ResurfaceQueue(r.Context(), queryLimit(r, 5))
	if err != nil {
		log.Printf("server: resurface failed: %v", err)
		writeError(w, http.StatusInternalServerError, "resurface failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"due": thoughts})
}

type reviewRequest struct {
	Rating string `json:"rating"`
}

// Review marks one thought reviewed with a rating of easy, medium, or hard.
func (h *Handlers) Review(w http.ResponseWriter, r *http.Request) {
	thoughtID := r.PathValue("id")
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	thought, err := h.agent.MarkReviewed(r.Context(), thoughtID, req.Rating)
	if err != nil {
		if types.IsValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("server: review failed for %s: %v", thoughtID, err)
		writeError(w, http.StatusInternalServerError, "review failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"thought_id":   thought.ID,
		"review_count": thought.ReviewCount,
		"ease_factor":  thought.EaseFactor,
		"next_review":  agent.NextReviewAt(thought),
	})
}

// Briefing composes the daily digest.
func (h *Handlers) Briefing(w http.ResponseWriter, r *http.Request) {
	text, err := h.agent.Briefing(r.Context())
	if err != nil {
		log.Printf("server: briefing failed: %v", err)
		writeError(w, http.StatusInternalServerError, "briefing failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"briefing": text})
}

// Stats reports store-level counts.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.agent.Stats(r.Context())
	if err != nil {
		log.Printf("server: stats failed: %v", err)
		writeError(w, http.StatusInternalServerError, "stats failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// SynthesisStatus reports the background task for a thought.
func (h *Handlers) SynthesisStatus(w http.ResponseWriter, r *http.Request) {
	thoughtID := r.PathValue("id")
	task, ok := h.agent.SynthesisStatus(thoughtID)
	if !ok {
		writeError(w, http.StatusNotFound, "no synthesis task for thought")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	if limit > 100 {
		limit = 100
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("server: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
