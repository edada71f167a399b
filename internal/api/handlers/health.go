package handlers

import (
	"net/http"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/api"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/index"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/service"
)

// SnapshotProvider exposes the current index snapshot.
type SnapshotProvider interface {
	Snapshot() *service.Snapshot
}

type HealthHandler struct {
	state SnapshotProvider
}

func NewHealthHandler(state SnapshotProvider) *HealthHandler {
	return &HealthHandler{state: state}
}

type HealthResponse struct {
	Ready bool         `json:"ready"`
	Meta  index.Status `json:"meta"`
}

// Get reports readiness and the last index status. It always answers 200;
// a not-yet-ready index is a state, not a failure.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	api.JSON(w, http.StatusOK, HealthResponse{
		Ready: snap.Ready,
		Meta:  snap.Status,
	})
}
