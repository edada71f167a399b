package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/api"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/service"
)

type ArchiveService interface {
	Archive(ctx context.Context, reportText string) (*service.ArchiveOutput, error)
}

type ArchiveHandler struct {
	svc ArchiveService
}

func NewArchiveHandler(svc ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{svc: svc}
}

type ArchiveRequest struct {
	Report string `json:"report"`
}

type ArchiveResponse struct {
	Key         string `json:"key"`
	DownloadURL string `json:"download_url,omitempty"`
}

func (h *ArchiveHandler) Archive(w http.ResponseWriter, r *http.Request) {
	var req ArchiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := h.svc.Archive(r.Context(), req.Report)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, ArchiveResponse{
		Key:         out.Key,
		DownloadURL: out.DownloadURL,
	})
}
