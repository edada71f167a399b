package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/api"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/domain"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/service"
)

type ValidateService interface {
	Validate(ctx context.Context, input service.ValidateInput) (*domain.ValidationResult, error)
}

type ValidateHandler struct {
	svc ValidateService
}

func NewValidateHandler(svc ValidateService) *ValidateHandler {
	return &ValidateHandler{svc: svc}
}

type ValidateRequest struct {
	Answer    string            `json:"answer"`
	Report    string            `json:"report"`
	History   []domain.ChatTurn `json:"history"`
	KBContext string            `json:"kb_context"`
	Mode      string            `json:"mode"`
}

func (h *ValidateHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.Validate(r.Context(), service.ValidateInput{
		Answer:    req.Answer,
		Report:    req.Report,
		History:   req.History,
		KBContext: req.KBContext,
		Mode:      req.Mode,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, result)
}
