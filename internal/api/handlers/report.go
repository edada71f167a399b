package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/api"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/domain"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/index"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/service"
)

type SummarizeService interface {
	Summarize(ctx context.Context, input service.SummarizeInput) (*service.SummarizeOutput, error)
}

type ChatService interface {
	Chat(ctx context.Context, input service.ChatInput) (*service.ChatOutput, error)
}

type ReportHandler struct {
	summarize SummarizeService
	chat      ChatService
}

func NewReportHandler(summarize SummarizeService, chat ChatService) *ReportHandler {
	return &ReportHandler{summarize: summarize, chat: chat}
}

type SummarizeRequest struct {
	Report string `json:"report"`
	UseKB  *bool  `json:"use_kb"` // defaults to true when omitted
}

type SummarizeResponse struct {
	Text       string                   `json:"text"`
	Risks      *domain.RiskReport       `json:"risks"`
	RiskNotes  string                   `json:"risk_notes"`
	Validation *domain.ValidationResult `json:"validation,omitempty"`
	Ready      bool                     `json:"ready"`
	Meta       index.Status             `json:"meta"`
}

type ChatRequest struct {
	Question string            `json:"question"`
	Report   string            `json:"report"`
	UseKB    *bool             `json:"use_kb"` // defaults to true when omitted
	History  []domain.ChatTurn `json:"history"`
}

type ChatResponse struct {
	Text       string                   `json:"text"`
	Validation *domain.ValidationResult `json:"validation,omitempty"`
	Ready      bool                     `json:"ready"`
	Meta       *index.Status            `json:"meta,omitempty"`
}

func useKB(flag *bool) bool {
	if flag == nil {
		return true
	}
	return *flag
}

func (h *ReportHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := h.summarize.Summarize(r.Context(), service.SummarizeInput{
		Report: req.Report,
		UseKB:  useKB(req.UseKB),
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, SummarizeResponse{
		Text:       out.Text,
		Risks:      out.Risks,
		RiskNotes:  out.RiskNotes,
		Validation: out.Validation,
		Ready:      out.Ready,
		Meta:       out.Meta,
	})
}

func (h *ReportHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := h.chat.Chat(r.Context(), service.ChatInput{
		Question: req.Question,
		Report:   req.Report,
		UseKB:    useKB(req.UseKB),
		History:  req.History,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := ChatResponse{
		Text:       out.Text,
		Validation: out.Validation,
		Ready:      out.Ready,
	}
	if out.Ready {
		meta := out.Meta
		resp.Meta = &meta
	}
	api.JSON(w, http.StatusOK, resp)
}
