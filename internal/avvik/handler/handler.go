// Package handler exposes the deviation endpoints.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dokflyt/internal/avvik"
	"dokflyt/internal/platform/middleware"
	"dokflyt/internal/transport/http/shared"
	dErrors "dokflyt/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler_mocks.go -package=mocks Service

// Service defines the deviation operations the handler needs.
type Service interface {
	Eligible(ctx context.Context, journalpostID string) ([]avvik.Kind, error)
	Execute(ctx context.Context, journalpostID string, req avvik.Request, requester avvik.Requester) (*avvik.Ack, error)
}

// Handler handles deviation endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates a deviation Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register registers the deviation routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/journalpost/{journalpostId}/avvik", h.handleEligible)
	r.Post("/journalpost/{journalpostId}/avvik", h.handleExecute)
}

type eligibleResponse struct {
	Kinds []avvik.Kind `json:"avvikstyper"`
}

func (h *Handler) handleEligible(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	journalpostID := chi.URLParam(r, "journalpostId")

	kinds, err := h.service.Eligible(ctx, journalpostID)
	if err != nil {
		h.logger.WarnContext(ctx, "eligibility lookup failed",
			"request_id", middleware.GetRequestID(ctx),
			"journalpost_id", journalpostID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	if kinds == nil {
		kinds = []avvik.Kind{}
	}

	shared.WriteJSON(w, http.StatusOK, eligibleResponse{Kinds: kinds})
}

func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	journalpostID := chi.URLParam(r, "journalpostId")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unreadable request body"))
		return
	}

	req, err := avvik.ParseRequest(body)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid deviation request",
			"request_id", requestID,
			"journalpost_id", journalpostID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	caller := middleware.GetCaller(ctx)
	ack, err := h.service.Execute(ctx, journalpostID, req, avvik.Requester{
		Ident: caller.Ident,
		Unit:  caller.Unit,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "deviation failed",
			"request_id", requestID,
			"journalpost_id", journalpostID,
			"kind", string(req.Kind()),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, ack)
}
