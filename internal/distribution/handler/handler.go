// Package handler exposes the distribution endpoint.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dokflyt/internal/distribution"
	"dokflyt/internal/journalpost"
	"dokflyt/internal/platform/middleware"
	"dokflyt/internal/transport/http/shared"
	dErrors "dokflyt/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler_mocks.go -package=mocks Service

// Service defines the distribution operations the handler needs.
type Service interface {
	Distribute(ctx context.Context, journalpostID string, req distribution.Request) (*distribution.Result, error)
}

// Handler handles distribution endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates a distribution Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register registers the distribution routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/journalpost/{journalpostId}/distribuer", h.handleDistribute)
}

type distributeRequest struct {
	BatchID    string               `json:"batchId"`
	LocalPrint bool                 `json:"lokalUtskrift"`
	Address    *journalpost.Address `json:"adresse"`
}

type distributeResponse struct {
	TrackingID     string `json:"bestillingsId,omitempty"`
	AlreadyOrdered bool   `json:"alleredeBestilt"`
	Channel        string `json:"kanal"`
}

func (h *Handler) handleDistribute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	journalpostID := chi.URLParam(r, "journalpostId")

	var req distributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid distribute request",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.service.Distribute(ctx, journalpostID, distribution.Request{
		BatchID:    req.BatchID,
		LocalPrint: req.LocalPrint,
		Address:    req.Address,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "distribution order failed",
			"request_id", requestID,
			"journalpost_id", journalpostID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, distributeResponse{
		TrackingID:     result.TrackingID,
		AlreadyOrdered: result.AlreadyOrdered,
		Channel:        string(result.Channel),
	})
}
