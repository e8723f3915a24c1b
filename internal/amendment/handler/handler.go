// Package handler exposes the amendment endpoint.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"dokflyt/internal/amendment"
	"dokflyt/internal/journalpost"
	"dokflyt/internal/platform/middleware"
	"dokflyt/internal/returnlog"
	"dokflyt/internal/transport/http/shared"
	dErrors "dokflyt/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler_mocks.go -package=mocks Service

// Service defines the amendment operations the handler needs.
type Service interface {
	Amend(ctx context.Context, journalpostID string, cmd amendment.Command, requester amendment.Requester) (*amendment.Result, error)
}

// Handler handles the amendment endpoint.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates an amendment Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register registers the amendment route with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Put("/journalpost/{journalpostId}", h.handleAmend)
}

type amendRequest struct {
	Title          *string              `json:"tittel"`
	Theme          *string              `json:"tema"`
	Sender         *journalpost.Party   `json:"avsender"`
	DocumentTitles map[string]string    `json:"dokumenttitler"`
	Cases          []amendCase          `json:"saker"`
	Journalize     bool                 `json:"journalfoer"`
	ReturnLogEdits []amendReturnLogEdit `json:"returlogg"`
}

type amendCase struct {
	ID    string `json:"sakId"`
	Theme string `json:"tema"`
}

type amendReturnLogEdit struct {
	EntryIndex  *int      `json:"indeks"`
	Description string    `json:"beskrivelse"`
	Date        time.Time `json:"dato"`
}

func (h *Handler) handleAmend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	journalpostID := chi.URLParam(r, "journalpostId")

	var req amendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid amendment request",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	cmd := amendment.Command{
		Title:          req.Title,
		Theme:          req.Theme,
		Sender:         req.Sender,
		DocumentTitles: req.DocumentTitles,
		Journalize:     req.Journalize,
	}
	for _, c := range req.Cases {
		cmd.Cases = append(cmd.Cases, journalpost.Case{ID: c.ID, Theme: c.Theme})
	}
	for _, e := range req.ReturnLogEdits {
		cmd.ReturnLogEdits = append(cmd.ReturnLogEdits, returnlog.Edit{
			EntryIndex:  e.EntryIndex,
			Description: e.Description,
			Date:        e.Date,
		})
	}

	caller := middleware.GetCaller(ctx)
	result, err := h.service.Amend(ctx, journalpostID, cmd, amendment.Requester{
		Ident: caller.Ident,
		Unit:  caller.Unit,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "amendment failed",
			"request_id", requestID,
			"journalpost_id", journalpostID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, result)
}
