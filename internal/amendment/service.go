// Package amendment applies caseworker edits to a journalpost and performs
// journalization when a case is linked. Edits to the return log are
// validated against the locked-history rules before anything is persisted.
package amendment

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"dokflyt/internal/archive"
	"dokflyt/internal/journalpost"
	"dokflyt/internal/metadata"
	"dokflyt/internal/returnlog"
	dErrors "dokflyt/pkg/domain-errors"
	audit "dokflyt/pkg/platform/audit"
)

var tracer = otel.Tracer("dokflyt/internal/amendment")

// Publisher broadcasts journalpost changes.
type Publisher interface {
	JournalpostUpdated(ctx context.Context, journalpostID string) error
}

// Auditor records audit events.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Requester identifies the caseworker amending the journalpost.
type Requester struct {
	Ident string
	Unit  string
}

// Command carries the requested edits. Nil fields stay untouched.
type Command struct {
	Title          *string
	Theme          *string
	Sender         *journalpost.Party
	DocumentTitles map[string]string

	// Cases to link. Already-linked cases are skipped.
	Cases []journalpost.Case

	// Journalize finalizes the journalpost with the requester's unit when it
	// is still in Received.
	Journalize bool

	ReturnLogEdits []returnlog.Edit
}

// Warning reports a best-effort step that failed after the primary update
// succeeded.
type Warning struct {
	Step    string `json:"steg"`
	Message string `json:"melding"`
}

// Result reports what the amendment did.
type Result struct {
	Journalized bool      `json:"journalfoert"`
	LinkedCases []string  `json:"tilknyttedeSaker"`
	Warnings    []Warning `json:"advarsler,omitempty"`
}

// Service applies amendments.
type Service struct {
	reader    archive.Reader
	writer    archive.Writer
	publisher Publisher
	codec     metadata.Codec
	auditor   Auditor
	logger    *slog.Logger

	now func() time.Time
}

// NewService wires the amendment service.
func NewService(reader archive.Reader, writer archive.Writer, publisher Publisher, codec metadata.Codec, auditor Auditor, logger *slog.Logger) *Service {
	return &Service{
		reader:    reader,
		writer:    writer,
		publisher: publisher,
		codec:     codec,
		auditor:   auditor,
		logger:    logger,
		now:       time.Now,
	}
}

// Amend validates and persists the command. Steps after the primary field
// update are best-effort and surface as warnings in the result.
func (s *Service) Amend(ctx context.Context, journalpostID string, cmd Command, requester Requester) (*Result, error) {
	ctx, span := tracer.Start(ctx, "amendment.Amend")
	defer span.End()
	span.SetAttributes(attribute.String("journalpost.id", journalpostID))

	jp, err := s.reader.Get(ctx, journalpostID)
	if err != nil {
		return nil, err
	}

	log, err := returnlog.Load(s.codec, jp.Metadata)
	if err != nil {
		return nil, err
	}
	if err := returnlog.ValidateEdits(jp, log, cmd.ReturnLogEdits, s.now()); err != nil {
		return nil, err
	}

	patch := archive.Patch{
		Title:          cmd.Title,
		Theme:          cmd.Theme,
		Sender:         cmd.Sender,
		DocumentTitles: cmd.DocumentTitles,
	}
	if len(cmd.ReturnLogEdits) > 0 {
		if err := returnlog.ApplyEdits(log, cmd.ReturnLogEdits); err != nil {
			return nil, err
		}
		pairs, err := log.Apply(jp.Metadata.Clone())
		if err != nil {
			return nil, err
		}
		patch.Metadata = pairs
	}

	if err := s.writer.Update(ctx, jp.ID, patch); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDownstream, "persist amendment")
	}

	result := &Result{}
	if cmd.Journalize && jp.Status == journalpost.StatusReceived {
		if err := s.journalize(ctx, jp, requester, result); err != nil {
			return nil, err
		}
	}

	s.linkCases(ctx, jp, cmd.Cases, result)

	if jp.Type == journalpost.TypeIncoming {
		if err := s.publisher.JournalpostUpdated(ctx, jp.ID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// journalize finalizes the journalpost and records the acting caseworker.
// The identity record is best-effort: the finalization is already
// irreversible in the archive.
func (s *Service) journalize(ctx context.Context, jp *journalpost.Journalpost, requester Requester, result *Result) error {
	if err := s.writer.Finalize(ctx, jp.ID, requester.Unit); err != nil {
		return dErrors.Wrap(err, dErrors.CodeDownstream, "finalize journalpost")
	}
	result.Journalized = true
	jp.Status = journalpost.StatusJournalized

	stamped := jp.Metadata.Clone().Set(journalpost.KeyJournalizedBy, requester.Ident)
	if err := s.writer.Update(ctx, jp.ID, archive.Patch{Metadata: stamped}); err != nil {
		s.logger.WarnContext(ctx, "caseworker identity not recorded after journalization",
			"journalpost_id", jp.ID,
			"error", err.Error(),
		)
		result.Warnings = append(result.Warnings, Warning{
			Step:    "journalfoertAv",
			Message: err.Error(),
		})
	}

	s.emitAudit(ctx, jp.ID, requester)
	return nil
}

// linkCases links every requested case not already linked, when the
// journalpost can accept links (no link yet, or now journalized). Failures
// surface as warnings.
func (s *Service) linkCases(ctx context.Context, jp *journalpost.Journalpost, cases []journalpost.Case, result *Result) {
	if len(cases) == 0 {
		return
	}
	if jp.Case != nil && !jp.IsJournalized() {
		result.Warnings = append(result.Warnings, Warning{
			Step:    "sakstilknytning",
			Message: "journalpost already linked and not journalized; cases not linked",
		})
		return
	}

	for _, c := range cases {
		if jp.Case != nil && jp.Case.ID == c.ID {
			continue
		}
		if err := s.writer.LinkCase(ctx, jp.ID, c); err != nil {
			s.logger.WarnContext(ctx, "case link failed",
				"journalpost_id", jp.ID,
				"case_id", c.ID,
				"error", err.Error(),
			)
			result.Warnings = append(result.Warnings, Warning{
				Step:    "sakstilknytning",
				Message: err.Error(),
			})
			continue
		}
		result.LinkedCases = append(result.LinkedCases, c.ID)
	}
}

func (s *Service) emitAudit(ctx context.Context, journalpostID string, requester Requester) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		JournalpostID: journalpostID,
		Action:        string(audit.EventJournalpostFinalized),
		Actor:         requester.Ident,
		Unit:          requester.Unit,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"journalpost_id", journalpostID,
			"error", err.Error(),
		)
	}
}
