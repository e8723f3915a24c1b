package avvik

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"dokflyt/internal/archive"
	"dokflyt/internal/avvik/metrics"
	"dokflyt/internal/distribution"
	"dokflyt/internal/journalpost"
	"dokflyt/internal/metadata"
	"dokflyt/internal/person"
	"dokflyt/internal/returnlog"
	"dokflyt/internal/task"
	dErrors "dokflyt/pkg/domain-errors"
	audit "dokflyt/pkg/platform/audit"
)

var tracer = otel.Tracer("dokflyt/internal/avvik")

// Redistributor is the slice of the distribution service the dispatcher
// needs.
type Redistributor interface {
	OrderRedistribution(ctx context.Context, jp *journalpost.Journalpost, address *journalpost.Address) (*distribution.Result, error)
}

// Publisher broadcasts journalpost changes.
type Publisher interface {
	JournalpostUpdated(ctx context.Context, journalpostID string) error
}

// Auditor records audit events.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Ack acknowledges a handled deviation, echoing its kind.
type Ack struct {
	Kind Kind `json:"avvikstype"`
}

// Options carries the organizational constants the handlers need.
type Options struct {
	// BackOfficeUnit receives follow-up tasks for scanning corrections.
	BackOfficeUnit string

	// OwnThemes is the agency's own theme set; theme changes out of it fork
	// into duplicate records instead of plain re-links.
	OwnThemes []string
}

// Params wires a Service.
type Params struct {
	Reader        archive.Reader
	Writer        archive.Writer
	Tasks         task.Store
	Persons       person.Registry
	Redistributor Redistributor
	Publisher     Publisher
	Codec         metadata.Codec
	Auditor       Auditor
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
	Options       Options
}

// Service dispatches deviation requests.
type Service struct {
	reader        archive.Reader
	writer        archive.Writer
	tasks         task.Store
	persons       person.Registry
	redistributor Redistributor
	publisher     Publisher
	codec         metadata.Codec
	auditor       Auditor
	metrics       *metrics.Metrics
	logger        *slog.Logger

	backOfficeUnit string
	ownThemes      map[string]bool
}

// NewService wires the deviation dispatcher.
func NewService(p Params) *Service {
	themes := make(map[string]bool, len(p.Options.OwnThemes))
	for _, t := range p.Options.OwnThemes {
		themes[t] = true
	}
	return &Service{
		reader:         p.Reader,
		writer:         p.Writer,
		tasks:          p.Tasks,
		persons:        p.Persons,
		redistributor:  p.Redistributor,
		publisher:      p.Publisher,
		codec:          p.Codec,
		auditor:        p.Auditor,
		metrics:        p.Metrics,
		logger:         p.Logger,
		backOfficeUnit: p.Options.BackOfficeUnit,
		ownThemes:      themes,
	}
}

// Eligible returns the deviation kinds currently valid for the journalpost.
func (s *Service) Eligible(ctx context.Context, journalpostID string) ([]Kind, error) {
	jp, err := s.reader.Get(ctx, journalpostID)
	if err != nil {
		return nil, err
	}
	return EligibleKinds(jp), nil
}

// Execute validates eligibility, runs the handler for the request kind, and
// broadcasts the change for incoming documents.
func (s *Service) Execute(ctx context.Context, journalpostID string, req Request, requester Requester) (*Ack, error) {
	ctx, span := tracer.Start(ctx, "avvik.Execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("journalpost.id", journalpostID),
		attribute.String("avvik.kind", string(req.Kind())),
	)

	jp, err := s.reader.Get(ctx, journalpostID)
	if err != nil {
		return nil, err
	}

	if !eligible(EligibleKinds(jp), req.Kind()) {
		s.metrics.IncrementDeviations(string(req.Kind()), "rejected")
		return nil, dErrors.Newf(dErrors.CodeValidation,
			"deviation %s is not valid for a %s %s journalpost", req.Kind(), jp.Status, jp.Type)
	}

	if err := s.dispatch(ctx, jp, req, requester); err != nil {
		s.metrics.IncrementDeviations(string(req.Kind()), "failed")
		return nil, err
	}

	if jp.Type == journalpost.TypeIncoming {
		if err := s.publisher.JournalpostUpdated(ctx, jp.ID); err != nil {
			return nil, err
		}
	}

	s.metrics.IncrementDeviations(string(req.Kind()), "ok")
	s.emitAudit(ctx, jp.ID, audit.EventDeviationExecuted, requester, string(req.Kind()))
	return &Ack{Kind: req.Kind()}, nil
}

// dispatch routes to the handler for the concrete request type. The switch
// is exhaustive over the sealed union.
func (s *Service) dispatch(ctx context.Context, jp *journalpost.Journalpost, req Request, requester Requester) error {
	switch r := req.(type) {
	case TransferUnit:
		return s.transferUnit(ctx, jp, r)
	case WithdrawDocument:
		return s.withdrawDocument(ctx, jp, r, requester)
	case ChangeTheme:
		return s.changeTheme(ctx, jp, r, requester)
	case OrderSplit:
		return s.orderScanningCorrection(ctx, jp, "splitting", r.Description)
	case OrderRescan:
		return s.orderScanningCorrection(ctx, jp, "reskanning", r.Description)
	case OrderOriginal:
		return s.orderOriginal(ctx, jp, r)
	case CopyFromOtherTheme:
		return s.copyFromOtherTheme(ctx, jp, r, requester)
	case RegisterReturn:
		return s.registerReturn(ctx, jp, r, requester)
	case OrderNewDistribution:
		return s.orderNewDistribution(ctx, jp, r)
	case NoAddress:
		return s.noAddress(ctx, jp)
	case MisregisterCase:
		return s.misregisterCase(ctx, jp, requester)
	case PaternityExcluded:
		return s.paternityExcluded(ctx, jp)
	default:
		return dErrors.Newf(dErrors.CodeInternal, "no handler for deviation kind %q", req.Kind())
	}
}

// transferUnit moves the journalpost to another unit. Same-unit requests are
// an idempotent no-op.
func (s *Service) transferUnit(ctx context.Context, jp *journalpost.Journalpost, req TransferUnit) error {
	if req.NewUnit == "" {
		return dErrors.New(dErrors.CodeValidation, "transfer requires a target unit")
	}
	if jp.Unit == req.NewUnit {
		s.logger.InfoContext(ctx, "journalpost already at target unit",
			"journalpost_id", jp.ID,
			"unit", req.NewUnit,
		)
		return nil
	}
	return s.writer.Update(ctx, jp.ID, archive.Patch{Unit: &req.NewUnit})
}

// orderScanningCorrection handles split and rescan orders. Journalized
// documents get a follow-up task at the back office and a misregistered case
// link; un-journalized ones get a comment on the open review task, which
// moves to the back office.
func (s *Service) orderScanningCorrection(ctx context.Context, jp *journalpost.Journalpost, what, description string) error {
	if jp.IsJournalized() {
		caseID := ""
		if jp.Case != nil {
			caseID = jp.Case.ID
		}
		_, err := s.tasks.Create(ctx, task.NewTask{
			Kind:          task.KindFollowUp,
			Theme:         jp.Theme,
			CaseID:        caseID,
			JournalpostID: jp.ID,
			AssignedUnit:  s.backOfficeUnit,
			Description:   fmt.Sprintf("Bestill %s: %s", what, description),
		})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeDownstream, "create follow-up task")
		}
		return s.writer.Misregister(ctx, jp.ID)
	}

	open, err := s.tasks.Search(ctx, task.Query{JournalpostID: jp.ID, Kind: task.KindJournalforing})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeDownstream, "find review task")
	}
	for _, t := range open {
		if t.AssignedUnit == s.backOfficeUnit || t.Status == task.StatusDone {
			continue
		}
		comment := fmt.Sprintf("%s\nBestill %s: %s", t.Description, what, description)
		err := s.tasks.Patch(ctx, t.ID, task.Patch{
			Version:      t.Version,
			Description:  &comment,
			AssignedUnit: &s.backOfficeUnit,
		})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeDownstream, "update review task")
		}
	}
	return nil
}

// orderOriginal asks the scanning provider for the paper original.
func (s *Service) orderOriginal(ctx context.Context, jp *journalpost.Journalpost, req OrderOriginal) error {
	if req.Description == "" {
		return dErrors.New(dErrors.CodeValidation, "ordering the original requires a description")
	}

	caseID := ""
	if jp.Case != nil {
		caseID = jp.Case.ID
	}
	_, err := s.tasks.Create(ctx, task.NewTask{
		Kind:          task.KindFollowUp,
		Theme:         jp.Theme,
		CaseID:        caseID,
		JournalpostID: jp.ID,
		AssignedUnit:  s.backOfficeUnit,
		Description:   fmt.Sprintf("Bestill original: %s", req.Description),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeDownstream, "create follow-up task")
	}

	flagged := jp.Metadata.Clone().SetFlag(journalpost.KeyOriginalOrdered, true)
	return s.writer.Update(ctx, jp.ID, archive.Patch{Metadata: flagged})
}

// copyFromOtherTheme duplicates selected documents into a new finalized
// incoming journalpost on the requester's theme and closes review tasks on
// the source.
func (s *Service) copyFromOtherTheme(ctx context.Context, jp *journalpost.Journalpost, req CopyFromOtherTheme, requester Requester) error {
	if jp.Type == journalpost.TypeOutgoing {
		return dErrors.New(dErrors.CodeValidation, "cannot copy an outgoing journalpost")
	}
	if req.NewTheme == jp.Theme {
		return dErrors.New(dErrors.CodeValidation, "journalpost already carries the requested theme")
	}
	if len(req.Documents) == 0 {
		return dErrors.New(dErrors.CodeValidation, "no documents selected for copy")
	}
	if len(req.Cases) == 0 {
		return dErrors.New(dErrors.CodeValidation, "copy requires at least one target case")
	}

	docs, err := s.selectDocuments(ctx, jp, req.Documents)
	if err != nil {
		return err
	}

	newID, err := s.writer.Create(ctx, archive.CreateRequest{
		Title:            jp.Title,
		Theme:            req.NewTheme,
		Type:             journalpost.TypeIncoming,
		Channel:          jp.Channel,
		Unit:             requester.Unit,
		Sender:           jp.Sender,
		Case:             &req.Cases[0],
		EksternReferanse: jp.DeriveEksternReferanse(),
		Documents:        docs,
		Finalize:         true,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeDownstream, "create copy")
	}
	s.emitAudit(ctx, newID, audit.EventJournalpostCreated, requester, "kopi fra "+jp.ID)

	// The copy exists; linking the remaining cases and closing review tasks
	// are best-effort follow-ups.
	for _, c := range req.Cases[1:] {
		if err := s.writer.LinkCase(ctx, newID, c); err != nil {
			s.logger.WarnContext(ctx, "case link on copy failed",
				"journalpost_id", newID,
				"case_id", c.ID,
				"error", err.Error(),
			)
		}
	}
	s.closeReviewTasks(ctx, jp.ID)
	return nil
}

// selectDocuments resolves a document selection against the source
// journalpost, fetching content from the archive when not supplied.
func (s *Service) selectDocuments(ctx context.Context, jp *journalpost.Journalpost, selections []DocumentSelection) ([]archive.NewDocument, error) {
	byID := make(map[string]journalpost.Document, len(jp.Documents))
	for _, d := range jp.Documents {
		byID[d.ID] = d
	}

	docs := make([]archive.NewDocument, 0, len(selections))
	for _, sel := range selections {
		src, ok := byID[sel.ID]
		if !ok {
			return nil, dErrors.Newf(dErrors.CodeValidation, "journalpost has no document %s", sel.ID)
		}
		title := sel.Title
		if title == "" {
			title = src.Title
		}
		content := sel.Content
		if content == nil {
			var err error
			content, err = s.reader.DocumentContent(ctx, jp.ID, sel.ID)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeDownstream, "fetch document content")
			}
		}
		docs = append(docs, archive.NewDocument{Title: title, Content: content})
	}
	return docs, nil
}

// changeTheme moves the journalpost to a new theme. The flow forks on
// whether the document has been journalized.
func (s *Service) changeTheme(ctx context.Context, jp *journalpost.Journalpost, req ChangeTheme, requester Requester) error {
	if req.NewTheme == "" {
		return dErrors.New(dErrors.CodeValidation, "theme change requires a new theme")
	}
	if req.NewTheme == jp.Theme {
		return dErrors.New(dErrors.CodeValidation, "journalpost already carries the requested theme")
	}

	if jp.IsJournalized() {
		return s.changeThemeJournalized(ctx, jp, req, requester)
	}
	return s.changeThemeUnjournalized(ctx, jp, req, requester)
}

// changeThemeJournalized reuses a misregistered duplicate on the target
// theme+case if one carries the same documents; otherwise it links a new
// case on the target theme. Either way the original moves to the new theme
// and its case link is misregistered.
func (s *Service) changeThemeJournalized(ctx context.Context, jp *journalpost.Journalpost, req ChangeTheme, requester Requester) error {
	if req.CaseID == "" {
		return dErrors.New(dErrors.CodeValidation, "theme change on a journalized journalpost requires a target case")
	}

	reused := false
	candidates, err := s.reader.FindByCaseAndTheme(ctx, req.CaseID, req.NewTheme)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeDownstream, "find duplicates on target case")
	}
	for _, candidate := range candidates {
		if candidate.Status != journalpost.StatusMisregistered || !jp.SharesDocumentsWith(candidate) {
			continue
		}
		if err := s.writer.Unmisregister(ctx, candidate.ID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeDownstream, "reactivate misregistered duplicate")
		}
		s.logger.InfoContext(ctx, "reused misregistered duplicate for theme change",
			"journalpost_id", jp.ID,
			"duplicate_id", candidate.ID,
		)
		reused = true
		break
	}

	if !reused {
		err := s.writer.LinkCase(ctx, jp.ID, journalpost.Case{ID: req.CaseID, Theme: req.NewTheme})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeDownstream, "link case on target theme")
		}
	}

	if err := s.writer.Update(ctx, jp.ID, archive.Patch{Theme: &req.NewTheme}); err != nil {
		return err
	}
	if err := s.writer.Misregister(ctx, jp.ID); err != nil {
		return err
	}
	s.emitAudit(ctx, jp.ID, audit.EventThemeChanged, requester, jp.Theme+" -> "+req.NewTheme)
	return nil
}

// changeThemeUnjournalized re-themes the document directly when the new
// theme is the agency's own; otherwise a duplicate incoming record is
// created on the new theme and the review tasks on the original are closed.
func (s *Service) changeThemeUnjournalized(ctx context.Context, jp *journalpost.Journalpost, req ChangeTheme, requester Requester) error {
	if s.ownThemes[req.NewTheme] {
		if err := s.writer.Update(ctx, jp.ID, archive.Patch{Theme: &req.NewTheme}); err != nil {
			return err
		}
		if req.CaseID != "" {
			err := s.writer.LinkCase(ctx, jp.ID, journalpost.Case{ID: req.CaseID, Theme: req.NewTheme})
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeDownstream, "link case on new theme")
			}
		}
		s.emitAudit(ctx, jp.ID, audit.EventThemeChanged, requester, jp.Theme+" -> "+req.NewTheme)
		return nil
	}

	docs := make([]DocumentSelection, 0, len(jp.Documents))
	for _, d := range jp.Documents {
		docs = append(docs, DocumentSelection{ID: d.ID})
	}
	resolved, err := s.selectDocuments(ctx, jp, docs)
	if err != nil {
		return err
	}

	newID, err := s.writer.Create(ctx, archive.CreateRequest{
		Title:            jp.Title,
		Theme:            req.NewTheme,
		Type:             journalpost.TypeIncoming,
		Channel:          jp.Channel,
		Unit:             requester.Unit,
		Sender:           jp.Sender,
		EksternReferanse: jp.DeriveEksternReferanse(),
		Documents:        resolved,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeDownstream, "create duplicate on new theme")
	}
	s.emitAudit(ctx, newID, audit.EventJournalpostCreated, requester, "temaendring fra "+jp.Theme)

	s.closeReviewTasks(ctx, jp.ID)
	return nil
}

// registerReturn appends a return-log entry for a bounced document.
func (s *Service) registerReturn(ctx context.Context, jp *journalpost.Journalpost, req RegisterReturn, requester Requester) error {
	log, err := returnlog.Load(s.codec, jp.Metadata)
	if err != nil {
		return err
	}
	if log.HasEntryOn(req.Date) {
		return dErrors.New(dErrors.CodeValidation, "a return is already registered for that date")
	}

	log.Append(req.Description, req.Date, false)
	pairs, err := log.Apply(jp.Metadata.Clone())
	if err != nil {
		return err
	}
	if err := s.writer.Update(ctx, jp.ID, archive.Patch{Metadata: pairs}); err != nil {
		return err
	}
	s.emitAudit(ctx, jp.ID, audit.EventReturnRegistered, requester, req.Description)
	return nil
}

// orderNewDistribution delegates to the distribution manager's corrected
// re-distribution path.
func (s *Service) orderNewDistribution(ctx context.Context, jp *journalpost.Journalpost, req OrderNewDistribution) error {
	if req.Address == nil {
		return dErrors.New(dErrors.CodeValidation, "re-distribution requires an address")
	}
	_, err := s.redistributor.OrderRedistribution(ctx, jp, req.Address)
	return err
}

// noAddress marks every journalpost sharing the document content as
// non-distributable.
func (s *Service) noAddress(ctx context.Context, jp *journalpost.Journalpost) error {
	related := []*journalpost.Journalpost{jp}
	if fp := jp.Fingerprint(); fp != "" {
		found, err := s.reader.FindByFingerprint(ctx, fp)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeDownstream, "find related journalposts")
		}
		related = found
	}

	channel := journalpost.ChannelNone
	for _, r := range related {
		if err := s.writer.Update(ctx, r.ID, archive.Patch{Channel: &channel}); err != nil {
			return err
		}
	}
	return nil
}

// withdrawDocument pulls an incoming document out of case processing: it is
// journalized onto a generic case, retitled as withdrawn, and its case link
// misregistered.
func (s *Service) withdrawDocument(ctx context.Context, jp *journalpost.Journalpost, req WithdrawDocument, requester Requester) error {
	if jp.Sender == nil || jp.Sender.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "withdrawal requires a sender")
	}
	if jp.Theme == "" {
		return dErrors.New(dErrors.CodeValidation, "withdrawal requires a theme")
	}

	if jp.Sender.Name == "" {
		p, err := s.persons.Lookup(ctx, jp.Sender.ID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeDownstream, "resolve sender name")
		}
		sender := &journalpost.Party{ID: jp.Sender.ID, Name: p.Name}
		if err := s.writer.Update(ctx, jp.ID, archive.Patch{Sender: sender}); err != nil {
			return err
		}
	}

	generic := journalpost.Case{Theme: jp.Theme, Type: journalpost.CaseTypeGeneric}
	if err := s.writer.LinkCase(ctx, jp.ID, generic); err != nil {
		return dErrors.Wrap(err, dErrors.CodeDownstream, "link generic case")
	}
	if err := s.writer.Finalize(ctx, jp.ID, requester.Unit); err != nil {
		return dErrors.Wrap(err, dErrors.CodeDownstream, "finalize withdrawn journalpost")
	}

	suffix := fmt.Sprintf(" (trukket: %s)", req.Description)
	title := jp.Title + suffix
	titles := make(map[string]string, len(jp.Documents))
	for _, d := range jp.Documents {
		titles[d.ID] = d.Title + suffix
	}
	if err := s.writer.Update(ctx, jp.ID, archive.Patch{Title: &title, DocumentTitles: titles}); err != nil {
		return err
	}

	if err := s.writer.Misregister(ctx, jp.ID); err != nil {
		return err
	}
	s.emitAudit(ctx, jp.ID, audit.EventDocumentWithdrawn, requester, req.Description)
	return nil
}

// misregisterCase marks the case link misregistered.
func (s *Service) misregisterCase(ctx context.Context, jp *journalpost.Journalpost, requester Requester) error {
	if err := s.writer.Misregister(ctx, jp.ID); err != nil {
		return err
	}
	s.emitAudit(ctx, jp.ID, audit.EventCaseMisregistered, requester, "")
	return nil
}

const paternityPrefix = "FARSKAP UTELUKKET: "

// paternityExcluded tags document titles on paternity cases where paternity
// has been ruled out.
func (s *Service) paternityExcluded(ctx context.Context, jp *journalpost.Journalpost) error {
	titles := make(map[string]string)
	for _, d := range jp.Documents {
		if strings.HasPrefix(d.Title, paternityPrefix) {
			continue
		}
		titles[d.ID] = paternityPrefix + d.Title
	}
	if len(titles) == 0 {
		return nil
	}
	return s.writer.Update(ctx, jp.ID, archive.Patch{DocumentTitles: titles})
}

// closeReviewTasks finalizes any open journalization task for the source
// journalpost. Best-effort: the primary effect has already happened.
func (s *Service) closeReviewTasks(ctx context.Context, journalpostID string) {
	open, err := s.tasks.Search(ctx, task.Query{JournalpostID: journalpostID, Kind: task.KindJournalforing})
	if err != nil {
		s.logger.WarnContext(ctx, "review task search failed",
			"journalpost_id", journalpostID,
			"error", err.Error(),
		)
		return
	}
	done := task.StatusDone
	for _, t := range open {
		if t.Status == task.StatusDone {
			continue
		}
		if err := s.tasks.Patch(ctx, t.ID, task.Patch{Version: t.Version, Status: &done}); err != nil {
			s.logger.WarnContext(ctx, "review task close failed",
				"task_id", t.ID,
				"journalpost_id", journalpostID,
				"error", err.Error(),
			)
		}
	}
}

func (s *Service) emitAudit(ctx context.Context, journalpostID string, action audit.AuditEvent, requester Requester, reason string) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		JournalpostID: journalpostID,
		Action:        string(action),
		Actor:         requester.Ident,
		Unit:          requester.Unit,
		Reason:        reason,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"journalpost_id", journalpostID,
			"error", err.Error(),
		)
	}
}
