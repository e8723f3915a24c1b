// Package distribution orders delivery of finalized outgoing journalposts
// and handles corrected re-distribution after a return. Ordering is
// idempotent: the first confirmed order wins and every later call answers
// with the stored tracking id.
package distribution

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"dokflyt/internal/archive"
	"dokflyt/internal/dispatch"
	"dokflyt/internal/distribution/metrics"
	"dokflyt/internal/journalpost"
	"dokflyt/internal/metadata"
	"dokflyt/internal/person"
	"dokflyt/internal/returnlog"
	dErrors "dokflyt/pkg/domain-errors"
	audit "dokflyt/pkg/platform/audit"
)

var tracer = otel.Tracer("dokflyt/internal/distribution")

// Auditor records audit events.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Request orders one distribution.
type Request struct {
	// BatchID groups orders issued by one upstream batch job.
	BatchID string

	// LocalPrint marks the document as printed and handled locally; no
	// dispatch order is placed.
	LocalPrint bool

	// Address overrides the recipient's registered postal address.
	Address *journalpost.Address
}

// Result reports the order outcome.
type Result struct {
	// TrackingID is the dispatch system's order id. Empty for local print.
	TrackingID string

	// AlreadyOrdered is set when a previous call placed the order; the
	// result carries that order's tracking id.
	AlreadyOrdered bool

	Channel journalpost.Channel
}

// Service orders distributions.
type Service struct {
	reader  archive.Reader
	writer  archive.Writer
	sender  dispatch.Sender
	persons person.Registry
	codec   metadata.Codec
	auditor Auditor
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewService wires the distribution service.
func NewService(
	reader archive.Reader,
	writer archive.Writer,
	sender dispatch.Sender,
	persons person.Registry,
	codec metadata.Codec,
	auditor Auditor,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		reader:  reader,
		writer:  writer,
		sender:  sender,
		persons: persons,
		codec:   codec,
		auditor: auditor,
		metrics: m,
		logger:  logger,
	}
}

// Distribute orders delivery of one journalpost. Repeated calls for the same
// journalpost return the original order's tracking id without placing a new
// one.
func (s *Service) Distribute(ctx context.Context, journalpostID string, req Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "distribution.Distribute")
	defer span.End()
	span.SetAttributes(attribute.String("journalpost.id", journalpostID))

	jp, err := s.reader.Get(ctx, journalpostID)
	if err != nil {
		return nil, err
	}

	if jp.Metadata.HasFlag(journalpost.KeyDistributionOrdered) || jp.Status == journalpost.StatusDispatched {
		tracking, _ := jp.Metadata.Get(journalpost.KeyDispatchReceipt)
		s.metrics.IncrementOrders(string(jp.Channel), "duplicate")
		s.logger.InfoContext(ctx, "distribution already ordered, answering idempotently",
			"journalpost_id", jp.ID,
			"tracking_id", tracking,
		)
		return &Result{TrackingID: tracking, AlreadyOrdered: true, Channel: jp.Channel}, nil
	}

	if err := jp.CanDispatch(); err != nil {
		s.metrics.IncrementOrders(string(jp.Channel), "rejected")
		return nil, err
	}

	if req.LocalPrint {
		return s.orderLocalPrint(ctx, jp)
	}

	address, err := s.resolveAddress(ctx, jp, req.Address)
	if err != nil {
		s.metrics.IncrementOrders(string(jp.Channel), "rejected")
		return nil, err
	}

	pairs := jp.Metadata.Clone()
	if address != nil {
		pairs, err = s.codec.Replace(journalpost.KeyDistributedAddress, pairs, address)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode distributed address")
		}
	}

	receipt, err := s.sender.Send(ctx, dispatch.Request{
		JournalpostID: jp.ID,
		BatchID:       req.BatchID,
		Address:       address,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDownstream, "order dispatch")
	}

	pairs = pairs.SetFlag(journalpost.KeyDistributionOrdered, true)
	pairs = pairs.Set(journalpost.KeyDispatchReceipt, receipt.BestillingsID)
	if err := s.writer.Update(ctx, jp.ID, archive.Patch{Metadata: pairs}); err != nil {
		// The order is placed; losing the receipt leaves the next call to
		// re-order. Surface loudly.
		s.logger.ErrorContext(ctx, "dispatch ordered but receipt not persisted",
			"journalpost_id", jp.ID,
			"tracking_id", receipt.BestillingsID,
			"error", err.Error(),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist dispatch receipt")
	}

	s.metrics.IncrementOrders(string(jp.Channel), "ordered")
	s.emitAudit(ctx, jp.ID, "")
	return &Result{TrackingID: receipt.BestillingsID, Channel: jp.Channel}, nil
}

func (s *Service) orderLocalPrint(ctx context.Context, jp *journalpost.Journalpost) (*Result, error) {
	channel := journalpost.ChannelLocalPrint
	pairs := jp.Metadata.Clone()
	pairs = pairs.SetFlag(journalpost.KeyLocalPrint, true)
	pairs = pairs.SetFlag(journalpost.KeyDistributionOrdered, true)

	err := s.writer.Update(ctx, jp.ID, archive.Patch{Channel: &channel, Metadata: pairs})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementOrders(string(channel), "ordered")
	s.emitAudit(ctx, jp.ID, "lokal utskrift")
	return &Result{Channel: channel}, nil
}

// resolveAddress picks the delivery address: the request override first, then
// the recipient's registered postal address. Only the digital mailbox channel
// may go without one.
func (s *Service) resolveAddress(ctx context.Context, jp *journalpost.Journalpost, override *journalpost.Address) (*journalpost.Address, error) {
	if override != nil {
		return override, nil
	}

	p, err := s.persons.Lookup(ctx, jp.Sender.ID)
	if err == nil && p.PostalAddress != nil {
		return p.PostalAddress, nil
	}
	if err != nil {
		s.logger.WarnContext(ctx, "recipient address lookup failed",
			"journalpost_id", jp.ID,
			"error", err.Error(),
		)
	}

	if jp.Channel == journalpost.ChannelDigitalMailbox {
		return nil, nil
	}
	return nil, dErrors.New(dErrors.CodeValidation, "no delivery address available for recipient")
}

// OrderRedistribution creates a finalized duplicate of a returned journalpost
// and orders its distribution to the given address. The original is flagged
// so the open return cycle cannot trigger a second re-order.
func (s *Service) OrderRedistribution(ctx context.Context, jp *journalpost.Journalpost, address *journalpost.Address) (*Result, error) {
	ctx, span := tracer.Start(ctx, "distribution.OrderRedistribution")
	defer span.End()
	span.SetAttributes(attribute.String("journalpost.id", jp.ID))

	if jp.Metadata.HasFlag(journalpost.KeyRedistributionOrdered) {
		s.logger.InfoContext(ctx, "redistribution already ordered for this return cycle",
			"journalpost_id", jp.ID,
		)
		return &Result{AlreadyOrdered: true, Channel: jp.Channel}, nil
	}

	if err := s.ensureReturnEntry(ctx, jp); err != nil {
		return nil, err
	}

	newID, err := s.createDuplicate(ctx, jp)
	if err != nil {
		return nil, err
	}

	result, err := s.Distribute(ctx, newID, Request{
		BatchID: uuid.NewString(),
		Address: address,
	})
	if err != nil {
		return nil, err
	}

	flagged := jp.Metadata.Clone().SetFlag(journalpost.KeyRedistributionOrdered, true)
	if err := s.writer.Update(ctx, jp.ID, archive.Patch{Metadata: flagged}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "flag original after redistribution")
	}

	s.metrics.IncrementRedistributions()
	return result, nil
}

// ensureReturnEntry appends the missing return-log entry for the open return
// cycle, if the log does not cover it yet.
func (s *Service) ensureReturnEntry(ctx context.Context, jp *journalpost.Journalpost) error {
	log, err := returnlog.Load(s.codec, jp.Metadata)
	if err != nil {
		return err
	}
	if !log.MissingEntryForLatestReturn(jp) {
		return nil
	}

	date, ok := jp.LatestReturnDate()
	if !ok {
		date, _ = jp.Date(journalpost.DateRegistered)
	}
	log.Append(returnlog.SyntheticDescription(jp.Channel), date, false)

	pairs, err := log.Apply(jp.Metadata.Clone())
	if err != nil {
		return err
	}
	if err := s.writer.Update(ctx, jp.ID, archive.Patch{Metadata: pairs}); err != nil {
		return err
	}
	jp.Metadata = pairs
	return nil
}

// createDuplicate registers a finalized copy of the journalpost carrying the
// same documents but none of the original's distribution history.
func (s *Service) createDuplicate(ctx context.Context, jp *journalpost.Journalpost) (string, error) {
	docs := make([]archive.NewDocument, 0, len(jp.Documents))
	for _, d := range jp.Documents {
		content := d.Content
		if content == nil {
			var err error
			content, err = s.reader.DocumentContent(ctx, jp.ID, d.ID)
			if err != nil {
				return "", dErrors.Wrap(err, dErrors.CodeDownstream, "fetch document content")
			}
		}
		docs = append(docs, archive.NewDocument{Title: d.Title, Content: content})
	}

	pairs := jp.Metadata.
		WithoutPrefix(journalpost.KeyDistributionOrdered).
		WithoutPrefix(journalpost.KeyDispatchReceipt).
		WithoutPrefix(journalpost.KeyRedistributionOrdered).
		WithoutPrefix(journalpost.KeyDistributedAddress).
		WithoutPrefix(journalpost.KeyLocalPrint)

	newID, err := s.writer.Create(ctx, archive.CreateRequest{
		Title:            jp.Title,
		Theme:            jp.Theme,
		Type:             journalpost.TypeOutgoing,
		Channel:          journalpost.ChannelCentralPrint,
		Unit:             jp.Unit,
		Sender:           jp.Sender,
		Case:             jp.Case,
		EksternReferanse: jp.DeriveEksternReferanse(),
		Metadata:         pairs,
		Documents:        docs,
		Finalize:         true,
	})
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeDownstream, "create redistribution duplicate")
	}

	s.logger.InfoContext(ctx, "created redistribution duplicate",
		"journalpost_id", jp.ID,
		"duplicate_id", newID,
	)
	return newID, nil
}

func (s *Service) emitAudit(ctx context.Context, journalpostID, reason string) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		JournalpostID: journalpostID,
		Action:        string(audit.EventDistributionOrdered),
		Actor:         "system",
		Reason:        reason,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"journalpost_id", journalpostID,
			"error", err.Error(),
		)
	}
}
