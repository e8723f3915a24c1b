// Package journalpost holds the in-memory document model. A Journalpost is
// owned exclusively by the orchestration call processing a single request or
// event; it is never shared across operations.
package journalpost

import (
	"time"

	"dokflyt/internal/metadata"
	dErrors "dokflyt/pkg/domain-errors"
)

// Status is the archive lifecycle state of a journalpost.
type Status string

const (
	StatusReceived      Status = "MOTTATT"
	StatusJournalized   Status = "JOURNALFOERT"
	StatusFinalized     Status = "FERDIGSTILT"
	StatusDispatched    Status = "EKSPEDERT"
	StatusMisregistered Status = "FEILREGISTRERT"
)

// statusOrder supports the forward-only transition rule. Misregistered sits
// outside the ordering; only a deviation correction moves a document there.
var statusOrder = map[Status]int{
	StatusReceived:    1,
	StatusJournalized: 2,
	StatusFinalized:   3,
	StatusDispatched:  4,
}

// ParseStatus validates an archive status string.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := statusOrder[st]; !ok && st != StatusMisregistered {
		return "", dErrors.Newf(dErrors.CodeBadRequest, "unknown journalstatus %q", s)
	}
	return st, nil
}

// CanAdvanceTo reports whether the normal lifecycle allows moving to next.
// Deviation corrections bypass this check explicitly.
func (s Status) CanAdvanceTo(next Status) bool {
	from, okFrom := statusOrder[s]
	to, okTo := statusOrder[next]
	return okFrom && okTo && to > from
}

// Type is the direction of a journalpost.
type Type string

const (
	TypeIncoming Type = "INNGAAENDE"
	TypeOutgoing Type = "UTGAAENDE"
	TypeNote     Type = "NOTAT"
)

var validTypes = map[Type]bool{
	TypeIncoming: true,
	TypeOutgoing: true,
	TypeNote:     true,
}

// ParseType validates a journalpost type string.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !validTypes[t] {
		return "", dErrors.Newf(dErrors.CodeBadRequest, "unknown journalposttype %q", s)
	}
	return t, nil
}

// Channel is how a document entered or leaves the archive.
type Channel string

const (
	ChannelScanned        Channel = "SKANNING"
	ChannelDigitalMailbox Channel = "SDP"
	ChannelNavNo          Channel = "NAV_NO"
	ChannelCentralPrint   Channel = "SENTRAL_UTSKRIFT"
	ChannelLocalPrint     Channel = "LOKAL_UTSKRIFT"
	ChannelNone           Channel = "INGEN_DISTRIBUSJON"
	// ChannelEESSI documents are ingested by a separate flow; the
	// journal-registered consumer skips them.
	ChannelEESSI Channel = "EESSI"
)

// DateType tags entries in the dated-event list.
type DateType string

const (
	DateDocument    DateType = "DATO_DOKUMENT"
	DateRegistered  DateType = "DATO_REGISTRERT"
	DateJournalized DateType = "DATO_JOURNALFOERT"
	DateReturn      DateType = "DATO_RETUR"
)

// RelevantDate is a typed date on a journalpost.
type RelevantDate struct {
	Date time.Time
	Type DateType
}

// Document is a single archived document under a journalpost.
type Document struct {
	ID          string
	Title       string
	Fingerprint string
	// Content is lazily loaded from the archive when a flow needs the bytes.
	Content []byte
}

// Case links a journalpost to a sak. Type distinguishes ordinary theme cases
// from the generic case used when withdrawing documents.
type Case struct {
	ID    string
	Theme string
	Type  string
}

// CaseTypeGeneric is the case type for documents withdrawn from processing.
const CaseTypeGeneric = "GENERELL_SAK"

// Party is a sender or recipient.
type Party struct {
	ID   string
	Name string
}

// Address is a resolved postal address for distribution.
type Address struct {
	Line1      string `json:"adresselinje1"`
	Line2      string `json:"adresselinje2,omitempty"`
	Line3      string `json:"adresselinje3,omitempty"`
	PostalCode string `json:"postnummer"`
	City       string `json:"poststed"`
	Country    string `json:"land,omitempty"`
}

// Journalpost is the central entity: an archived case document record.
type Journalpost struct {
	ID       string
	Status   Status
	Type     Type
	Channel  Channel
	Theme    string
	Title    string
	Unit     string
	Case     *Case
	Sender   *Party
	Documents []Document
	Dates     []RelevantDate

	// ReturnCount is the number of times the document bounced back
	// undelivered, as recorded by the archive.
	ReturnCount int

	// Metadata is the supplementary key-value store; see internal/metadata.
	Metadata metadata.Pairs
}
