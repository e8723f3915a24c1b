// Package avvik implements deviation handling: correction requests raised by
// caseworkers against misfiled or malformed journalposts. Each request kind
// is a separate orchestration over the archive, task, person, and
// distribution collaborators.
package avvik

import (
	"encoding/json"
	"time"

	"dokflyt/internal/journalpost"
	dErrors "dokflyt/pkg/domain-errors"
)

// Kind tags a deviation request. The set is closed; the dispatcher switches
// exhaustively over the concrete request types.
type Kind string

const (
	KindTransferUnit         Kind = "OVERFOER_TIL_ANNEN_ENHET"
	KindWithdrawDocument     Kind = "TREKK_DOKUMENT"
	KindChangeTheme          Kind = "ENDRE_TEMA"
	KindOrderSplit           Kind = "BESTILL_SPLITTING"
	KindOrderRescan          Kind = "BESTILL_RESKANNING"
	KindOrderOriginal        Kind = "BESTILL_ORIGINAL"
	KindCopyFromOtherTheme   Kind = "KOPIER_FRA_ANNET_TEMA"
	KindRegisterReturn       Kind = "REGISTRER_RETUR"
	KindOrderNewDistribution Kind = "BESTILL_NY_DISTRIBUSJON"
	KindNoAddress            Kind = "ADRESSE_MANGLER"
	KindMisregisterCase      Kind = "FEILREGISTRER_SAKSTILKNYTNING"
	KindPaternityExcluded    Kind = "FARSKAP_UTELUKKET"
)

// Request is the sealed deviation union. One struct per kind; the service
// dispatches over the concrete types so a new kind cannot be added without
// extending the switch.
type Request interface {
	Kind() Kind
	sealed()
}

// Requester identifies the caseworker raising the deviation.
type Requester struct {
	Ident string
	Unit  string
}

// TransferUnit moves the journalpost to another organizational unit.
type TransferUnit struct {
	NewUnit string
}

// WithdrawDocument pulls an incoming document out of case processing.
type WithdrawDocument struct {
	Description string
}

// ChangeTheme moves the journalpost to another case theme.
type ChangeTheme struct {
	NewTheme string
	// CaseID is the target case on the new theme. Required once the
	// journalpost is journalized.
	CaseID string
}

// OrderSplit asks the scanning provider to split a batch-scanned document.
type OrderSplit struct {
	Description string
}

// OrderRescan asks the scanning provider to re-scan an unreadable document.
type OrderRescan struct {
	Description string
}

// OrderOriginal asks the scanning provider for the paper original.
type OrderOriginal struct {
	Description string
}

// CopyFromOtherTheme duplicates selected documents of a journalpost on
// another theme into a new finalized journalpost on the requester's theme.
type CopyFromOtherTheme struct {
	NewTheme  string
	Cases     []journalpost.Case
	Documents []DocumentSelection
}

// DocumentSelection picks one source document, optionally overriding its
// title or content.
type DocumentSelection struct {
	ID      string
	Title   string
	Content []byte
}

// RegisterReturn records a bounced document in the return log.
type RegisterReturn struct {
	Description string
	Date        time.Time
}

// OrderNewDistribution orders a corrected re-distribution to a new address.
type OrderNewDistribution struct {
	Address *journalpost.Address
}

// NoAddress marks every journalpost sharing the document content as
// non-distributable.
type NoAddress struct{}

// MisregisterCase marks the case link misregistered.
type MisregisterCase struct{}

// PaternityExcluded tags document titles on paternity cases where paternity
// has been ruled out.
type PaternityExcluded struct{}

func (TransferUnit) Kind() Kind         { return KindTransferUnit }
func (WithdrawDocument) Kind() Kind     { return KindWithdrawDocument }
func (ChangeTheme) Kind() Kind          { return KindChangeTheme }
func (OrderSplit) Kind() Kind           { return KindOrderSplit }
func (OrderRescan) Kind() Kind          { return KindOrderRescan }
func (OrderOriginal) Kind() Kind        { return KindOrderOriginal }
func (CopyFromOtherTheme) Kind() Kind   { return KindCopyFromOtherTheme }
func (RegisterReturn) Kind() Kind       { return KindRegisterReturn }
func (OrderNewDistribution) Kind() Kind { return KindOrderNewDistribution }
func (NoAddress) Kind() Kind            { return KindNoAddress }
func (MisregisterCase) Kind() Kind      { return KindMisregisterCase }
func (PaternityExcluded) Kind() Kind    { return KindPaternityExcluded }

func (TransferUnit) sealed()         {}
func (WithdrawDocument) sealed()     {}
func (ChangeTheme) sealed()          {}
func (OrderSplit) sealed()           {}
func (OrderRescan) sealed()          {}
func (OrderOriginal) sealed()        {}
func (CopyFromOtherTheme) sealed()   {}
func (RegisterReturn) sealed()       {}
func (OrderNewDistribution) sealed() {}
func (NoAddress) sealed()            {}
func (MisregisterCase) sealed()      {}
func (PaternityExcluded) sealed()    {}

// wireRequest is the transport shape: a kind tag plus a kind-dependent
// detail object.
type wireRequest struct {
	Kind        Kind            `json:"avvikstype"`
	Description string          `json:"beskrivelse"`
	Detail      json.RawMessage `json:"detaljer"`
}

type wireCase struct {
	ID    string `json:"sakId"`
	Theme string `json:"tema"`
}

type wireDocument struct {
	ID      string `json:"dokumentId"`
	Title   string `json:"tittel"`
	Content []byte `json:"innhold"`
}

// ParseRequest decodes a wire-format deviation request into the union.
func ParseRequest(raw []byte) (Request, error) {
	var wire wireRequest
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed deviation request")
	}

	detail := func(v any) error {
		if len(wire.Detail) == 0 {
			return nil
		}
		if err := json.Unmarshal(wire.Detail, v); err != nil {
			return dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed deviation detail")
		}
		return nil
	}

	switch wire.Kind {
	case KindTransferUnit:
		var d struct {
			NewUnit string `json:"nyEnhet"`
		}
		if err := detail(&d); err != nil {
			return nil, err
		}
		return TransferUnit{NewUnit: d.NewUnit}, nil

	case KindWithdrawDocument:
		return WithdrawDocument{Description: wire.Description}, nil

	case KindChangeTheme:
		var d struct {
			NewTheme string `json:"nyttTema"`
			CaseID   string `json:"sakId"`
		}
		if err := detail(&d); err != nil {
			return nil, err
		}
		return ChangeTheme{NewTheme: d.NewTheme, CaseID: d.CaseID}, nil

	case KindOrderSplit:
		return OrderSplit{Description: wire.Description}, nil

	case KindOrderRescan:
		return OrderRescan{Description: wire.Description}, nil

	case KindOrderOriginal:
		return OrderOriginal{Description: wire.Description}, nil

	case KindCopyFromOtherTheme:
		var d struct {
			NewTheme  string         `json:"nyttTema"`
			Cases     []wireCase     `json:"saker"`
			Documents []wireDocument `json:"dokumenter"`
		}
		if err := detail(&d); err != nil {
			return nil, err
		}
		req := CopyFromOtherTheme{NewTheme: d.NewTheme}
		for _, c := range d.Cases {
			req.Cases = append(req.Cases, journalpost.Case{ID: c.ID, Theme: c.Theme})
		}
		for _, doc := range d.Documents {
			req.Documents = append(req.Documents, DocumentSelection{ID: doc.ID, Title: doc.Title, Content: doc.Content})
		}
		return req, nil

	case KindRegisterReturn:
		var d struct {
			Date time.Time `json:"returdato"`
		}
		if err := detail(&d); err != nil {
			return nil, err
		}
		return RegisterReturn{Description: wire.Description, Date: d.Date}, nil

	case KindOrderNewDistribution:
		var d struct {
			Address *journalpost.Address `json:"adresse"`
		}
		if err := detail(&d); err != nil {
			return nil, err
		}
		return OrderNewDistribution{Address: d.Address}, nil

	case KindNoAddress:
		return NoAddress{}, nil

	case KindMisregisterCase:
		return MisregisterCase{}, nil

	case KindPaternityExcluded:
		return PaternityExcluded{}, nil

	default:
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown deviation kind %q", wire.Kind)
	}
}
