// Package client is the HTTP client for the external document archive. It
// maps the archive's REST shapes onto the port types; everything interesting
// happens in the services, not here.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"dokflyt/internal/archive"
	"dokflyt/internal/journalpost"
	"dokflyt/internal/metadata"
	dErrors "dokflyt/pkg/domain-errors"
	"dokflyt/pkg/platform/sentinel"
)

// Client implements archive.Reader and archive.Writer against the archive's
// REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates an archive client.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

var (
	_ archive.Reader = (*Client)(nil)
	_ archive.Writer = (*Client)(nil)
)

type journalpostDTO struct {
	ID          string          `json:"journalpostId"`
	Status      string          `json:"journalstatus"`
	Type        string          `json:"journalposttype"`
	Channel     string          `json:"kanal"`
	Theme       string          `json:"tema"`
	Title       string          `json:"tittel"`
	Unit        string          `json:"journalfoerendeEnhet"`
	Case        *caseDTO        `json:"sak"`
	Sender      *partyDTO       `json:"avsenderMottaker"`
	Documents   []documentDTO   `json:"dokumenter"`
	Dates       []dateDTO       `json:"relevanteDatoer"`
	ReturnCount int             `json:"antallRetur"`
	Metadata    []metadata.Pair `json:"tilleggsopplysninger"`
}

type caseDTO struct {
	ID    string `json:"sakId"`
	Theme string `json:"tema"`
	Type  string `json:"sakstype"`
}

type partyDTO struct {
	ID   string `json:"id"`
	Name string `json:"navn"`
}

type documentDTO struct {
	ID          string `json:"dokumentInfoId"`
	Title       string `json:"tittel"`
	Fingerprint string `json:"sjekksum"`
}

type dateDTO struct {
	Date time.Time `json:"dato"`
	Type string    `json:"datotype"`
}

func (d journalpostDTO) toModel() *journalpost.Journalpost {
	jp := &journalpost.Journalpost{
		ID:          d.ID,
		Status:      journalpost.Status(d.Status),
		Type:        journalpost.Type(d.Type),
		Channel:     journalpost.Channel(d.Channel),
		Theme:       d.Theme,
		Title:       d.Title,
		Unit:        d.Unit,
		ReturnCount: d.ReturnCount,
		Metadata:    metadata.Pairs(d.Metadata),
	}
	if d.Case != nil {
		jp.Case = &journalpost.Case{ID: d.Case.ID, Theme: d.Case.Theme, Type: d.Case.Type}
	}
	if d.Sender != nil {
		jp.Sender = &journalpost.Party{ID: d.Sender.ID, Name: d.Sender.Name}
	}
	for _, doc := range d.Documents {
		jp.Documents = append(jp.Documents, journalpost.Document{
			ID:          doc.ID,
			Title:       doc.Title,
			Fingerprint: doc.Fingerprint,
		})
	}
	for _, date := range d.Dates {
		jp.Dates = append(jp.Dates, journalpost.RelevantDate{
			Date: date.Date,
			Type: journalpost.DateType(date.Type),
		})
	}
	return jp
}

func (c *Client) Get(ctx context.Context, id string) (*journalpost.Journalpost, error) {
	var dto journalpostDTO
	if err := c.do(ctx, http.MethodGet, "/journalpost/"+url.PathEscape(id), nil, &dto); err != nil {
		return nil, err
	}
	return dto.toModel(), nil
}

func (c *Client) GetForCase(ctx context.Context, id, caseID string) (*journalpost.Journalpost, error) {
	jp, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if jp.Case == nil || jp.Case.ID != caseID {
		return nil, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "journalpost not linked to case")
	}
	return jp, nil
}

func (c *Client) FindByFingerprint(ctx context.Context, fingerprint string) ([]*journalpost.Journalpost, error) {
	return c.find(ctx, "/journalpost?sjekksum="+url.QueryEscape(fingerprint))
}

func (c *Client) FindByCaseAndTheme(ctx context.Context, caseID, theme string) ([]*journalpost.Journalpost, error) {
	q := url.Values{"sakId": {caseID}, "tema": {theme}}
	return c.find(ctx, "/journalpost?"+q.Encode())
}

func (c *Client) find(ctx context.Context, path string) ([]*journalpost.Journalpost, error) {
	var dtos []journalpostDTO
	if err := c.do(ctx, http.MethodGet, path, nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]*journalpost.Journalpost, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (c *Client) DocumentContent(ctx context.Context, journalpostID, documentID string) ([]byte, error) {
	path := "/journalpost/" + url.PathEscape(journalpostID) + "/dokument/" + url.PathEscape(documentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDownstream, "archive request")
	}
	defer resp.Body.Close()
	if err := statusError(resp); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

type patchDTO struct {
	Title          *string              `json:"tittel,omitempty"`
	Theme          *string              `json:"tema,omitempty"`
	Unit           *string              `json:"journalfoerendeEnhet,omitempty"`
	Channel        *journalpost.Channel `json:"kanal,omitempty"`
	Sender         *partyDTO            `json:"avsenderMottaker,omitempty"`
	Case           *caseDTO             `json:"sak,omitempty"`
	DocumentTitles map[string]string    `json:"dokumenttitler,omitempty"`
	Metadata       metadata.Pairs       `json:"tilleggsopplysninger,omitempty"`
}

func (c *Client) Update(ctx context.Context, id string, patch archive.Patch) error {
	dto := patchDTO{
		Title:          patch.Title,
		Theme:          patch.Theme,
		Unit:           patch.Unit,
		Channel:        patch.Channel,
		DocumentTitles: patch.DocumentTitles,
		Metadata:       patch.Metadata,
	}
	if patch.Sender != nil {
		dto.Sender = &partyDTO{ID: patch.Sender.ID, Name: patch.Sender.Name}
	}
	if patch.Case != nil {
		dto.Case = &caseDTO{ID: patch.Case.ID, Theme: patch.Case.Theme, Type: patch.Case.Type}
	}
	return c.do(ctx, http.MethodPut, "/journalpost/"+url.PathEscape(id), dto, nil)
}

func (c *Client) Finalize(ctx context.Context, id, unit string) error {
	body := map[string]string{"journalfoerendeEnhet": unit}
	return c.do(ctx, http.MethodPatch, "/journalpost/"+url.PathEscape(id)+"/ferdigstill", body, nil)
}

func (c *Client) Misregister(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/journalpost/"+url.PathEscape(id)+"/feilregistrer", nil, nil)
}

func (c *Client) Unmisregister(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/journalpost/"+url.PathEscape(id)+"/opphevFeilregistrering", nil, nil)
}

func (c *Client) LinkCase(ctx context.Context, id string, cs journalpost.Case) error {
	dto := caseDTO{ID: cs.ID, Theme: cs.Theme, Type: cs.Type}
	return c.do(ctx, http.MethodPost, "/journalpost/"+url.PathEscape(id)+"/sak", dto, nil)
}

type createDTO struct {
	Title            string           `json:"tittel"`
	Theme            string           `json:"tema"`
	Type             string           `json:"journalposttype"`
	Channel          string           `json:"kanal"`
	Unit             string           `json:"journalfoerendeEnhet,omitempty"`
	Sender           *partyDTO        `json:"avsenderMottaker,omitempty"`
	Case             *caseDTO         `json:"sak,omitempty"`
	EksternReferanse string           `json:"eksternReferanseId,omitempty"`
	Metadata         metadata.Pairs   `json:"tilleggsopplysninger,omitempty"`
	Documents        []newDocumentDTO `json:"dokumenter"`
	Finalize         bool             `json:"ferdigstill"`
}

type newDocumentDTO struct {
	Title   string `json:"tittel"`
	Content []byte `json:"innhold"`
}

func (c *Client) Create(ctx context.Context, req archive.CreateRequest) (string, error) {
	dto := createDTO{
		Title:            req.Title,
		Theme:            req.Theme,
		Type:             string(req.Type),
		Channel:          string(req.Channel),
		Unit:             req.Unit,
		EksternReferanse: req.EksternReferanse,
		Metadata:         req.Metadata,
		Finalize:         req.Finalize,
	}
	if req.Sender != nil {
		dto.Sender = &partyDTO{ID: req.Sender.ID, Name: req.Sender.Name}
	}
	if req.Case != nil {
		dto.Case = &caseDTO{ID: req.Case.ID, Theme: req.Case.Theme, Type: req.Case.Type}
	}
	for _, d := range req.Documents {
		dto.Documents = append(dto.Documents, newDocumentDTO{Title: d.Title, Content: d.Content})
	}

	var created struct {
		ID string `json:"journalpostId"`
	}
	if err := c.do(ctx, http.MethodPost, "/journalpost", dto, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeDownstream, "archive request")
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "journalpost not found")
	case resp.StatusCode == http.StatusConflict:
		return dErrors.Wrap(sentinel.ErrConflict, dErrors.CodeConflict, "archive conflict")
	default:
		return dErrors.New(dErrors.CodeDownstream, fmt.Sprintf("archive returned %d", resp.StatusCode))
	}
}
