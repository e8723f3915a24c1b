// Package client is the HTTP client for the external task system (oppgave).
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

	"dokflyt/internal/task"
	dErrors "dokflyt/pkg/domain-errors"
	"dokflyt/pkg/platform/sentinel"
)

// Client implements task.Store against the task system's REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a task client.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

var _ task.Store = (*Client)(nil)

type taskDTO struct {
	ID            string `json:"id"`
	Kind          string `json:"oppgavetype"`
	Status        string `json:"status"`
	Theme         string `json:"tema"`
	CaseID        string `json:"saksreferanse"`
	JournalpostID string `json:"journalpostId"`
	AssignedUnit  string `json:"tildeltEnhetsnr"`
	Description   string `json:"beskrivelse"`
	Version       int    `json:"versjon"`
}

func (d taskDTO) toModel() *task.Task {
	return &task.Task{
		ID:            d.ID,
		Kind:          task.Kind(d.Kind),
		Status:        task.Status(d.Status),
		Theme:         d.Theme,
		CaseID:        d.CaseID,
		JournalpostID: d.JournalpostID,
		AssignedUnit:  d.AssignedUnit,
		Description:   d.Description,
		Version:       d.Version,
	}
}

func (c *Client) Get(ctx context.Context, id string) (*task.Task, error) {
	var dto taskDTO
	if err := c.do(ctx, http.MethodGet, "/oppgaver/"+url.PathEscape(id), nil, &dto); err != nil {
		return nil, err
	}
	return dto.toModel(), nil
}

func (c *Client) Create(ctx context.Context, t task.NewTask) (string, error) {
	body := taskDTO{
		Kind:          string(t.Kind),
		Theme:         t.Theme,
		CaseID:        t.CaseID,
		JournalpostID: t.JournalpostID,
		AssignedUnit:  t.AssignedUnit,
		Description:   t.Description,
	}
	var created taskDTO
	if err := c.do(ctx, http.MethodPost, "/oppgaver", body, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

type patchDTO struct {
	Version      int     `json:"versjon"`
	CaseID       *string `json:"saksreferanse,omitempty"`
	Description  *string `json:"beskrivelse,omitempty"`
	AssignedUnit *string `json:"tildeltEnhetsnr,omitempty"`
	Status       *string `json:"status,omitempty"`
}

func (c *Client) Patch(ctx context.Context, id string, patch task.Patch) error {
	dto := patchDTO{
		Version:      patch.Version,
		CaseID:       patch.CaseID,
		Description:  patch.Description,
		AssignedUnit: patch.AssignedUnit,
	}
	if patch.Status != nil {
		s := string(*patch.Status)
		dto.Status = &s
	}
	return c.do(ctx, http.MethodPatch, "/oppgaver/"+url.PathEscape(id), dto, nil)
}

func (c *Client) Search(ctx context.Context, q task.Query) ([]*task.Task, error) {
	values := url.Values{}
	if q.JournalpostID != "" {
		values.Set("journalpostId", q.JournalpostID)
	}
	if q.CaseID != "" {
		values.Set("saksreferanse", q.CaseID)
	}
	if q.Theme != "" {
		values.Set("tema", q.Theme)
	}
	if q.Kind != "" {
		values.Set("oppgavetype", string(q.Kind))
	}

	var result struct {
		Tasks []taskDTO `json:"oppgaver"`
	}
	if err := c.do(ctx, http.MethodGet, "/oppgaver?"+values.Encode(), nil, &result); err != nil {
		return nil, err
	}
	out := make([]*task.Task, 0, len(result.Tasks))
	for _, d := range result.Tasks {
		out = append(out, d.toModel())
	}
	return out, nil
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
		return dErrors.Wrap(err, dErrors.CodeDownstream, "task system request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
	case resp.StatusCode == http.StatusNotFound:
		return dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "task not found")
	case resp.StatusCode == http.StatusConflict:
		// The task system rejects patches whose version is stale.
		return dErrors.Wrap(sentinel.ErrVersionConflict, dErrors.CodeConflict, "task version stale")
	default:
		return dErrors.New(dErrors.CodeDownstream, fmt.Sprintf("task system returned %d", resp.StatusCode))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
