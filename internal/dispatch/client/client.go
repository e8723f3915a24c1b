// Package client is the HTTP client for the dispatch system.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dokflyt/internal/dispatch"
	"dokflyt/internal/journalpost"
	dErrors "dokflyt/pkg/domain-errors"
)

// Client implements dispatch.Sender against the dispatch system's REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a dispatch client.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

var _ dispatch.Sender = (*Client)(nil)

type sendDTO struct {
	JournalpostID string               `json:"journalpostId"`
	BatchID       string               `json:"batchId"`
	Address       *journalpost.Address `json:"adresse,omitempty"`
}

func (c *Client) Send(ctx context.Context, req dispatch.Request) (*dispatch.Receipt, error) {
	encoded, err := json.Marshal(sendDTO{
		JournalpostID: req.JournalpostID,
		BatchID:       req.BatchID,
		Address:       req.Address,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/distribuerjournalpost", bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDownstream, "dispatch request")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, dErrors.New(dErrors.CodeDownstream, fmt.Sprintf("dispatch system returned %d", resp.StatusCode))
	}

	var receipt dispatch.Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}
