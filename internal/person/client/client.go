// Package client is the HTTP client for the person registry.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"dokflyt/internal/journalpost"
	"dokflyt/internal/person"
	dErrors "dokflyt/pkg/domain-errors"
	"dokflyt/pkg/platform/sentinel"
)

// Client implements person.Registry against the registry's REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a person registry client.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

var _ person.Registry = (*Client)(nil)

type personDTO struct {
	Ident   string               `json:"ident"`
	Name    string               `json:"navn"`
	Address *journalpost.Address `json:"bostedsadresse"`
}

func (c *Client) Lookup(ctx context.Context, ident string) (*person.Person, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/person/"+url.PathEscape(ident), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDownstream, "person registry request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
	case resp.StatusCode == http.StatusNotFound:
		return nil, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "person not found")
	default:
		return nil, dErrors.New(dErrors.CodeDownstream, fmt.Sprintf("person registry returned %d", resp.StatusCode))
	}

	var dto personDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return nil, err
	}
	return &person.Person{Ident: dto.Ident, Name: dto.Name, PostalAddress: dto.Address}, nil
}
