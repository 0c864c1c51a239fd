// Package records is a thin client for the hosted relational data API.
//
// The store exposes each table at /rest/v1/<table> with column predicates as
// query parameters ("google_id=eq.abc123"), and stored procedures at
// /rest/v1/rpc/<name>. All calls are plain HTTPS round trips; the store is
// the durable source of truth and this package never caches.
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const restPrefix = "/rest/v1"

// Client talks to one store instance. Safe for concurrent use.
type Client struct {
	http *resty.Client
}

// Config carries the connection settings for a store instance.
//
// AnonKey is sent as the apikey header on every request. ServiceKey, when
// set, is used as the bearer token and grants row-level-security bypass;
// handlers performing privileged reads (admin listing, provisioning) need it.
type Config struct {
	BaseURL    string
	AnonKey    string
	ServiceKey string
	Timeout    time.Duration
}

// New builds a Client from cfg. A zero Timeout defaults to 10s.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	bearer := cfg.ServiceKey
	if bearer == "" {
		bearer = cfg.AnonKey
	}

	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("apikey", cfg.AnonKey).
		SetHeader("Authorization", "Bearer "+bearer).
		SetHeader("Content-Type", "application/json")

	return &Client{http: c}
}

// Select fetches rows from table matching filters and decodes the JSON array
// into dest (a pointer to a slice). Filters use the store's predicate syntax,
// e.g. {"google_id": "eq.abc123"}. A zero limit fetches all matching rows.
func (c *Client) Select(ctx context.Context, table string, filters map[string]string, limit int, dest any) error {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("select", "*")

	for col, pred := range filters {
		req.SetQueryParam(col, pred)
	}
	if limit > 0 {
		req.SetQueryParam("limit", fmt.Sprintf("%d", limit))
	}

	resp, err := req.Get(restPrefix + "/" + table)
	if err != nil {
		return fmt.Errorf("records: select %s: %w", table, err)
	}
	if resp.IsError() {
		return apiError(table, resp)
	}

	if dest != nil {
		if err := json.Unmarshal(resp.Body(), dest); err != nil {
			return fmt.Errorf("records: decode %s rows: %w", table, err)
		}
	}
	return nil
}

// Insert adds one row to table. When dest is non-nil the inserted
// representation (including store-assigned columns) is decoded into it;
// dest must be a pointer to a slice of the row type.
func (c *Client) Insert(ctx context.Context, table string, row any, dest any) error {
	req := c.http.R().
		SetContext(ctx).
		SetBody(row)
	if dest != nil {
		req.SetHeader("Prefer", "return=representation")
	} else {
		req.SetHeader("Prefer", "return=minimal")
	}

	resp, err := req.Post(restPrefix + "/" + table)
	if err != nil {
		return fmt.Errorf("records: insert %s: %w", table, err)
	}
	if resp.IsError() {
		return apiError(table, resp)
	}

	if dest != nil {
		if err := json.Unmarshal(resp.Body(), dest); err != nil {
			return fmt.Errorf("records: decode inserted %s row: %w", table, err)
		}
	}
	return nil
}

// Update patches all rows in table matching filters with the non-zero
// columns of patch. The caller keys updates by primary id in practice;
// filters must never be empty (a full-table update is always a bug here).
func (c *Client) Update(ctx context.Context, table string, filters map[string]string, patch any) error {
	if len(filters) == 0 {
		return fmt.Errorf("records: update %s: refusing unfiltered update", table)
	}

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=minimal").
		SetBody(patch)
	for col, pred := range filters {
		req.SetQueryParam(col, pred)
	}

	resp, err := req.Patch(restPrefix + "/" + table)
	if err != nil {
		return fmt.Errorf("records: update %s: %w", table, err)
	}
	if resp.IsError() {
		return apiError(table, resp)
	}
	return nil
}

// RPC calls the stored procedure fn with args (marshalled as the JSON body).
// Not every store instance defines every procedure; a missing routine is
// reported as an *APIError for which IsMissingRoutine returns true.
func (c *Client) RPC(ctx context.Context, fn string, args any, dest any) error {
	req := c.http.R().
		SetContext(ctx).
		SetBody(args)

	resp, err := req.Post(restPrefix + "/rpc/" + fn)
	if err != nil {
		return fmt.Errorf("records: rpc %s: %w", fn, err)
	}
	if resp.IsError() {
		return apiError("rpc/"+fn, resp)
	}

	if dest != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), dest); err != nil {
			return fmt.Errorf("records: decode rpc %s result: %w", fn, err)
		}
	}
	return nil
}

// Ping verifies the store answers at all. Used by the health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get(restPrefix + "/")
	if err != nil {
		return fmt.Errorf("records: ping: %w", err)
	}
	// The REST root answers 200 with the schema description; any response
	// short of a server error means the store is reachable.
	if resp.StatusCode() >= http.StatusInternalServerError {
		return fmt.Errorf("records: ping: store returned %d", resp.StatusCode())
	}
	return nil
}
