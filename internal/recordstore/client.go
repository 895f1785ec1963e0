package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxErrorBody = 512

// StatusError is returned when the store answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("record store returned %d: %s", e.StatusCode, e.Body)
}

// Client calls the record store over HTTP. Each operation is a POST of a
// JSON body to {base}/tables/{table}/{op}.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a client for the store rooted at baseURL.
func NewClient(baseURL, apiKey string, timeout time.Duration, log zerolog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid record store url %q", baseURL)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "recordstore").Logger(),
	}, nil
}

// Fetch returns the records of table matching q.
func (c *Client) Fetch(ctx context.Context, table string, q Query) (*FetchResponse, error) {
	var resp FetchResponse
	if err := c.do(ctx, table, "fetch", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Get returns one record of table by id.
func (c *Client) Get(ctx context.Context, table string, id int64, q Query) (*GetResponse, error) {
	var resp GetResponse
	if err := c.do(ctx, table, "get", GetRequest{ID: id, Query: q}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Create inserts records into table.
func (c *Client) Create(ctx context.Context, table string, records []Record) (*WriteResponse, error) {
	return c.write(ctx, table, "create", WriteRequest{Records: records})
}

// Update writes the fields present in each record. Every record must carry
// its Id.
func (c *Client) Update(ctx context.Context, table string, records []Record) (*WriteResponse, error) {
	return c.write(ctx, table, "update", WriteRequest{Records: records})
}

// Delete removes the records with the given ids from table.
func (c *Client) Delete(ctx context.Context, table string, ids []int64) (*WriteResponse, error) {
	return c.write(ctx, table, "delete", DeleteRequest{RecordIDs: ids})
}

func (c *Client) write(ctx context.Context, table, op string, body any) (*WriteResponse, error) {
	var resp WriteResponse
	if err := c.do(ctx, table, op, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, table, op string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", op, err)
	}

	endpoint := fmt.Sprintf("%s/tables/%s/%s", c.baseURL, url.PathEscape(table), op)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}

	requestID := middleware.GetReqID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, table, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("table", table).
		Str("op", op).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("record store call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}

	return nil
}
