package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SupabaseClient is a thin PostgREST client for the tables this service owns
// in Supabase (products_cache and the quoter's product images).
type SupabaseClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewSupabaseClient(baseURL, apiKey string) *SupabaseClient {
	return &SupabaseClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *SupabaseClient) newRequest(ctx context.Context, method, table string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + "/rest/v1/" + table
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Select runs a GET and decodes the JSON rows into dest. When exactCount is
// set the total row count (ignoring limit/offset) is returned as well;
// otherwise total is -1.
func (c *SupabaseClient) Select(ctx context.Context, table string, query url.Values, exactCount bool, dest any) (total int, err error) {
	req, err := c.newRequest(ctx, http.MethodGet, table, query, nil)
	if err != nil {
		return -1, fmt.Errorf("supabase: create request: %w", err)
	}
	if exactCount {
		req.Header.Set("Prefer", "count=exact")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return -1, fmt.Errorf("supabase: unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return -1, fmt.Errorf("supabase: select %s returned %d: %s", table, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return -1, fmt.Errorf("supabase: decode rows: %w", err)
	}

	total = -1
	if exactCount {
		// Content-Range: items 0-49/123
		if cr := resp.Header.Get("Content-Range"); cr != "" {
			if idx := strings.LastIndex(cr, "/"); idx >= 0 {
				if n, convErr := strconv.Atoi(cr[idx+1:]); convErr == nil {
					total = n
				}
			}
		}
	}
	return total, nil
}

// Upsert inserts rows resolving conflicts on the given column by merging.
func (c *SupabaseClient) Upsert(ctx context.Context, table, onConflict string, rows any) error {
	body, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("supabase: marshal rows: %w", err)
	}

	query := url.Values{"on_conflict": {onConflict}}
	req, err := c.newRequest(ctx, http.MethodPost, table, query, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("supabase: create request: %w", err)
	}
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("supabase: unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("supabase: upsert %s returned %d: %s", table, resp.StatusCode, respBody)
	}
	return nil
}

// Update patches the rows matched by query.
func (c *SupabaseClient) Update(ctx context.Context, table string, query url.Values, patch any) error {
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("supabase: marshal patch: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPatch, table, query, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("supabase: create request: %w", err)
	}
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("supabase: unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("supabase: update %s returned %d: %s", table, resp.StatusCode, respBody)
	}
	return nil
}
