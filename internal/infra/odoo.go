package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OdooAuthError means the ERP rejected the caller's credentials (error code
// 102, wrong login, or an HTTP 401/403). Callers must not retry with the same
// credentials.
type OdooAuthError struct {
	Msg string
}

func (e *OdooAuthError) Error() string { return "odoo auth: " + e.Msg }

// OdooAPIError covers every other ERP-side or transport failure. Retryable.
type OdooAPIError struct {
	Msg string
}

func (e *OdooAPIError) Error() string { return "odoo api: " + e.Msg }

// OdooCredentials authenticate one buyer against the ERP purchase endpoint.
type OdooCredentials struct {
	Login    string
	Password string
	APIKey   string
}

// OdooPayload mirrors the create_purchase contract: the fields list selects
// what the ERP echoes back for the created order.
type OdooPayload struct {
	Fields []string       `json:"fields"`
	Values map[string]any `json:"values"`
}

// OdooOrderResult is the created purchase order extracted from the "New
// resource" envelope.
type OdooOrderResult struct {
	ID          int64
	Name        string
	PartnerRef  string
	PartnerID   int
	PartnerName string
}

// OdooClient talks to the ERP purchase-order endpoint. The endpoint wraps its
// real response in a JSON-encoded string inside "result", so the client
// unwraps two layers before returning.
type OdooClient struct {
	endpoint   string
	httpClient *http.Client
}

func NewOdooClient(endpoint string) *OdooClient {
	// The shared ERP endpoint serves several models; force purchase.order.
	if !strings.Contains(endpoint, "model=") {
		endpoint += "?model=purchase.order"
	} else if strings.Contains(endpoint, "model=sale.order") {
		endpoint = strings.Replace(endpoint, "model=sale.order", "model=purchase.order", 1)
	}
	return &OdooClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// CreatePurchaseOrder posts one order and returns the created resource.
func (c *OdooClient) CreatePurchaseOrder(ctx context.Context, creds OdooCredentials, payload OdooPayload) (*OdooOrderResult, error) {
	if creds.Login == "" || creds.Password == "" || creds.APIKey == "" {
		return nil, &OdooAuthError{Msg: "user has no active ERP credentials"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &OdooAPIError{Msg: fmt.Sprintf("marshal payload: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &OdooAPIError{Msg: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("login", creds.Login)
	req.Header.Set("password", creds.Password)
	req.Header.Set("Api-Key", creds.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &OdooAPIError{Msg: fmt.Sprintf("unreachable: %v", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &OdooAPIError{Msg: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &OdooAuthError{Msg: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, truncate(raw, 200))}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &OdooAPIError{Msg: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, truncate(raw, 200))}
	}

	inner, err := unwrapResult(raw)
	if err != nil {
		return nil, err
	}
	return parseNewResource(inner)
}

// unwrapResult extracts and decodes the JSON string carried in "result".
// Depending on the ERP version the field is either the string itself or a
// one-element list containing it.
func unwrapResult(raw []byte) ([]byte, error) {
	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &OdooAPIError{Msg: fmt.Sprintf("invalid JSON response: %v", err)}
	}
	if len(envelope.Result) == 0 {
		return nil, &OdooAPIError{Msg: "response has no result field"}
	}

	var innerStr string
	if err := json.Unmarshal(envelope.Result, &innerStr); err != nil {
		var list []string
		if err := json.Unmarshal(envelope.Result, &list); err != nil || len(list) == 0 {
			return nil, &OdooAPIError{Msg: "result is neither a string nor a string list"}
		}
		innerStr = list[0]
	}
	return []byte(innerStr), nil
}

// parseNewResource validates the inner document and extracts the created
// order. Application-level errors hide in here with HTTP 200.
func parseNewResource(inner []byte) (*OdooOrderResult, error) {
	var doc struct {
		Status      string          `json:"status"`
		Error       string          `json:"error"`
		ErrorCode   string          `json:"error_code"`
		NewResource json.RawMessage `json:"New resource"`
	}
	if err := json.Unmarshal(inner, &doc); err != nil {
		return nil, &OdooAPIError{Msg: fmt.Sprintf("invalid inner document: %v", err)}
	}

	if doc.Status == "Error" || doc.Error != "" {
		msg := doc.Error
		if msg == "" {
			msg = "unknown ERP application error"
		}
		if doc.ErrorCode == "102" ||
			strings.Contains(msg, "Wrong login credentials") ||
			strings.Contains(msg, "Access denied") {
			return nil, &OdooAuthError{Msg: msg}
		}
		return nil, &OdooAPIError{Msg: fmt.Sprintf("%s (code %s)", msg, doc.ErrorCode)}
	}

	var resources []struct {
		ID         int64           `json:"id"`
		Name       string          `json:"name"`
		PartnerRef string          `json:"partner_ref"`
		PartnerID  json.RawMessage `json:"partner_id"`
	}
	if err := json.Unmarshal(doc.NewResource, &resources); err != nil || len(resources) == 0 {
		return nil, &OdooAPIError{Msg: "response carries no created resource"}
	}

	r := resources[0]
	result := &OdooOrderResult{
		ID:         r.ID,
		Name:       r.Name,
		PartnerRef: r.PartnerRef,
	}
	// partner_id comes back either as an id or as an [id, name] pair.
	var pair []json.RawMessage
	if err := json.Unmarshal(r.PartnerID, &pair); err == nil && len(pair) >= 1 {
		_ = json.Unmarshal(pair[0], &result.PartnerID)
		if len(pair) >= 2 {
			_ = json.Unmarshal(pair[1], &result.PartnerName)
		}
	} else {
		_ = json.Unmarshal(r.PartnerID, &result.PartnerID)
	}
	return result, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "…"
}
