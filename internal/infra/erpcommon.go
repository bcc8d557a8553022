package infra

import (
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

// ERPCommonClient proxies read-only catalogs served by the ERP's common API:
// warehouses, suppliers, product classifications and stock forecasts.
// Responses are passed through verbatim; this service adds no shape of its own.
type ERPCommonClient struct {
	baseURL    string
	userID     int
	httpClient *http.Client
}

func NewERPCommonClient(baseURL string, userID int) *ERPCommonClient {
	return &ERPCommonClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userID:     userID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Get performs a GET against the given resource path and returns the raw JSON
// body together with the upstream status code. Query params are forwarded and
// the service account user_id is always included.
func (c *ERPCommonClient) Get(ctx context.Context, path string, params url.Values) (json.RawMessage, int, error) {
	if params == nil {
		params = url.Values{}
	}
	if params.Get("user_id") == "" {
		params.Set("user_id", strconv.Itoa(c.userID))
	}

	u := c.baseURL + "/" + strings.TrimLeft(path, "/") + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("erpcommon: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("erpcommon: unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, 0, fmt.Errorf("erpcommon: read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// Almacenes lists warehouse location classifications.
func (c *ERPCommonClient) Almacenes(ctx context.Context, params url.Values) (json.RawMessage, int, error) {
	return c.Get(ctx, "location-classifications/", params)
}

// Proveedores lists supplier partners.
func (c *ERPCommonClient) Proveedores(ctx context.Context, params url.Values) (json.RawMessage, int, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("supplier", "true")
	return c.Get(ctx, "res-partners/", params)
}

// CategoriasProductos lists product classifications.
func (c *ERPCommonClient) CategoriasProductos(ctx context.Context, params url.Values) (json.RawMessage, int, error) {
	return c.Get(ctx, "product-classifications/", params)
}

// PronosticoExistencias returns the stock forecast used to prefill proposal
// lines.
func (c *ERPCommonClient) PronosticoExistencias(ctx context.Context, params url.Values) (json.RawMessage, int, error) {
	return c.Get(ctx, "stock-forecasting/", params)
}
