package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"backoffice/internal/apierror"
	"backoffice/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ERPProxyHandler exposes read-only lookups against the ERP common API.
// Responses pass through as-is; only the authenticated user_id is injected.
type ERPProxyHandler struct {
	client *infra.ERPCommonClient
}

func NewERPProxyHandler(client *infra.ERPCommonClient) *ERPProxyHandler {
	return &ERPProxyHandler{client: client}
}

type erpCall func(ctx context.Context, params url.Values) (json.RawMessage, int, error)

func (h *ERPProxyHandler) proxy(c *gin.Context, nombre string, fn erpCall) {
	params := url.Values{}
	for k, vs := range c.Request.URL.Query() {
		for _, v := range vs {
			params.Add(k, v)
		}
	}

	body, status, err := fn(c.Request.Context(), params)
	if err != nil {
		log.Warn().Err(err).Str("recurso", nombre).Msg("erp_proxy: upstream error")
		c.JSON(http.StatusBadGateway, apierror.New("El ERP no respondió"))
		return
	}
	c.Data(status, "application/json", body)
}

// Almacenes GET /v1/erp/almacenes
func (h *ERPProxyHandler) Almacenes(c *gin.Context) {
	h.proxy(c, "almacenes", h.client.Almacenes)
}

// Proveedores GET /v1/erp/proveedores
func (h *ERPProxyHandler) Proveedores(c *gin.Context) {
	h.proxy(c, "proveedores", h.client.Proveedores)
}

// CategoriasProductos GET /v1/erp/categorias-productos
func (h *ERPProxyHandler) CategoriasProductos(c *gin.Context) {
	h.proxy(c, "categorias-productos", h.client.CategoriasProductos)
}

// PronosticoExistencias GET /v1/erp/pronostico-existencias
func (h *ERPProxyHandler) PronosticoExistencias(c *gin.Context) {
	h.proxy(c, "pronostico-existencias", h.client.PronosticoExistencias)
}
