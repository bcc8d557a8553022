package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// ItemFilter is bound from query string of GET /v1/items.
type ItemFilter struct {
	PropuestaID string `form:"propuesta_id" validate:"omitempty,uuid"`
	Codigo      string `form:"codigo"`
	Categoria   string `form:"categoria"`
	ProveedorID *int   `form:"proveedor_id"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearItemRequest struct {
	Categoria string  `json:"categoria" validate:"required"`
	Codigo    string  `json:"codigo"    validate:"required"`
	Producto  string  `json:"producto"  validate:"required"`
	Medida    *string `json:"medida"`

	Costo          decimal.Decimal `json:"costo"           validate:"required"`
	Existencia     decimal.Decimal `json:"existencia"`
	Comprometido   decimal.Decimal `json:"comprometido"`
	Libre          decimal.Decimal `json:"libre"`
	ConsumoMensual decimal.Decimal `json:"consumo_mensual"`
	InvMensuales   decimal.Decimal `json:"inv_mensuales"`
	CantidadOC     decimal.Decimal `json:"cantidad_oc"`
	Produccion     decimal.Decimal `json:"produccion"`

	CantidadPropuesta decimal.Decimal `json:"cantidad_propuesta"`
	Meses             decimal.Decimal `json:"meses"`
	Registrar         *bool           `json:"registrar"`
	Comentarios       *string         `json:"comentarios"`

	ProveedorID *int `json:"proveedor_id"`
	ProductID   *int `json:"product_id"`
	MedidaID    *int `json:"medida_id"`
	CurrencyID  *int `json:"currency_id"`
}

type ActualizarItemRequest struct {
	Costo             *decimal.Decimal `json:"costo"`
	CantidadPropuesta *decimal.Decimal `json:"cantidad_propuesta"`
	Meses             *decimal.Decimal `json:"meses"`
	Registrar         *bool            `json:"registrar"`
	Comentarios       *string          `json:"comentarios"`
	ProveedorID       *int             `json:"proveedor_id"`
	CurrencyID        *int             `json:"currency_id"`
}

// BulkUpdateItemsRequest applies the same partial update to many items of one
// proposal in a single transaction.
type BulkUpdateItemsRequest struct {
	PropuestaID string                `json:"propuesta_id" validate:"required,uuid"`
	Items       []BulkItemUpdate      `json:"items"        validate:"required,min=1,dive"`
}

type BulkItemUpdate struct {
	ItemID            string           `json:"item_id" validate:"required,uuid"`
	CantidadPropuesta *decimal.Decimal `json:"cantidad_propuesta"`
	Meses             *decimal.Decimal `json:"meses"`
	Registrar         *bool            `json:"registrar"`
	Comentarios       *string          `json:"comentarios"`
}

// UpdateProveedoresRequest reassigns supplier and currency line by line.
// Unlike the other item edits this works in any estado: suppliers are usually
// decided after approval, right before the orders are registered.
type UpdateProveedoresRequest struct {
	Items []ItemProveedorUpdate `json:"items" validate:"required,min=1,dive"`
}

type ItemProveedorUpdate struct {
	ItemID      string `json:"item_id"      validate:"required,uuid"`
	ProveedorID int    `json:"proveedor_id" validate:"required,min=1"`
	CurrencyID  *int   `json:"currency_id"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemResponse struct {
	ID          string  `json:"id"`
	PropuestaID string  `json:"propuesta_id"`
	Categoria   string  `json:"categoria"`
	Codigo      string  `json:"codigo"`
	Producto    string  `json:"producto"`
	Medida      *string `json:"medida"`

	Costo          decimal.Decimal `json:"costo"`
	Existencia     decimal.Decimal `json:"existencia"`
	Comprometido   decimal.Decimal `json:"comprometido"`
	Libre          decimal.Decimal `json:"libre"`
	ConsumoMensual decimal.Decimal `json:"consumo_mensual"`
	InvMensuales   decimal.Decimal `json:"inv_mensuales"`
	CantidadOC     decimal.Decimal `json:"cantidad_oc"`
	Produccion     decimal.Decimal `json:"produccion"`

	CantidadPropuesta decimal.Decimal `json:"cantidad_propuesta"`
	Meses             decimal.Decimal `json:"meses"`
	Registrar         bool            `json:"registrar"`
	Comentarios       *string         `json:"comentarios"`
	Subtotal          decimal.Decimal `json:"subtotal"`

	ProveedorID *int `json:"proveedor_id"`
	ProductID   *int `json:"product_id"`
	MedidaID    *int `json:"medida_id"`
	CurrencyID  *int `json:"currency_id"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
