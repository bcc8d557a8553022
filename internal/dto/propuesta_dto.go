package dto

import (
	"github.com/shopspring/decimal"

	"backoffice/internal/model"
)

// ─── Filter / List ──────────────────────────────────────────────────────────

// PropuestaFilter is bound from query string of GET /v1/propuestas.
type PropuestaFilter struct {
	Estado      string `form:"estado"`
	CompradorID string `form:"comprador_id" validate:"omitempty,uuid"`
	Busqueda    string `form:"busqueda"` // matches numero or proveedor
	Page        int    `form:"page,default=1"   validate:"min=1"`
	Limit       int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type PropuestaListItem struct {
	ID               string          `json:"id"`
	Numero           string          `json:"numero"`
	CompradorID      string          `json:"comprador_id"`
	CompradorNombre  string          `json:"comprador_nombre"`
	Proveedor        *string         `json:"proveedor"`
	Estado           string          `json:"estado"`
	CategoriaID      *int            `json:"categoria_id"`
	CategoriaNombre  *string         `json:"categoria_nombre"`
	TotalItems       int             `json:"total_items"`
	MontoTotal       decimal.Decimal `json:"monto_total"`
	FechaEnvio       *string         `json:"fecha_envio"`
	FechaAprobacion  *string         `json:"fecha_aprobacion_rechazo"`
	CreatedAt        string          `json:"created_at"`
	UpdatedAt        string          `json:"updated_at"`
}

type PropuestaListResponse struct {
	Data  []PropuestaListItem `json:"data"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AlmacenRequest struct {
	ID     int    `json:"id"   validate:"required,min=1"`
	Nombre string `json:"name" validate:"required"`
}

type CrearPropuestaRequest struct {
	Proveedor   *string          `json:"proveedor"`
	CategoriaID *int             `json:"categoria_id"`
	Almacenes   []AlmacenRequest `json:"almacenes" validate:"omitempty,dive"`
	Items       []CrearItemRequest `json:"items"   validate:"omitempty,dive"`
}

// ActualizarPropuestaRequest edits header fields. Only valid in borrador,
// except for gerentes acting through the modificar action.
type ActualizarPropuestaRequest struct {
	Proveedor   *string          `json:"proveedor"`
	CategoriaID *int             `json:"categoria_id"`
	Almacenes   []AlmacenRequest `json:"almacenes" validate:"omitempty,dive"`
}

// ComentarioRequest carries the audit comment of a state-changing action.
type ComentarioRequest struct {
	Comentario string `json:"comentario"`
}

// RechazarRequest requires a reason; a bare rejection is not auditable.
type RechazarRequest struct {
	Comentario string `json:"comentario" validate:"required,min=3"`
}

// ModificarGerenteRequest lets a gerente adjust quantities while approving.
// Every referenced item must belong to the proposal.
type ModificarGerenteRequest struct {
	Comentario string                   `json:"comentario" validate:"required,min=3"`
	Items      []ModificarItemCantidad  `json:"items"      validate:"required,min=1,dive"`
}

type ModificarItemCantidad struct {
	ItemID            string          `json:"item_id"            validate:"required,uuid"`
	CantidadPropuesta decimal.Decimal `json:"cantidad_propuesta" validate:"required"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PropuestaResponse struct {
	ID                  string                  `json:"id"`
	Numero              string                  `json:"numero"`
	CompradorID         string                  `json:"comprador_id"`
	CompradorNombre     string                  `json:"comprador_nombre"`
	Proveedor           *string                 `json:"proveedor"`
	Estado              string                  `json:"estado"`
	CategoriaID         *int                    `json:"categoria_id"`
	CategoriaNombre     *string                 `json:"categoria_nombre"`
	Almacenes           model.Almacenes         `json:"almacenes"`
	Items               []ItemResponse          `json:"items"`
	HistorialEventos    model.HistorialEventos  `json:"historial_eventos"`
	UsuarioAprobadorID  *string                 `json:"usuario_aprobador_id"`
	OdooPurchaseOrderID *string                 `json:"odoo_purchase_order_id"`
	OdooResponse        model.ResultadosOdoo    `json:"odoo_response,omitempty"`
	MontoTotal          decimal.Decimal         `json:"monto_total"`
	FechaEnvio          *string                 `json:"fecha_envio"`
	FechaAprobacion     *string                 `json:"fecha_aprobacion_rechazo"`
	FechaRegistroOdoo   *string                 `json:"fecha_registro_odoo"`
	CreatedAt           string                  `json:"created_at"`
	UpdatedAt           string                  `json:"updated_at"`
}
