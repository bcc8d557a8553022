package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Estados of a PropuestaCompra. "registrada_odoo" is terminal.
const (
	EstadoBorrador            = "borrador"
	EstadoPendienteAprobacion = "pendiente_aprobacion"
	EstadoAprobada            = "aprobada"
	EstadoModificadaAprobada  = "modificada_aprobada"
	EstadoRechazada           = "rechazada"
	EstadoEnviada             = "enviada"
	EstadoRegistradaOdoo      = "registrada_odoo"
)

// transiciones holds the full transition graph. Every state change goes
// through PuedeTransicionar; there is no other path between estados.
var transiciones = map[string][]string{
	EstadoBorrador:            {EstadoPendienteAprobacion},
	EstadoPendienteAprobacion: {EstadoAprobada, EstadoModificadaAprobada, EstadoRechazada},
	EstadoAprobada:            {EstadoEnviada, EstadoRechazada, EstadoBorrador, EstadoRegistradaOdoo},
	EstadoModificadaAprobada:  {EstadoEnviada, EstadoRechazada, EstadoBorrador, EstadoRegistradaOdoo},
	EstadoRechazada:           {EstadoBorrador},
	EstadoEnviada:             {},
	EstadoRegistradaOdoo:      {},
}

// PuedeTransicionar reports whether desde → hacia is a legal estado change.
func PuedeTransicionar(desde, hacia string) bool {
	for _, e := range transiciones[desde] {
		if e == hacia {
			return true
		}
	}
	return false
}

// EventoHistorial is one append-only entry in the proposal audit trail.
type EventoHistorial struct {
	Timestamp     time.Time `json:"timestamp"`
	UsuarioID     string    `json:"usuario_id"`
	UsuarioNombre string    `json:"usuario_nombre"`
	Accion        string    `json:"accion"`      // "estado_anterior -> estado_nuevo"
	TipoAccion    string    `json:"tipo_accion"` // cambio_estado | modificacion | registro_odoo
	Comentario    string    `json:"comentario,omitempty"`
}

// HistorialEventos is stored as a JSONB array.
type HistorialEventos []EventoHistorial

func (h HistorialEventos) Value() (driver.Value, error) {
	if h == nil {
		h = HistorialEventos{}
	}
	return json.Marshal(h)
}

func (h *HistorialEventos) Scan(src any) error {
	return scanJSONB(src, h)
}

// AlmacenRef references an ERP warehouse by id, keeping the name denormalized
// so listings do not need a round trip to the ERP.
type AlmacenRef struct {
	ID     int    `json:"id"`
	Nombre string `json:"name"`
}

// Almacenes is stored as a JSONB array.
type Almacenes []AlmacenRef

func (a Almacenes) Value() (driver.Value, error) {
	if a == nil {
		a = Almacenes{}
	}
	return json.Marshal(a)
}

func (a *Almacenes) Scan(src any) error {
	return scanJSONB(src, a)
}

// ResultadoOdoo records the outcome of one supplier's purchase-order creation.
type ResultadoOdoo struct {
	ProveedorID int    `json:"proveedor_id"`
	Estado      string `json:"estado"` // exitoso | fallido
	OrderID     int64  `json:"order_id,omitempty"`
	OrderName   string `json:"order_name,omitempty"`
	PartnerRef  string `json:"partner_ref,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ResultadosOdoo is stored as a JSONB array.
type ResultadosOdoo []ResultadoOdoo

func (r ResultadosOdoo) Value() (driver.Value, error) {
	if r == nil {
		r = ResultadosOdoo{}
	}
	return json.Marshal(r)
}

func (r *ResultadosOdoo) Scan(src any) error {
	return scanJSONB(src, r)
}

func scanJSONB(src, dest any) error {
	if src == nil {
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("jsonb scan: unsupported type %T", src)
	}
}

// PropuestaCompra is a purchase proposal moving through the approval workflow
// until its purchase orders are registered in the ERP.
type PropuestaCompra struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Numero      string    `gorm:"uniqueIndex;not null"`
	CompradorID uuid.UUID `gorm:"type:uuid;not null;index"`
	Comprador   *Usuario  `gorm:"foreignKey:CompradorID"`
	// Proveedor is free text shown on listings; the authoritative supplier of
	// each line lives in ItemPropuestaCompra.ProveedorID.
	Proveedor *string
	Estado    string `gorm:"type:varchar(30);not null;default:borrador;index"`

	CategoriaID     *int
	CategoriaNombre *string
	Almacenes       Almacenes `gorm:"type:jsonb;not null;default:'[]'"`

	FechaEnvio             *time.Time
	FechaAprobacionRechazo *time.Time
	FechaRegistroOdoo      *time.Time

	UsuarioAprobadorID *uuid.UUID `gorm:"type:uuid"`
	UsuarioAprobador   *Usuario   `gorm:"foreignKey:UsuarioAprobadorID"`

	HistorialEventos HistorialEventos `gorm:"type:jsonb;not null;default:'[]'"`

	// OdooPurchaseOrderID holds the comma-joined order ids once registered.
	OdooPurchaseOrderID *string
	OdooResponse        ResultadosOdoo `gorm:"type:jsonb"`

	Items []ItemPropuestaCompra `gorm:"foreignKey:PropuestaID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PropuestaCompra) TableName() string { return "propuestas_compra" }

// AgregarEvento appends an audit entry. The slice is append-only: entries are
// never rewritten or removed.
func (p *PropuestaCompra) AgregarEvento(usuario *Usuario, accion, tipoAccion, comentario string) {
	p.HistorialEventos = append(p.HistorialEventos, EventoHistorial{
		Timestamp:     time.Now().UTC(),
		UsuarioID:     usuario.ID.String(),
		UsuarioNombre: usuario.NombreCompleto(),
		Accion:        accion,
		TipoAccion:    tipoAccion,
		Comentario:    comentario,
	})
}
