package model

import (
	"time"

	"github.com/google/uuid"
)

// Estados of a RegistroOdoo.
const (
	RegistroPendiente = "pendiente"
	RegistroExitoso   = "exitoso"
	RegistroFallido   = "fallido"
)

// RegistroOdoo tracks the purchase-order creation of one supplier within one
// proposal. The (propuesta, proveedor) pair is unique, so retrying a
// partially failed registration skips suppliers already exitoso instead of
// creating duplicate orders in the ERP.
type RegistroOdoo struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PropuestaID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_registro_propuesta_proveedor"`
	Propuesta   *PropuestaCompra `gorm:"foreignKey:PropuestaID"`
	ProveedorID int              `gorm:"not null;uniqueIndex:idx_registro_propuesta_proveedor"`

	Estado        string `gorm:"type:varchar(20);not null;default:pendiente"`
	OdooOrderID   *int64
	OdooOrderName *string
	PartnerRef    *string
	Error         *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (RegistroOdoo) TableName() string { return "registros_odoo" }
