package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemPropuestaCompra is one product line of a purchase proposal.
// A product code appears at most once per proposal.
type ItemPropuestaCompra struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PropuestaID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_propuesta_codigo"`
	Propuesta   *PropuestaCompra `gorm:"foreignKey:PropuestaID"`

	Categoria string `gorm:"not null"`
	Codigo    string `gorm:"not null;uniqueIndex:idx_propuesta_codigo"`
	Producto  string `gorm:"not null"`
	Medida    *string

	Costo          decimal.Decimal `gorm:"type:decimal(15,6);not null;default:0"`
	Existencia     decimal.Decimal `gorm:"type:decimal(15,6);not null;default:0"`
	Comprometido   decimal.Decimal `gorm:"type:decimal(15,6);not null;default:0"`
	Libre          decimal.Decimal `gorm:"type:decimal(15,6);not null;default:0"`
	ConsumoMensual decimal.Decimal `gorm:"type:decimal(15,6);not null;default:0"`
	InvMensuales   decimal.Decimal `gorm:"type:decimal(15,6);not null;default:0"`
	CantidadOC     decimal.Decimal `gorm:"type:decimal(15,6);not null;default:0"`
	Produccion     decimal.Decimal `gorm:"type:decimal(15,6);not null;default:0"`

	// CantidadPropuesta is the quantity to order; lines with zero are pruned
	// when the proposal is submitted for approval.
	CantidadPropuesta decimal.Decimal `gorm:"type:decimal(15,6);not null;default:0"`
	Meses             decimal.Decimal `gorm:"type:decimal(15,6);not null;default:0"`
	Registrar         bool            `gorm:"not null;default:true"`
	Comentarios       *string

	// ERP references needed to build the purchase-order line.
	ProveedorID *int `gorm:"index"`
	ProductID   *int
	MedidaID    *int
	CurrencyID  *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ItemPropuestaCompra) TableName() string { return "items_propuesta_compra" }

// Subtotal is costo * cantidad_propuesta.
func (i *ItemPropuestaCompra) Subtotal() decimal.Decimal {
	return i.Costo.Mul(i.CantidadPropuesta)
}
