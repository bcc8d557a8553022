package dto

import "backoffice/internal/model"

// RegistrarOdooRequest triggers purchase-order creation in the ERP. The
// optional values override line defaults for every generated order.
type RegistrarOdooRequest struct {
	// PartnerID is the fallback supplier for lines that carry none.
	PartnerID     *int           `json:"partner_id"      validate:"omitempty,min=1"`
	PickingTypeID *int           `json:"picking_type_id" validate:"omitempty,min=1"`
	PartnerRef    *string        `json:"partner_ref"`
	DatePlanned   *string        `json:"date_planned"    validate:"omitempty,datetime=2006-01-02"`
	// ProductMapping resolves product codes without an ERP product id.
	ProductMapping map[string]int `json:"product_mapping"`
}

// RegistrarOdooResponse reports the per-supplier outcome. Exito is true only
// when every supplier registered without error; a partial failure leaves the
// estado unchanged so the operation can be retried.
type RegistrarOdooResponse struct {
	Exito               bool                 `json:"exito"`
	Estado              string               `json:"estado"`
	OdooPurchaseOrderID *string              `json:"odoo_purchase_order_id"`
	Resultados          model.ResultadosOdoo `json:"resultados"`
}

// RegistroOdooResponse is one persisted idempotency record.
type RegistroOdooResponse struct {
	ID            string  `json:"id"`
	PropuestaID   string  `json:"propuesta_id"`
	ProveedorID   int     `json:"proveedor_id"`
	Estado        string  `json:"estado"`
	OdooOrderID   *int64  `json:"odoo_order_id"`
	OdooOrderName *string `json:"odoo_order_name"`
	PartnerRef    *string `json:"partner_ref"`
	Error         *string `json:"error"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}
