package model

import "time"

// ProductoCache is one row of the products_cache table kept in Supabase.
// It is not a gorm model: rows are written through the PostgREST client,
// upserting on reference_mask.
type ProductoCache struct {
	ID              int64   `json:"id"`
	Name            *string `json:"name"`
	ReferenceMask   string  `json:"reference_mask"`
	TypeID          *int    `json:"type_id"`
	FamilyID        *int    `json:"family_id"`
	LineID          *int    `json:"line_id"`
	GroupID         *int    `json:"group_id"`
	TypeName        *string `json:"type_name"`
	FamilyName      *string `json:"family_name"`
	LineName        *string `json:"line_name"`
	GroupName       *string `json:"group_name"`
	IsLine          bool    `json:"is_line"`
	Active          bool    `json:"active"`
	DefaultCode     *string `json:"default_code,omitempty"`
	DescriptionSale *string `json:"description_sale,omitempty"`
	ImageURL        *string `json:"image_url"`
	LastSync        string  `json:"last_sync"`
}

// ErpProducto is the read-only projection pulled from the ERP replica:
// product_template joined to its type, family, line and group names plus the
// es_MX translation of the product name.
type ErpProducto struct {
	ID            int64   `gorm:"column:id"`
	ReferenceMask *string `gorm:"column:reference_mask"`
	NotePricelist *string `gorm:"column:note_pricelist"`
	TypeID        *int    `gorm:"column:type_id"`
	FamilyID      *int    `gorm:"column:family_id"`
	LineID        *int    `gorm:"column:line_id"`
	GroupID       *int    `gorm:"column:group_id"`
	IsLine        bool    `gorm:"column:is_line"`
	Pricelist     bool    `gorm:"column:pricelist"`
	Active        bool    `gorm:"column:active"`
	TypeName      *string `gorm:"column:type_name"`
	FamilyName    *string `gorm:"column:family_name"`
	LineName      *string `gorm:"column:line_name"`
	GroupName     *string `gorm:"column:group_name"`
	NameSpanish   *string `gorm:"column:name_spanish"`
}

// Clave returns the upsert key: reference_mask falling back to
// note_pricelist. Empty means the row cannot be cached.
func (p *ErpProducto) Clave() string {
	if p.ReferenceMask != nil && *p.ReferenceMask != "" {
		return *p.ReferenceMask
	}
	if p.NotePricelist != nil && *p.NotePricelist != "" {
		return *p.NotePricelist
	}
	return ""
}

// SyncStats summarizes one product-cache synchronization run.
type SyncStats struct {
	Total             int           `json:"total_products"`
	Exitosos          int           `json:"successful"`
	Fallidos          int           `json:"failed"`
	ConImagen         int           `json:"with_images"`
	ImagenesPreservas int           `json:"preserved_images"`
	Duracion          time.Duration `json:"-"`
	DuracionSegundos  float64       `json:"duration_seconds"`
}
