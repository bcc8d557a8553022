package repository

import (
	"context"

	"gorm.io/gorm"

	"backoffice/internal/model"
)

// ErpProductoRepository reads the product catalog off the ERP replica.
// Raw SQL because the replica schema is Odoo's, not ours.
type ErpProductoRepository interface {
	// ListForSync returns every active line product eligible for the cache,
	// excluding the given reference masks. Products without a reference mask
	// are only included when flagged for the pricelist.
	ListForSync(ctx context.Context, excluir []string) ([]model.ErpProducto, error)
}

type erpProductoRepo struct{ db *gorm.DB }

func NewErpProductoRepository(db *gorm.DB) ErpProductoRepository {
	return &erpProductoRepo{db: db}
}

const productosSyncQuery = `
SELECT
    pt.id,
    pt.reference_mask,
    pt.note_pricelist,
    pt.type_id,
    pt.family_id,
    pt.line_id,
    pt.group_id,
    pt.is_line,
    pt.pricelist,
    pt.active,
    ptype.name   AS type_name,
    pfam.name    AS family_name,
    pline.name   AS line_name,
    pgroup.name  AS group_name,
    it.value     AS name_spanish
FROM product_template pt
    LEFT JOIN product_type ptype
        ON pt.type_id = ptype.id
    LEFT JOIN product_family pfam
        ON pt.family_id = pfam.id
    LEFT JOIN product_line pline
        ON pt.line_id = pline.id
    LEFT JOIN product_group pgroup
        ON pt.group_id = pgroup.id
    LEFT JOIN ir_translation it
        ON it.res_id = pt.id
           AND it.name = 'product.template,name'
           AND it.lang = 'es_MX'
WHERE
    pt.is_line = TRUE
    AND pt.active = TRUE
    AND (
        (pt.reference_mask IS NOT NULL AND pt.reference_mask NOT IN ?)
        OR (pt.reference_mask IS NULL AND pt.pricelist = TRUE)
    )`

func (r *erpProductoRepo) ListForSync(ctx context.Context, excluir []string) ([]model.ErpProducto, error) {
	if len(excluir) == 0 {
		// NOT IN () is invalid SQL; a value no mask can take keeps the query shape.
		excluir = []string{""}
	}
	var productos []model.ErpProducto
	err := r.db.WithContext(ctx).Raw(productosSyncQuery, excluir).Scan(&productos).Error
	return productos, err
}
