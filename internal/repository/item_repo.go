package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"backoffice/internal/dto"
	"backoffice/internal/model"
)

type ItemRepository interface {
	Create(ctx context.Context, tx *gorm.DB, item *model.ItemPropuestaCompra) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ItemPropuestaCompra, error)
	List(ctx context.Context, filter dto.ItemFilter) ([]model.ItemPropuestaCompra, error)
	ListByPropuesta(ctx context.Context, propuestaID uuid.UUID) ([]model.ItemPropuestaCompra, error)
	Save(ctx context.Context, tx *gorm.DB, item *model.ItemPropuestaCompra) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteSinCantidad prunes lines whose cantidad_propuesta is zero. Runs on
	// submit so gerentes only review lines that would actually be ordered.
	DeleteSinCantidad(ctx context.Context, tx *gorm.DB, propuestaID uuid.UUID) (int64, error)
	DB() *gorm.DB
}

type itemRepo struct{ db *gorm.DB }

func NewItemRepository(db *gorm.DB) ItemRepository { return &itemRepo{db: db} }

func (r *itemRepo) DB() *gorm.DB { return r.db }

func (r *itemRepo) Create(ctx context.Context, tx *gorm.DB, item *model.ItemPropuestaCompra) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(item).Error
}

func (r *itemRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ItemPropuestaCompra, error) {
	var item model.ItemPropuestaCompra
	err := r.db.WithContext(ctx).First(&item, id).Error
	return &item, err
}

func (r *itemRepo) List(ctx context.Context, filter dto.ItemFilter) ([]model.ItemPropuestaCompra, error) {
	var items []model.ItemPropuestaCompra
	q := r.db.WithContext(ctx).Model(&model.ItemPropuestaCompra{})

	if filter.PropuestaID != "" {
		q = q.Where("propuesta_id = ?", filter.PropuestaID)
	}
	if filter.Codigo != "" {
		q = q.Where("codigo ILIKE ?", "%"+filter.Codigo+"%")
	}
	if filter.Categoria != "" {
		q = q.Where("categoria ILIKE ?", "%"+filter.Categoria+"%")
	}
	if filter.ProveedorID != nil {
		q = q.Where("proveedor_id = ?", *filter.ProveedorID)
	}

	err := q.Order("codigo asc").Find(&items).Error
	return items, err
}

func (r *itemRepo) ListByPropuesta(ctx context.Context, propuestaID uuid.UUID) ([]model.ItemPropuestaCompra, error) {
	var items []model.ItemPropuestaCompra
	err := r.db.WithContext(ctx).
		Where("propuesta_id = ?", propuestaID).
		Order("codigo asc").
		Find(&items).Error
	return items, err
}

func (r *itemRepo) Save(ctx context.Context, tx *gorm.DB, item *model.ItemPropuestaCompra) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Save(item).Error
}

func (r *itemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ItemPropuestaCompra{}, id).Error
}

func (r *itemRepo) DeleteSinCantidad(ctx context.Context, tx *gorm.DB, propuestaID uuid.UUID) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	res := tx.WithContext(ctx).
		Where("propuesta_id = ? AND cantidad_propuesta = 0", propuestaID).
		Delete(&model.ItemPropuestaCompra{})
	return res.RowsAffected, res.Error
}
