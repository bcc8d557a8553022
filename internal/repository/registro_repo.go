package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"backoffice/internal/model"
)

// RegistroRepository persists the per-supplier purchase-order records that
// make ERP registration idempotent.
type RegistroRepository interface {
	// GetOrCreate returns the existing record of the pair, creating it in
	// estado pendiente when absent.
	GetOrCreate(ctx context.Context, tx *gorm.DB, propuestaID uuid.UUID, proveedorID int) (*model.RegistroOdoo, error)
	Save(ctx context.Context, tx *gorm.DB, reg *model.RegistroOdoo) error
	ListByPropuesta(ctx context.Context, propuestaID uuid.UUID) ([]model.RegistroOdoo, error)
}

type registroRepo struct{ db *gorm.DB }

func NewRegistroRepository(db *gorm.DB) RegistroRepository { return &registroRepo{db: db} }

func (r *registroRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, propuestaID uuid.UUID, proveedorID int) (*model.RegistroOdoo, error) {
	if tx == nil {
		tx = r.db
	}
	reg := &model.RegistroOdoo{
		PropuestaID: propuestaID,
		ProveedorID: proveedorID,
		Estado:      model.RegistroPendiente,
	}
	err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "propuesta_id"}, {Name: "proveedor_id"}},
			DoNothing: true,
		}).
		Create(reg).Error
	if err != nil {
		return nil, err
	}
	// Re-read: on conflict the insert returns no row, and even on success we
	// want the canonical state.
	var out model.RegistroOdoo
	err = tx.WithContext(ctx).
		Where("propuesta_id = ? AND proveedor_id = ?", propuestaID, proveedorID).
		First(&out).Error
	return &out, err
}

func (r *registroRepo) Save(ctx context.Context, tx *gorm.DB, reg *model.RegistroOdoo) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Save(reg).Error
}

func (r *registroRepo) ListByPropuesta(ctx context.Context, propuestaID uuid.UUID) ([]model.RegistroOdoo, error) {
	var regs []model.RegistroOdoo
	err := r.db.WithContext(ctx).
		Where("propuesta_id = ?", propuestaID).
		Order("proveedor_id asc").
		Find(&regs).Error
	return regs, err
}
