package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"backoffice/internal/model"
)

type CredencialRepository interface {
	FindByUsuarioID(ctx context.Context, usuarioID uuid.UUID) (*model.OdooCredencial, error)
	Upsert(ctx context.Context, c *model.OdooCredencial) error
}

type credencialRepo struct{ db *gorm.DB }

func NewCredencialRepository(db *gorm.DB) CredencialRepository { return &credencialRepo{db: db} }

func (r *credencialRepo) FindByUsuarioID(ctx context.Context, usuarioID uuid.UUID) (*model.OdooCredencial, error) {
	var c model.OdooCredencial
	err := r.db.WithContext(ctx).Where("usuario_id = ?", usuarioID).First(&c).Error
	return &c, err
}

func (r *credencialRepo) Upsert(ctx context.Context, c *model.OdooCredencial) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "usuario_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"login", "password", "api_key", "activo", "updated_at"}),
	}).Create(c).Error
}
