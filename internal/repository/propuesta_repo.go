package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"backoffice/internal/dto"
	"backoffice/internal/model"
)

type PropuestaRepository interface {
	Create(ctx context.Context, p *model.PropuestaCompra) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PropuestaCompra, error)
	// FindByIDForUpdate loads the proposal with a row lock inside tx. Every
	// state transition reads through here so concurrent actions on the same
	// proposal serialize instead of racing.
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.PropuestaCompra, error)
	List(ctx context.Context, filter dto.PropuestaFilter) ([]model.PropuestaCompra, int64, error)
	Save(ctx context.Context, tx *gorm.DB, p *model.PropuestaCompra) error
	Delete(ctx context.Context, id uuid.UUID) error
	NextNumero(ctx context.Context) (string, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type propuestaRepo struct{ db *gorm.DB }

func NewPropuestaRepository(db *gorm.DB) PropuestaRepository { return &propuestaRepo{db: db} }

func (r *propuestaRepo) DB() *gorm.DB { return r.db }

func (r *propuestaRepo) Create(ctx context.Context, p *model.PropuestaCompra) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *propuestaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PropuestaCompra, error) {
	var p model.PropuestaCompra
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("codigo asc") }).
		Preload("Comprador").
		Preload("UsuarioAprobador").
		First(&p, id).Error
	return &p, err
}

func (r *propuestaRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.PropuestaCompra, error) {
	var p model.PropuestaCompra
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, id).Error
	if err != nil {
		return nil, err
	}
	// Associations load outside the locking clause; FOR UPDATE cannot be
	// combined with the LEFT JOINs Preload would add to the locked query.
	if err := tx.WithContext(ctx).Model(&p).Association("Items").Find(&p.Items); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *propuestaRepo) List(ctx context.Context, filter dto.PropuestaFilter) ([]model.PropuestaCompra, int64, error) {
	var propuestas []model.PropuestaCompra
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.PropuestaCompra{})

	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.CompradorID != "" {
		q = q.Where("comprador_id = ?", filter.CompradorID)
	}
	if filter.Busqueda != "" {
		like := "%" + filter.Busqueda + "%"
		q = q.Where("numero ILIKE ? OR proveedor ILIKE ?", like, like)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items").Preload("Comprador").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&propuestas).Error
	return propuestas, total, err
}

func (r *propuestaRepo) Save(ctx context.Context, tx *gorm.DB, p *model.PropuestaCompra) error {
	return tx.WithContext(ctx).Omit("Items", "Comprador", "UsuarioAprobador").Save(p).Error
}

func (r *propuestaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Select(clause.Associations).Delete(&model.PropuestaCompra{ID: id}).Error
}

func (r *propuestaRepo) NextNumero(ctx context.Context) (string, error) {
	// PC-{seq} using a PostgreSQL sequence for atomic numbering
	if err := r.db.WithContext(ctx).Exec("CREATE SEQUENCE IF NOT EXISTS propuestas_numero_seq").Error; err != nil {
		return "", err
	}
	var num int
	if err := r.db.WithContext(ctx).Raw("SELECT nextval('propuestas_numero_seq')").Scan(&num).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("PC-%05d", num), nil
}
