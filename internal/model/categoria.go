package model

import "time"

// Categoria classifies purchase proposals. The primary key mirrors the
// category id used by the ERP, so it is assigned by the caller rather than
// generated.
type Categoria struct {
	CategoriaID int    `gorm:"primaryKey;autoIncrement:false"`
	Nombre      string `gorm:"uniqueIndex;not null"`
	Descripcion *string
	Activo      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName overrides GORM's default singular → plural logic for Spanish names.
func (Categoria) TableName() string { return "categorias" }
