package model

import (
	"time"

	"github.com/google/uuid"
)

// OdooCredencial stores the ERP API credentials of one user. Resolved at
// call time by the Odoo client; a missing or inactive row means the user
// cannot register purchase orders.
type OdooCredencial struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Usuario   *Usuario  `gorm:"foreignKey:UsuarioID"`
	Login     string    `gorm:"not null"`
	Password  string    `gorm:"not null"`
	APIKey    string    `gorm:"column:api_key;not null"`
	Activo    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (OdooCredencial) TableName() string { return "odoo_credenciales" }
