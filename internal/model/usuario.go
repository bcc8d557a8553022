package model

import (
	"time"

	"github.com/google/uuid"
)

// Usuario stores system users with role-based access.
// Rol: "comprador" | "gerente" | "administrador"
type Usuario struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Nombre       string    `gorm:"not null"`
	Apellido     *string
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Rol          string `gorm:"type:varchar(20);not null"`
	// NombreComprador is the display name stamped on purchase proposals and
	// used to derive the partner_ref prefix on ERP registration.
	NombreComprador *string
	// OdooUserID is the res.users id in the ERP; nil = user cannot register
	// purchase orders.
	OdooUserID *int
	Activo     bool `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Usuario) TableName() string { return "usuarios" }

// NombreCompleto returns "Nombre Apellido", falling back to Nombre alone.
func (u *Usuario) NombreCompleto() string {
	if u.Apellido != nil && *u.Apellido != "" {
		return u.Nombre + " " + *u.Apellido
	}
	return u.Nombre
}
