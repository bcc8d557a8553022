package dto

// ── Request DTOs ──────────────────────────────────────────────────────────────

type CrearCategoriaRequest struct {
	CategoriaID int     `json:"categoria_id" validate:"required,min=1"`
	Nombre      string  `json:"nombre"       validate:"required,min=2,max=100"`
	Descripcion *string `json:"descripcion"`
}

type ActualizarCategoriaRequest struct {
	Nombre      *string `json:"nombre"      validate:"omitempty,min=2,max=100"`
	Descripcion *string `json:"descripcion"`
	Activo      *bool   `json:"activo"`
}

// CategoriaFilter is bound from query string of GET /v1/categorias.
type CategoriaFilter struct {
	Nombre           string `form:"nombre"`
	MostrarInactivos bool   `form:"mostrar_inactivos"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

type CategoriaResponse struct {
	CategoriaID int     `json:"categoria_id"`
	Nombre      string  `json:"nombre"`
	Descripcion *string `json:"descripcion,omitempty"`
	Activo      bool    `json:"activo"`
}
