package dto

import "backoffice/internal/model"

// ─── Filter / List ──────────────────────────────────────────────────────────

// ProductoCacheFilter is bound from query string of GET /v1/productos-cache.
type ProductoCacheFilter struct {
	Busqueda string `form:"busqueda"` // matches name or reference_mask
	FamilyID *int   `form:"family_id"`
	LineID   *int   `form:"line_id"`
	GroupID  *int   `form:"group_id"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type ProductoCacheListResponse struct {
	Data  []model.ProductoCache `json:"data"`
	Total int                   `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ActualizarImagenRequest sets the image of one cached product.
type ActualizarImagenRequest struct {
	ImageURL string `json:"image_url" validate:"required,url"`
}

// ─── Sync DTOs ──────────────────────────────────────────────────────────────

// SyncTriggerResponse acknowledges a fire-and-forget sync request.
type SyncTriggerResponse struct {
	TaskID string `json:"task_id"`
	Estado string `json:"estado"` // encolada
}

// SyncStatusResponse reflects the task entry kept in Redis.
type SyncStatusResponse struct {
	TaskID      string           `json:"task_id"`
	Estado      string           `json:"estado"` // encolada | en_progreso | completada | fallida
	Stats       *model.SyncStats `json:"stats,omitempty"`
	Error       *string          `json:"error,omitempty"`
	IniciadaEn  *string          `json:"iniciada_en,omitempty"`
	TerminadaEn *string          `json:"terminada_en,omitempty"`
}
