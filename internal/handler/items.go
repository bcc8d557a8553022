package handler

import (
	"errors"
	"net/http"

	"backoffice/internal/apierror"
	"backoffice/internal/dto"
	"backoffice/internal/repository"
	"backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

type ItemsHandler struct {
	svc         service.ItemService
	usuarioRepo repository.UsuarioRepository
}

func NewItemsHandler(svc service.ItemService, usuarioRepo repository.UsuarioRepository) *ItemsHandler {
	return &ItemsHandler{svc: svc, usuarioRepo: usuarioRepo}
}

func itemError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrItemNoEncontrado), errors.Is(err, service.ErrPropuestaNoEncontrada):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrNoAutorizado):
		c.JSON(http.StatusForbidden, apierror.New(err.Error()))
	case errors.Is(err, service.ErrCodigoDuplicado):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	default:
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	}
}

// Crear POST /v1/propuestas/:id/items
func (h *ItemsHandler) Crear(c *gin.Context) {
	usuario := currentUser(c, h.usuarioRepo)
	if usuario == nil {
		return
	}
	propuestaID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.CrearItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), propuestaID, usuario, req)
	if err != nil {
		itemError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar GET /v1/items
func (h *ItemsHandler) Listar(c *gin.Context) {
	var filter dto.ItemFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar items"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar PUT /v1/items/:id
func (h *ItemsHandler) Actualizar(c *gin.Context) {
	usuario := currentUser(c, h.usuarioRepo)
	if usuario == nil {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, usuario, req)
	if err != nil {
		itemError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar DELETE /v1/items/:id
func (h *ItemsHandler) Eliminar(c *gin.Context) {
	usuario := currentUser(c, h.usuarioRepo)
	if usuario == nil {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id, usuario); err != nil {
		itemError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// BulkUpdate POST /v1/items/bulk-update
// Applies every change or none: the whole lote runs in one transaction.
func (h *ItemsHandler) BulkUpdate(c *gin.Context) {
	usuario := currentUser(c, h.usuarioRepo)
	if usuario == nil {
		return
	}
	var req dto.BulkUpdateItemsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.BulkUpdate(c.Request.Context(), usuario, req)
	if err != nil {
		itemError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateProveedores POST /v1/items/update-proveedores
func (h *ItemsHandler) UpdateProveedores(c *gin.Context) {
	usuario := currentUser(c, h.usuarioRepo)
	if usuario == nil {
		return
	}
	var req dto.UpdateProveedoresRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateProveedores(c.Request.Context(), usuario, req)
	if err != nil {
		itemError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportarExcel GET /v1/propuestas/:id/items/export
func (h *ItemsHandler) ExportarExcel(c *gin.Context) {
	propuestaID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	data, filename, err := h.svc.ExportarExcel(c.Request.Context(), propuestaID)
	if err != nil {
		itemError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
