package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"backoffice/internal/apierror"
	"backoffice/internal/dto"
	"backoffice/internal/model"
	"backoffice/internal/repository"
	"backoffice/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PropuestasHandler struct {
	svc         service.PropuestaService
	registroSvc service.RegistroService
	usuarioRepo repository.UsuarioRepository
}

func NewPropuestasHandler(svc service.PropuestaService, registroSvc service.RegistroService, usuarioRepo repository.UsuarioRepository) *PropuestasHandler {
	return &PropuestasHandler{svc: svc, registroSvc: registroSvc, usuarioRepo: usuarioRepo}
}

// propuestaError maps the service sentinels to HTTP statuses.
func propuestaError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPropuestaNoEncontrada):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrNoAutorizado):
		c.JSON(http.StatusForbidden, apierror.New(err.Error()))
	case errors.Is(err, service.ErrTransicionInvalida):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	default:
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	}
}

// bindComentario reads an optional {"comentario": "..."} body. Actions like
// aprobar accept an empty body, so EOF is not an error here.
func bindComentario(c *gin.Context) (string, bool) {
	var req dto.ComentarioRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return "", false
	}
	return req.Comentario, true
}

// Crear godoc
// @Summary      Crear propuesta de compra
// @Description  Crea una propuesta en estado borrador con sus items iniciales.
// @Tags         propuestas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearPropuestaRequest true "Propuesta"
// @Success      201  {object} dto.PropuestaResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/propuestas [post]
func (h *PropuestasHandler) Crear(c *gin.Context) {
	usuario := currentUser(c, h.usuarioRepo)
	if usuario == nil {
		return
	}
	var req dto.CrearPropuestaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), usuario, req)
	if err != nil {
		propuestaError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Listar propuestas
// @Description  Lista paginada filtrada por estado, comprador y búsqueda por número o proveedor.
// @Tags         propuestas
// @Produce      json
// @Security     BearerAuth
// @Param        estado      query string false "Estado de la propuesta"
// @Param        comprador_id query string false "UUID del comprador"
// @Param        busqueda    query string false "Número o proveedor"
// @Param        page        query int    false "Página (default 1)"
// @Param        limit       query int    false "Registros por página (default 50)"
// @Success      200 {object} dto.PropuestaListResponse
// @Router       /v1/propuestas [get]
func (h *PropuestasHandler) Listar(c *gin.Context) {
	var filter dto.PropuestaFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar propuestas"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener GET /v1/propuestas/:id
func (h *PropuestasHandler) Obtener(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		propuestaError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar PUT /v1/propuestas/:id — solo en borrador.
func (h *PropuestasHandler) Actualizar(c *gin.Context) {
	usuario := currentUser(c, h.usuarioRepo)
	if usuario == nil {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarPropuestaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, usuario, req)
	if err != nil {
		propuestaError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar DELETE /v1/propuestas/:id — solo en borrador.
func (h *PropuestasHandler) Eliminar(c *gin.Context) {
	usuario := currentUser(c, h.usuarioRepo)
	if usuario == nil {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id, usuario); err != nil {
		propuestaError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Acciones del flujo de aprobación ─────────────────────────────────────────

// SolicitarAprobacion POST /v1/propuestas/:id/solicitar-aprobacion
func (h *PropuestasHandler) SolicitarAprobacion(c *gin.Context) {
	h.accion(c, h.svc.SolicitarAprobacion)
}

// Aprobar POST /v1/propuestas/:id/aprobar — gerente o administrador.
func (h *PropuestasHandler) Aprobar(c *gin.Context) {
	h.accion(c, h.svc.Aprobar)
}

// Rechazar POST /v1/propuestas/:id/rechazar — requiere comentario.
func (h *PropuestasHandler) Rechazar(c *gin.Context) {
	usuario := currentUser(c, h.usuarioRepo)
	if usuario == nil {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.RechazarRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Rechazar(c.Request.Context(), id, usuario, req.Comentario)
	if err != nil {
		propuestaError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Modificar POST /v1/propuestas/:id/modificar — el gerente ajusta cantidades
// y aprueba en el mismo paso.
func (h *PropuestasHandler) Modificar(c *gin.Context) {
	usuario := currentUser(c, h.usuarioRepo)
	if usuario == nil {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.ModificarGerenteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ModificarComoGerente(c.Request.Context(), id, usuario, req)
	if err != nil {
		propuestaError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegresarABorrador POST /v1/propuestas/:id/regresar-borrador
func (h *PropuestasHandler) RegresarABorrador(c *gin.Context) {
	h.accion(c, h.svc.RegresarABorrador)
}

// EnviarProveedor POST /v1/propuestas/:id/enviar-proveedor
func (h *PropuestasHandler) EnviarProveedor(c *gin.Context) {
	h.accion(c, h.svc.EnviarProveedor)
}

// transicionFn is the shape shared by the comment-only transition endpoints.
type transicionFn func(ctx context.Context, id uuid.UUID, usuario *model.Usuario, comentario string) (*dto.PropuestaResponse, error)

// accion factors the comment-only transition endpoints.
func (h *PropuestasHandler) accion(c *gin.Context, fn transicionFn) {
	usuario := currentUser(c, h.usuarioRepo)
	if usuario == nil {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	comentario, ok := bindComentario(c)
	if !ok {
		return
	}
	resp, err := fn(c.Request.Context(), id, usuario, comentario)
	if err != nil {
		propuestaError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Registro en Odoo ─────────────────────────────────────────────────────────

// CrearOrdenCompra godoc
// @Summary      Registrar orden de compra en Odoo
// @Description  Crea una orden de compra por cada proveedor de la propuesta. Idempotente por proveedor: los registros exitosos no se repiten.
// @Tags         propuestas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID de la propuesta"
// @Param        body body dto.RegistrarOdooRequest true "Parámetros de registro"
// @Success      200  {object} dto.RegistrarOdooResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/propuestas/{id}/crear-orden-compra [post]
func (h *PropuestasHandler) CrearOrdenCompra(c *gin.Context) {
	usuario := currentUser(c, h.usuarioRepo)
	if usuario == nil {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.RegistrarOdooRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return
	}
	resp, err := h.registroSvc.CrearOrdenCompra(c.Request.Context(), id, usuario, req)
	if err != nil {
		propuestaError(c, err)
		return
	}
	// A partial failure keeps the resultados in the body but reports 400 so
	// the caller knows to retry.
	if !resp.Exito {
		c.JSON(http.StatusBadRequest, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarRegistros GET /v1/propuestas/:id/registros-odoo
func (h *PropuestasHandler) ListarRegistros(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.registroSvc.ListarRegistros(c.Request.Context(), id)
	if err != nil {
		propuestaError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
