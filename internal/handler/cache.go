package handler

import (
	"net/http"
	"time"

	"backoffice/internal/apierror"
	"backoffice/internal/dto"
	"backoffice/internal/infra"
	"backoffice/internal/worker"

	"github.com/gin-gonic/gin"
)

// CacheHandler serves the Supabase-backed product cache and the sync tasks
// that refresh it.
type CacheHandler struct {
	store      *infra.ProductCacheStore
	tracker    *worker.SyncTracker
	dispatcher *worker.Dispatcher
}

func NewCacheHandler(store *infra.ProductCacheStore, tracker *worker.SyncTracker, dispatcher *worker.Dispatcher) *CacheHandler {
	return &CacheHandler{store: store, tracker: tracker, dispatcher: dispatcher}
}

// Listar godoc
// @Summary      Listar productos del cache
// @Description  Lista paginada del cache de productos en Supabase, filtrable por familia, línea, grupo y búsqueda.
// @Tags         productos-cache
// @Produce      json
// @Security     BearerAuth
// @Param        busqueda  query string false "Nombre o clave"
// @Param        family_id query int    false "Familia"
// @Param        line_id   query int    false "Línea"
// @Param        group_id  query int    false "Grupo"
// @Param        page      query int    false "Página (default 1)"
// @Param        limit     query int    false "Registros por página (default 50)"
// @Success      200 {object} dto.ProductoCacheListResponse
// @Router       /v1/productos-cache [get]
func (h *CacheHandler) Listar(c *gin.Context) {
	var filter dto.ProductoCacheFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}

	productos, total, err := h.store.ListarProductos(c.Request.Context(), filter.Busqueda, filter.FamilyID, filter.LineID, filter.GroupID, filter.Page, filter.Limit)
	if err != nil {
		c.JSON(http.StatusBadGateway, apierror.New("Error al consultar el cache de productos"))
		return
	}
	c.JSON(http.StatusOK, dto.ProductoCacheListResponse{
		Data:  productos,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

// Obtener GET /v1/productos-cache/:clave
func (h *CacheHandler) Obtener(c *gin.Context) {
	clave := c.Param("clave")
	producto, err := h.store.ObtenerProducto(c.Request.Context(), clave)
	if err != nil {
		c.JSON(http.StatusBadGateway, apierror.New("Error al consultar el cache de productos"))
		return
	}
	if producto == nil {
		c.JSON(http.StatusNotFound, apierror.New("Producto no encontrado"))
		return
	}
	c.JSON(http.StatusOK, producto)
}

// ActualizarImagen PUT /v1/productos-cache/:clave/imagen
// Hand-set images survive future syncs.
func (h *CacheHandler) ActualizarImagen(c *gin.Context) {
	clave := c.Param("clave")
	var req dto.ActualizarImagenRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.store.ActualizarImagen(c.Request.Context(), clave, req.ImageURL); err != nil {
		c.JSON(http.StatusBadGateway, apierror.New("Error al actualizar la imagen"))
		return
	}
	c.Status(http.StatusNoContent)
}

// TriggerSync godoc
// @Summary      Lanzar sincronización de productos
// @Description  Encola una sincronización completa ERP → Supabase y devuelve el task_id para consultar el avance.
// @Tags         sync
// @Produce      json
// @Security     BearerAuth
// @Success      202 {object} dto.SyncTriggerResponse
// @Router       /v1/sync/productos [post]
func (h *CacheHandler) TriggerSync(c *gin.Context) {
	taskID, err := h.tracker.Enqueue(c.Request.Context(), h.dispatcher)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("No se pudo encolar la sincronizacion"))
		return
	}
	c.JSON(http.StatusAccepted, dto.SyncTriggerResponse{
		TaskID: taskID,
		Estado: worker.SyncEstadoEncolada,
	})
}

// SyncStatus GET /v1/sync/productos/:task_id
func (h *CacheHandler) SyncStatus(c *gin.Context) {
	status, err := h.tracker.Get(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al consultar el estado de la tarea"))
		return
	}
	if status == nil {
		c.JSON(http.StatusNotFound, apierror.New("Tarea no encontrada o expirada"))
		return
	}
	c.JSON(http.StatusOK, dto.SyncStatusResponse{
		TaskID:      status.TaskID,
		Estado:      status.Estado,
		Stats:       status.Stats,
		Error:       status.Error,
		IniciadaEn:  fechaRFC3339(status.IniciadaEn),
		TerminadaEn: fechaRFC3339(status.TerminadaEn),
	})
}

func fechaRFC3339(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
