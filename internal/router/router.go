package router

import (
	"time"

	"backoffice/internal/config"
	"backoffice/internal/handler"
	"backoffice/internal/infra"
	"backoffice/internal/middleware"
	"backoffice/internal/repository"
	"backoffice/internal/service"
	"backoffice/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the shared resources the composition root already opened.
type Deps struct {
	DB         *gorm.DB
	ERPReplica *gorm.DB
	RDB        *redis.Client
	SyncCB     *infra.CircuitBreaker
	Dispatcher *worker.Dispatcher
	Tracker    *worker.SyncTracker
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	odooClient := infra.NewOdooClient(cfg.OdooEndpoint)
	supabase := infra.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseKey)
	cacheStore := infra.NewProductCacheStore(supabase)
	erpCommon := infra.NewERPCommonClient(cfg.ERPCommonAPIURL, cfg.ERPCommonUserID)

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(deps.DB)
	credencialRepo := repository.NewCredencialRepository(deps.DB)
	categoriaRepo := repository.NewCategoriaRepository(deps.DB)
	propuestaRepo := repository.NewPropuestaRepository(deps.DB)
	itemRepo := repository.NewItemRepository(deps.DB)
	registroRepo := repository.NewRegistroRepository(deps.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, credencialRepo, cfg)
	categoriaSvc := service.NewCategoriaService(categoriaRepo)
	propuestaSvc := service.NewPropuestaService(propuestaRepo, itemRepo, categoriaRepo, deps.Dispatcher)
	itemSvc := service.NewItemService(itemRepo, propuestaRepo)
	registroSvc := service.NewRegistroService(registroRepo, propuestaRepo, usuarioRepo, credencialRepo, odooClient)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	categoriasH := handler.NewCategoriasHandler(categoriaSvc)
	propuestasH := handler.NewPropuestasHandler(propuestaSvc, registroSvc, usuarioRepo)
	itemsH := handler.NewItemsHandler(itemSvc, usuarioRepo)
	cacheH := handler.NewCacheHandler(cacheStore, deps.Tracker, deps.Dispatcher)
	erpProxyH := handler.NewERPProxyHandler(erpCommon)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(deps.DB, deps.ERPReplica, deps.RDB, deps.SyncCB))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: comprador, gerente, administrador — declared per-endpoint
		todos := middleware.RequireRole("comprador", "gerente", "administrador")
		gestores := middleware.RequireRole("gerente", "administrador")
		admin := middleware.RequireRole("administrador")

		// Propuestas de compra
		v1.POST("/propuestas", todos, propuestasH.Crear)
		v1.GET("/propuestas", todos, propuestasH.Listar)
		v1.GET("/propuestas/:id", todos, propuestasH.Obtener)
		v1.PUT("/propuestas/:id", todos, propuestasH.Actualizar)
		v1.DELETE("/propuestas/:id", todos, propuestasH.Eliminar)

		// Flujo de aprobación
		v1.POST("/propuestas/:id/solicitar-aprobacion", todos, propuestasH.SolicitarAprobacion)
		v1.POST("/propuestas/:id/aprobar", gestores, propuestasH.Aprobar)
		v1.POST("/propuestas/:id/rechazar", gestores, propuestasH.Rechazar)
		v1.POST("/propuestas/:id/modificar", gestores, propuestasH.Modificar)
		v1.POST("/propuestas/:id/regresar-borrador", todos, propuestasH.RegresarABorrador)
		v1.POST("/propuestas/:id/enviar-proveedor", todos, propuestasH.EnviarProveedor)

		// Registro en Odoo
		v1.POST("/propuestas/:id/crear-orden-compra", todos, propuestasH.CrearOrdenCompra)
		v1.GET("/propuestas/:id/registros-odoo", todos, propuestasH.ListarRegistros)

		// Items
		v1.POST("/propuestas/:id/items", todos, itemsH.Crear)
		v1.GET("/propuestas/:id/items/export", todos, itemsH.ExportarExcel)
		v1.GET("/items", todos, itemsH.Listar)
		v1.PUT("/items/:id", todos, itemsH.Actualizar)
		v1.DELETE("/items/:id", todos, itemsH.Eliminar)
		v1.POST("/items/bulk-update", todos, itemsH.BulkUpdate)
		v1.POST("/items/update-proveedores", todos, itemsH.UpdateProveedores)

		// Categorías — administrador can write, all authenticated can read
		v1.GET("/categorias", todos, categoriasH.Listar)
		v1.GET("/categorias/:id", todos, categoriasH.Obtener)
		categorias := v1.Group("/categorias", admin)
		{
			categorias.POST("", categoriasH.Crear)
			categorias.PUT("/:id", categoriasH.Actualizar)
			categorias.DELETE("/:id", categoriasH.Desactivar)
		}

		// Cache de productos (Supabase)
		v1.GET("/productos-cache", todos, cacheH.Listar)
		v1.GET("/productos-cache/:clave", todos, cacheH.Obtener)
		v1.PUT("/productos-cache/:clave/imagen", gestores, cacheH.ActualizarImagen)

		// Sincronización ERP → Supabase
		v1.POST("/sync/productos", gestores, cacheH.TriggerSync)
		v1.GET("/sync/productos/:task_id", todos, cacheH.SyncStatus)

		// Consultas de solo lectura al ERP
		erp := v1.Group("/erp", todos)
		{
			erp.GET("/almacenes", erpProxyH.Almacenes)
			erp.GET("/proveedores", erpProxyH.Proveedores)
			erp.GET("/categorias-productos", erpProxyH.CategoriasProductos)
			erp.GET("/pronostico-existencias", erpProxyH.PronosticoExistencias)
		}

		// Usuarios
		usuarios := v1.Group("/usuarios", admin)
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
			usuarios.POST("/:id/reactivar", usuariosH.Reactivar)
		}

		// Credenciales de Odoo — owner or admin, checked inside the handler
		v1.PUT("/usuarios/:id/credenciales-odoo", todos, usuariosH.GuardarCredencialOdoo)
		v1.GET("/usuarios/:id/credenciales-odoo", todos, usuariosH.ObtenerCredencialOdoo)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
