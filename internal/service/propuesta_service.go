package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"backoffice/internal/dto"
	"backoffice/internal/model"
	"backoffice/internal/repository"
)

var (
	ErrPropuestaNoEncontrada = errors.New("propuesta no encontrada")
	ErrTransicionInvalida    = errors.New("transicion de estado invalida")
	ErrNoAutorizado          = errors.New("usuario no autorizado para esta accion")
	ErrPropuestaSinItems     = errors.New("la propuesta no tiene items con cantidad propuesta")
	ErrSoloBorrador          = errors.New("la propuesta solo puede modificarse en borrador")
)

// JobDispatcher decouples the service layer from the Redis-backed worker
// pool. Implemented by worker.Dispatcher.
type JobDispatcher interface {
	Dispatch(ctx context.Context, tipo string, payload any) error
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

type PropuestaService interface {
	Crear(ctx context.Context, usuario *model.Usuario, req dto.CrearPropuestaRequest) (*dto.PropuestaResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.PropuestaResponse, error)
	Listar(ctx context.Context, filter dto.PropuestaFilter) (*dto.PropuestaListResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, usuario *model.Usuario, req dto.ActualizarPropuestaRequest) (*dto.PropuestaResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID, usuario *model.Usuario) error

	SolicitarAprobacion(ctx context.Context, id uuid.UUID, usuario *model.Usuario, comentario string) (*dto.PropuestaResponse, error)
	Aprobar(ctx context.Context, id uuid.UUID, usuario *model.Usuario, comentario string) (*dto.PropuestaResponse, error)
	Rechazar(ctx context.Context, id uuid.UUID, usuario *model.Usuario, comentario string) (*dto.PropuestaResponse, error)
	ModificarComoGerente(ctx context.Context, id uuid.UUID, usuario *model.Usuario, req dto.ModificarGerenteRequest) (*dto.PropuestaResponse, error)
	RegresarABorrador(ctx context.Context, id uuid.UUID, usuario *model.Usuario, comentario string) (*dto.PropuestaResponse, error)
	EnviarProveedor(ctx context.Context, id uuid.UUID, usuario *model.Usuario, comentario string) (*dto.PropuestaResponse, error)
}

type propuestaService struct {
	repo          repository.PropuestaRepository
	itemRepo      repository.ItemRepository
	categoriaRepo repository.CategoriaRepository
	dispatcher    JobDispatcher
}

func NewPropuestaService(
	repo repository.PropuestaRepository,
	itemRepo repository.ItemRepository,
	categoriaRepo repository.CategoriaRepository,
	dispatcher JobDispatcher,
) PropuestaService {
	return &propuestaService{
		repo:          repo,
		itemRepo:      itemRepo,
		categoriaRepo: categoriaRepo,
		dispatcher:    dispatcher,
	}
}

// esGestor reports whether the user can act on proposals of other buyers.
func esGestor(u *model.Usuario) bool {
	return u.Rol == "gerente" || u.Rol == "administrador"
}

func esDuenoOAdmin(p *model.PropuestaCompra, u *model.Usuario) bool {
	return p.CompradorID == u.ID || u.Rol == "administrador"
}

// ── CRUD ─────────────────────────────────────────────────────────────────────

func (s *propuestaService) Crear(ctx context.Context, usuario *model.Usuario, req dto.CrearPropuestaRequest) (*dto.PropuestaResponse, error) {
	numero, err := s.repo.NextNumero(ctx)
	if err != nil {
		return nil, err
	}

	p := &model.PropuestaCompra{
		Numero:      numero,
		CompradorID: usuario.ID,
		Proveedor:   req.Proveedor,
		Estado:      model.EstadoBorrador,
		Almacenes:   almacenesFromRequest(req.Almacenes),
	}
	if err := s.asignarCategoria(ctx, p, req.CategoriaID); err != nil {
		return nil, err
	}
	for _, it := range req.Items {
		p.Items = append(p.Items, itemFromRequest(it))
	}
	p.AgregarEvento(usuario, "creacion", "cambio_estado", "Propuesta creada")

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return s.Obtener(ctx, p.ID)
}

func (s *propuestaService) Obtener(ctx context.Context, id uuid.UUID) (*dto.PropuestaResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPropuestaNoEncontrada
		}
		return nil, err
	}
	return propuestaResponse(p), nil
}

func (s *propuestaService) Listar(ctx context.Context, filter dto.PropuestaFilter) (*dto.PropuestaListResponse, error) {
	propuestas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.PropuestaListItem, len(propuestas))
	for i := range propuestas {
		items[i] = propuestaListItem(&propuestas[i])
	}
	return &dto.PropuestaListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *propuestaService) Actualizar(ctx context.Context, id uuid.UUID, usuario *model.Usuario, req dto.ActualizarPropuestaRequest) (*dto.PropuestaResponse, error) {
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, err := s.cargarBloqueada(ctx, tx, id)
		if err != nil {
			return err
		}
		if !esDuenoOAdmin(p, usuario) {
			return ErrNoAutorizado
		}
		if p.Estado != model.EstadoBorrador {
			return ErrSoloBorrador
		}
		if req.Proveedor != nil {
			p.Proveedor = req.Proveedor
		}
		if req.Almacenes != nil {
			p.Almacenes = almacenesFromRequest(req.Almacenes)
		}
		if req.CategoriaID != nil {
			if err := s.asignarCategoria(ctx, p, req.CategoriaID); err != nil {
				return err
			}
		}
		p.AgregarEvento(usuario, "edicion", "modificacion", "Encabezado actualizado")
		return s.repo.Save(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}
	return s.Obtener(ctx, id)
}

func (s *propuestaService) Eliminar(ctx context.Context, id uuid.UUID, usuario *model.Usuario) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPropuestaNoEncontrada
		}
		return err
	}
	if !esDuenoOAdmin(p, usuario) {
		return ErrNoAutorizado
	}
	if p.Estado != model.EstadoBorrador {
		return ErrSoloBorrador
	}
	return s.repo.Delete(ctx, id)
}

// ── State transitions ────────────────────────────────────────────────────────
// Every transition locks the proposal row, validates the edge against the
// transition graph, mutates, appends the audit event and saves, all inside
// one transaction.

func (s *propuestaService) SolicitarAprobacion(ctx context.Context, id uuid.UUID, usuario *model.Usuario, comentario string) (*dto.PropuestaResponse, error) {
	return s.transicionar(ctx, id, usuario, model.EstadoPendienteAprobacion, comentario,
		func(p *model.PropuestaCompra) error {
			if !esDuenoOAdmin(p, usuario) {
				return ErrNoAutorizado
			}
			conCantidad := false
			for _, it := range p.Items {
				if it.CantidadPropuesta.GreaterThan(decimal.Zero) {
					conCantidad = true
					break
				}
			}
			if !conCantidad {
				return ErrPropuestaSinItems
			}
			return nil
		},
		func(_ *gorm.DB, p *model.PropuestaCompra) error {
			now := time.Now().UTC()
			p.FechaEnvio = &now
			return nil
		})
}

func (s *propuestaService) Aprobar(ctx context.Context, id uuid.UUID, usuario *model.Usuario, comentario string) (*dto.PropuestaResponse, error) {
	return s.transicionar(ctx, id, usuario, model.EstadoAprobada, comentario,
		func(p *model.PropuestaCompra) error {
			if !esGestor(usuario) {
				return ErrNoAutorizado
			}
			return nil
		},
		func(tx *gorm.DB, p *model.PropuestaCompra) error {
			// Lines nobody intends to order are pruned on approval; they stay
			// visible while the proposal awaits review.
			eliminados, err := s.itemRepo.DeleteSinCantidad(ctx, tx, p.ID)
			if err != nil {
				return err
			}
			if eliminados > 0 {
				p.AgregarEvento(usuario, "depuracion_items", "modificacion",
					fmt.Sprintf("Se eliminaron %d items sin cantidad propuesta", eliminados))
			}
			s.marcarAprobador(p, usuario)
			return nil
		})
}

func (s *propuestaService) Rechazar(ctx context.Context, id uuid.UUID, usuario *model.Usuario, comentario string) (*dto.PropuestaResponse, error) {
	return s.transicionar(ctx, id, usuario, model.EstadoRechazada, comentario,
		func(p *model.PropuestaCompra) error {
			if !esGestor(usuario) {
				return ErrNoAutorizado
			}
			return nil
		},
		func(_ *gorm.DB, p *model.PropuestaCompra) error {
			s.marcarAprobador(p, usuario)
			return nil
		})
}

func (s *propuestaService) ModificarComoGerente(ctx context.Context, id uuid.UUID, usuario *model.Usuario, req dto.ModificarGerenteRequest) (*dto.PropuestaResponse, error) {
	return s.transicionar(ctx, id, usuario, model.EstadoModificadaAprobada, req.Comentario,
		func(p *model.PropuestaCompra) error {
			if !esGestor(usuario) {
				return ErrNoAutorizado
			}
			return nil
		},
		func(tx *gorm.DB, p *model.PropuestaCompra) error {
			porID := make(map[uuid.UUID]*model.ItemPropuestaCompra, len(p.Items))
			for i := range p.Items {
				porID[p.Items[i].ID] = &p.Items[i]
			}
			for _, cambio := range req.Items {
				itemID, err := uuid.Parse(cambio.ItemID)
				if err != nil {
					return fmt.Errorf("item_id invalido: %s", cambio.ItemID)
				}
				item, ok := porID[itemID]
				if !ok {
					return fmt.Errorf("el item %s no pertenece a la propuesta", cambio.ItemID)
				}
				anterior := item.CantidadPropuesta
				item.CantidadPropuesta = cambio.CantidadPropuesta
				if err := s.itemRepo.Save(ctx, tx, item); err != nil {
					return err
				}
				p.AgregarEvento(usuario,
					fmt.Sprintf("item %s: cantidad %s -> %s", item.Codigo, anterior.String(), cambio.CantidadPropuesta.String()),
					"modificacion", req.Comentario)
			}
			s.marcarAprobador(p, usuario)
			return nil
		})
}

func (s *propuestaService) RegresarABorrador(ctx context.Context, id uuid.UUID, usuario *model.Usuario, comentario string) (*dto.PropuestaResponse, error) {
	return s.transicionar(ctx, id, usuario, model.EstadoBorrador, comentario,
		func(p *model.PropuestaCompra) error {
			if !esDuenoOAdmin(p, usuario) {
				return ErrNoAutorizado
			}
			return nil
		},
		func(_ *gorm.DB, p *model.PropuestaCompra) error {
			p.UsuarioAprobadorID = nil
			p.FechaAprobacionRechazo = nil
			return nil
		})
}

func (s *propuestaService) EnviarProveedor(ctx context.Context, id uuid.UUID, usuario *model.Usuario, comentario string) (*dto.PropuestaResponse, error) {
	resp, err := s.transicionar(ctx, id, usuario, model.EstadoEnviada, comentario,
		func(p *model.PropuestaCompra) error {
			if !esDuenoOAdmin(p, usuario) && !esGestor(usuario) {
				return ErrNoAutorizado
			}
			return nil
		},
		func(_ *gorm.DB, p *model.PropuestaCompra) error {
			now := time.Now().UTC()
			p.FechaEnvio = &now
			return nil
		})
	if err != nil {
		return nil, err
	}

	// Fire-and-forget: the email worker renders the PDF and mails the summary.
	if s.dispatcher != nil {
		payload := map[string]string{"propuesta_id": id.String(), "usuario_id": usuario.ID.String()}
		if err := s.dispatcher.Dispatch(ctx, "propuesta_email", payload); err != nil {
			log.Warn().Err(err).Str("propuesta_id", id.String()).
				Msg("no se pudo encolar el correo de la propuesta")
		}
	}
	return resp, nil
}

func (s *propuestaService) transicionar(
	ctx context.Context,
	id uuid.UUID,
	usuario *model.Usuario,
	hacia string,
	comentario string,
	guard func(p *model.PropuestaCompra) error,
	mutate func(tx *gorm.DB, p *model.PropuestaCompra) error,
) (*dto.PropuestaResponse, error) {
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, err := s.cargarBloqueada(ctx, tx, id)
		if err != nil {
			return err
		}
		if !model.PuedeTransicionar(p.Estado, hacia) {
			return fmt.Errorf("%w: %s -> %s", ErrTransicionInvalida, p.Estado, hacia)
		}
		if err := guard(p); err != nil {
			return err
		}

		desde := p.Estado
		p.Estado = hacia
		if err := mutate(tx, p); err != nil {
			return err
		}
		p.AgregarEvento(usuario, desde+" -> "+hacia, "cambio_estado", comentario)
		return s.repo.Save(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}
	return s.Obtener(ctx, id)
}

func (s *propuestaService) cargarBloqueada(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.PropuestaCompra, error) {
	p, err := s.repo.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPropuestaNoEncontrada
		}
		return nil, err
	}
	return p, nil
}

func (s *propuestaService) marcarAprobador(p *model.PropuestaCompra, usuario *model.Usuario) {
	now := time.Now().UTC()
	aprobadorID := usuario.ID
	p.UsuarioAprobadorID = &aprobadorID
	p.FechaAprobacionRechazo = &now
}

func (s *propuestaService) asignarCategoria(ctx context.Context, p *model.PropuestaCompra, categoriaID *int) error {
	if categoriaID == nil {
		return nil
	}
	cat, err := s.categoriaRepo.ObtenerPorID(ctx, *categoriaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoriaNoEncontrada
		}
		return err
	}
	p.CategoriaID = &cat.CategoriaID
	p.CategoriaNombre = &cat.Nombre
	return nil
}

// ── Mapping helpers ──────────────────────────────────────────────────────────

func almacenesFromRequest(reqs []dto.AlmacenRequest) model.Almacenes {
	out := make(model.Almacenes, len(reqs))
	for i, a := range reqs {
		out[i] = model.AlmacenRef{ID: a.ID, Nombre: a.Nombre}
	}
	return out
}

func itemFromRequest(req dto.CrearItemRequest) model.ItemPropuestaCompra {
	registrar := true
	if req.Registrar != nil {
		registrar = *req.Registrar
	}
	return model.ItemPropuestaCompra{
		Categoria:         req.Categoria,
		Codigo:            req.Codigo,
		Producto:          req.Producto,
		Medida:            req.Medida,
		Costo:             req.Costo,
		Existencia:        req.Existencia,
		Comprometido:      req.Comprometido,
		Libre:             req.Libre,
		ConsumoMensual:    req.ConsumoMensual,
		InvMensuales:      req.InvMensuales,
		CantidadOC:        req.CantidadOC,
		Produccion:        req.Produccion,
		CantidadPropuesta: req.CantidadPropuesta,
		Meses:             req.Meses,
		Registrar:         registrar,
		Comentarios:       req.Comentarios,
		ProveedorID:       req.ProveedorID,
		ProductID:         req.ProductID,
		MedidaID:          req.MedidaID,
		CurrencyID:        req.CurrencyID,
	}
}

func montoTotal(items []model.ItemPropuestaCompra) decimal.Decimal {
	total := decimal.Zero
	for i := range items {
		total = total.Add(items[i].Subtotal())
	}
	return total
}

func fechaStr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func propuestaListItem(p *model.PropuestaCompra) dto.PropuestaListItem {
	item := dto.PropuestaListItem{
		ID:              p.ID.String(),
		Numero:          p.Numero,
		CompradorID:     p.CompradorID.String(),
		Proveedor:       p.Proveedor,
		Estado:          p.Estado,
		CategoriaID:     p.CategoriaID,
		CategoriaNombre: p.CategoriaNombre,
		TotalItems:      len(p.Items),
		MontoTotal:      montoTotal(p.Items),
		FechaEnvio:      fechaStr(p.FechaEnvio),
		FechaAprobacion: fechaStr(p.FechaAprobacionRechazo),
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       p.UpdatedAt.Format(time.RFC3339),
	}
	if p.Comprador != nil {
		item.CompradorNombre = p.Comprador.NombreCompleto()
	}
	return item
}

func propuestaResponse(p *model.PropuestaCompra) *dto.PropuestaResponse {
	resp := &dto.PropuestaResponse{
		ID:                  p.ID.String(),
		Numero:              p.Numero,
		CompradorID:         p.CompradorID.String(),
		Proveedor:           p.Proveedor,
		Estado:              p.Estado,
		CategoriaID:         p.CategoriaID,
		CategoriaNombre:     p.CategoriaNombre,
		Almacenes:           p.Almacenes,
		HistorialEventos:    p.HistorialEventos,
		OdooPurchaseOrderID: p.OdooPurchaseOrderID,
		OdooResponse:        p.OdooResponse,
		MontoTotal:          montoTotal(p.Items),
		FechaEnvio:          fechaStr(p.FechaEnvio),
		FechaAprobacion:     fechaStr(p.FechaAprobacionRechazo),
		FechaRegistroOdoo:   fechaStr(p.FechaRegistroOdoo),
		CreatedAt:           p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           p.UpdatedAt.Format(time.RFC3339),
	}
	if p.Comprador != nil {
		resp.CompradorNombre = p.Comprador.NombreCompleto()
	}
	if p.UsuarioAprobadorID != nil {
		id := p.UsuarioAprobadorID.String()
		resp.UsuarioAprobadorID = &id
	}
	resp.Items = make([]dto.ItemResponse, len(p.Items))
	for i := range p.Items {
		resp.Items[i] = itemResponse(&p.Items[i])
	}
	return resp
}

func itemResponse(it *model.ItemPropuestaCompra) dto.ItemResponse {
	return dto.ItemResponse{
		ID:                it.ID.String(),
		PropuestaID:       it.PropuestaID.String(),
		Categoria:         it.Categoria,
		Codigo:            it.Codigo,
		Producto:          it.Producto,
		Medida:            it.Medida,
		Costo:             it.Costo,
		Existencia:        it.Existencia,
		Comprometido:      it.Comprometido,
		Libre:             it.Libre,
		ConsumoMensual:    it.ConsumoMensual,
		InvMensuales:      it.InvMensuales,
		CantidadOC:        it.CantidadOC,
		Produccion:        it.Produccion,
		CantidadPropuesta: it.CantidadPropuesta,
		Meses:             it.Meses,
		Registrar:         it.Registrar,
		Comentarios:       it.Comentarios,
		Subtotal:          it.Subtotal(),
		ProveedorID:       it.ProveedorID,
		ProductID:         it.ProductID,
		MedidaID:          it.MedidaID,
		CurrencyID:        it.CurrencyID,
		CreatedAt:         it.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         it.UpdatedAt.Format(time.RFC3339),
	}
}
