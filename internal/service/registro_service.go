package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"backoffice/internal/dto"
	"backoffice/internal/infra"
	"backoffice/internal/model"
	"backoffice/internal/repository"
)

var (
	ErrPropuestaNoAprobada = errors.New("solo se pueden registrar propuestas aprobadas")
	ErrCompradorSinOdooID  = errors.New("el comprador no tiene odoo_user_id configurado")
	ErrSinCredencialesOdoo = errors.New("el usuario no tiene credenciales de Odoo activas")
)

// Picking type and tax defaults of the ERP purchase flow.
const (
	pickingTypeDefault = 7
	medidaDefault      = 3
	monedaDefault      = 34
	impuestoCompras    = 12
)

// OdooGateway abstracts the ERP client so the registration flow can be unit
// tested against a fake.
type OdooGateway interface {
	CreatePurchaseOrder(ctx context.Context, creds infra.OdooCredentials, payload infra.OdooPayload) (*infra.OdooOrderResult, error)
}

type RegistroService interface {
	// CrearOrdenCompra creates one purchase order per supplier present in the
	// proposal lines. The proposal advances to registrada_odoo only when every
	// supplier succeeds; otherwise its estado is unchanged and the call can be
	// retried, skipping suppliers already registered.
	CrearOrdenCompra(ctx context.Context, propuestaID uuid.UUID, usuario *model.Usuario, req dto.RegistrarOdooRequest) (*dto.RegistrarOdooResponse, error)
	ListarRegistros(ctx context.Context, propuestaID uuid.UUID) ([]dto.RegistroOdooResponse, error)
}

type registroService struct {
	repo           repository.RegistroRepository
	propuestaRepo  repository.PropuestaRepository
	usuarioRepo    repository.UsuarioRepository
	credencialRepo repository.CredencialRepository
	odoo           OdooGateway
}

func NewRegistroService(
	repo repository.RegistroRepository,
	propuestaRepo repository.PropuestaRepository,
	usuarioRepo repository.UsuarioRepository,
	credencialRepo repository.CredencialRepository,
	odoo OdooGateway,
) RegistroService {
	return &registroService{
		repo:           repo,
		propuestaRepo:  propuestaRepo,
		usuarioRepo:    usuarioRepo,
		credencialRepo: credencialRepo,
		odoo:           odoo,
	}
}

func (s *registroService) CrearOrdenCompra(ctx context.Context, propuestaID uuid.UUID, usuario *model.Usuario, req dto.RegistrarOdooRequest) (*dto.RegistrarOdooResponse, error) {
	creds, err := s.credenciales(ctx, usuario)
	if err != nil {
		return nil, err
	}

	var resp *dto.RegistrarOdooResponse
	// The row lock is held across the ERP calls on purpose: it is what
	// serializes two operators clicking "registrar" at the same time.
	err = runTx(ctx, s.propuestaRepo.DB(), func(tx *gorm.DB) error {
		p, err := s.propuestaRepo.FindByIDForUpdate(ctx, tx, propuestaID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPropuestaNoEncontrada
			}
			return err
		}
		if p.Estado != model.EstadoAprobada && p.Estado != model.EstadoModificadaAprobada {
			return ErrPropuestaNoAprobada
		}
		// Registration is reserved to the owning buyer and administrators;
		// managers approve but do not register.
		if !esDuenoOAdmin(p, usuario) {
			return ErrNoAutorizado
		}

		comprador, err := s.usuarioRepo.FindByID(ctx, p.CompradorID)
		if err != nil {
			return fmt.Errorf("comprador de la propuesta: %w", err)
		}
		if comprador.OdooUserID == nil {
			return ErrCompradorSinOdooID
		}

		porProveedor, err := agruparPorProveedor(p.Items, req.PartnerID)
		if err != nil {
			return err
		}

		resultados := make(model.ResultadosOdoo, 0, len(porProveedor))
		fallidos := 0
		var ordenIDs []string

		for _, grupo := range porProveedor {
			registro, err := s.repo.GetOrCreate(ctx, tx, p.ID, grupo.proveedorID)
			if err != nil {
				return err
			}
			// Idempotency: a supplier already registered in a previous attempt
			// is reported as exitoso without a second ERP call.
			if registro.Estado == model.RegistroExitoso {
				resultados = append(resultados, resultadoDesdeRegistro(registro))
				if registro.OdooOrderID != nil {
					ordenIDs = append(ordenIDs, strconv.FormatInt(*registro.OdooOrderID, 10))
				}
				continue
			}

			payload := s.construirPayload(p, comprador, grupo, req)
			orden, err := s.odoo.CreatePurchaseOrder(ctx, creds, payload)
			if err != nil {
				fallidos++
				msg := err.Error()
				registro.Estado = model.RegistroFallido
				registro.Error = &msg
				if saveErr := s.repo.Save(ctx, tx, registro); saveErr != nil {
					return saveErr
				}
				resultados = append(resultados, model.ResultadoOdoo{
					ProveedorID: grupo.proveedorID,
					Estado:      model.RegistroFallido,
					Error:       msg,
				})
				log.Error().Err(err).
					Str("propuesta", p.Numero).
					Int("proveedor_id", grupo.proveedorID).
					Msg("fallo la creacion de la orden en Odoo")
				continue
			}

			registro.Estado = model.RegistroExitoso
			registro.OdooOrderID = &orden.ID
			registro.OdooOrderName = &orden.Name
			registro.PartnerRef = &orden.PartnerRef
			registro.Error = nil
			if err := s.repo.Save(ctx, tx, registro); err != nil {
				return err
			}

			resultados = append(resultados, model.ResultadoOdoo{
				ProveedorID: grupo.proveedorID,
				Estado:      model.RegistroExitoso,
				OrderID:     orden.ID,
				OrderName:   orden.Name,
				PartnerRef:  orden.PartnerRef,
			})
			ordenIDs = append(ordenIDs, strconv.FormatInt(orden.ID, 10))
		}

		// The outcome is persisted even on partial failure so operators can
		// inspect what the ERP answered.
		p.OdooResponse = resultados

		exito := fallidos == 0 && len(resultados) > 0
		if exito {
			now := time.Now().UTC()
			desde := p.Estado
			p.Estado = model.EstadoRegistradaOdoo
			p.FechaRegistroOdoo = &now
			joined := strings.Join(ordenIDs, ",")
			p.OdooPurchaseOrderID = &joined
			p.AgregarEvento(usuario, desde+" -> "+model.EstadoRegistradaOdoo,
				"registro_odoo", comentarioRegistro(resultados))
		} else {
			p.AgregarEvento(usuario, "registro_odoo_parcial", "registro_odoo",
				fmt.Sprintf("Registro con %d proveedor(es) fallido(s)", fallidos))
		}

		if err := s.propuestaRepo.Save(ctx, tx, p); err != nil {
			return err
		}

		resp = &dto.RegistrarOdooResponse{
			Exito:               exito,
			Estado:              p.Estado,
			OdooPurchaseOrderID: p.OdooPurchaseOrderID,
			Resultados:          resultados,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *registroService) ListarRegistros(ctx context.Context, propuestaID uuid.UUID) ([]dto.RegistroOdooResponse, error) {
	regs, err := s.repo.ListByPropuesta(ctx, propuestaID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.RegistroOdooResponse, len(regs))
	for i, r := range regs {
		resp[i] = dto.RegistroOdooResponse{
			ID:            r.ID.String(),
			PropuestaID:   r.PropuestaID.String(),
			ProveedorID:   r.ProveedorID,
			Estado:        r.Estado,
			OdooOrderID:   r.OdooOrderID,
			OdooOrderName: r.OdooOrderName,
			PartnerRef:    r.PartnerRef,
			Error:         r.Error,
			CreatedAt:     r.CreatedAt.Format(time.RFC3339),
			UpdatedAt:     r.UpdatedAt.Format(time.RFC3339),
		}
	}
	return resp, nil
}

func (s *registroService) credenciales(ctx context.Context, usuario *model.Usuario) (infra.OdooCredentials, error) {
	cred, err := s.credencialRepo.FindByUsuarioID(ctx, usuario.ID)
	if err != nil || !cred.Activo {
		return infra.OdooCredentials{}, ErrSinCredencialesOdoo
	}
	return infra.OdooCredentials{
		Login:    cred.Login,
		Password: cred.Password,
		APIKey:   cred.APIKey,
	}, nil
}

type grupoProveedor struct {
	proveedorID int
	items       []model.ItemPropuestaCompra
}

// agruparPorProveedor buckets the orderable lines by supplier. Lines without
// a supplier fall back to partnerID; if none is given they are an error.
func agruparPorProveedor(items []model.ItemPropuestaCompra, partnerID *int) ([]grupoProveedor, error) {
	buckets := make(map[int][]model.ItemPropuestaCompra)
	for _, it := range items {
		if !it.CantidadPropuesta.IsPositive() || !it.Registrar {
			continue
		}
		proveedorID := 0
		switch {
		case it.ProveedorID != nil:
			proveedorID = *it.ProveedorID
		case partnerID != nil:
			proveedorID = *partnerID
		default:
			return nil, fmt.Errorf("el item %s no tiene proveedor y no se envio partner_id", it.Codigo)
		}
		buckets[proveedorID] = append(buckets[proveedorID], it)
	}
	if len(buckets) == 0 {
		return nil, ErrPropuestaSinItems
	}

	grupos := make([]grupoProveedor, 0, len(buckets))
	for id, its := range buckets {
		grupos = append(grupos, grupoProveedor{proveedorID: id, items: its})
	}
	// Deterministic order keeps the audit trail and retries stable.
	sort.Slice(grupos, func(i, j int) bool { return grupos[i].proveedorID < grupos[j].proveedorID })
	return grupos, nil
}

func (s *registroService) construirPayload(p *model.PropuestaCompra, comprador *model.Usuario, grupo grupoProveedor, req dto.RegistrarOdooRequest) infra.OdooPayload {
	now := time.Now().UTC()
	// +1 day compensates the ERP's timezone handling of date_order.
	dateOrder := now.AddDate(0, 0, 1).Format("2006-01-02")
	datePlanned := now.AddDate(0, 0, 10).Format("2006-01-02")
	if req.DatePlanned != nil {
		datePlanned = *req.DatePlanned
	}

	pickingType := pickingTypeDefault
	if req.PickingTypeID != nil {
		pickingType = *req.PickingTypeID
	}

	partnerRef := fmt.Sprintf("%s%s-%d", primeraLetraComprador(comprador), p.Numero, grupo.proveedorID)
	if req.PartnerRef != nil && *req.PartnerRef != "" {
		partnerRef = *req.PartnerRef
	}

	lines := make([]any, 0, len(grupo.items))
	for _, it := range grupo.items {
		lines = append(lines, []any{0, 0, map[string]any{
			"name":         fmt.Sprintf("[%s] %s", it.Codigo, it.Producto),
			"product_id":   resolverProductID(it, req.ProductMapping),
			"product_uom":  valorODefault(it.MedidaID, medidaDefault),
			"product_qty":  it.CantidadPropuesta.InexactFloat64(),
			"price_unit":   it.Costo.InexactFloat64(),
			"date_planned": datePlanned,
			"taxes_id":     []any{[]any{6, 0, []int{impuestoCompras}}},
		}})
	}

	currencyID := monedaDefault
	for _, it := range grupo.items {
		if it.CurrencyID != nil {
			currencyID = *it.CurrencyID
			break
		}
	}

	return infra.OdooPayload{
		Fields: []string{"name", "partner_id", "partner_ref"},
		Values: map[string]any{
			"partner_id":      grupo.proveedorID,
			"currency_id":     currencyID,
			"partner_ref":     partnerRef,
			"date_order":      dateOrder,
			"picking_type_id": pickingType,
			"user_id":         *comprador.OdooUserID,
			"order_line":      lines,
			"note":            notaPropuesta(p, comprador, grupo, now),
		},
	}
}

// resolverProductID follows the original resolution chain: line product_id,
// then the request mapping, then the code itself when numeric, else zero.
func resolverProductID(it model.ItemPropuestaCompra, mapping map[string]int) int {
	if it.ProductID != nil && *it.ProductID != 0 {
		return *it.ProductID
	}
	if id, ok := mapping[it.Codigo]; ok {
		return id
	}
	if id, err := strconv.Atoi(it.Codigo); err == nil {
		return id
	}
	return 0
}

func valorODefault(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}

func primeraLetraComprador(comprador *model.Usuario) string {
	nombre := comprador.NombreCompleto()
	if comprador.NombreComprador != nil && *comprador.NombreComprador != "" {
		nombre = *comprador.NombreComprador
	}
	if nombre == "" {
		return "C"
	}
	return strings.ToUpper(nombre[:1])
}

// notaPropuesta renders the structured note attached to every order so the
// ERP side can trace it back to the proposal.
func notaPropuesta(p *model.PropuestaCompra, comprador *model.Usuario, grupo grupoProveedor, now time.Time) string {
	var b strings.Builder
	b.WriteString("META DATOS DE LA PROPUESTA DE COMPRA\n")
	fmt.Fprintf(&b, "Propuesta: %s\n", p.Numero)
	fmt.Fprintf(&b, "Fecha de creacion: %s\n", p.CreatedAt.Format("2006-01-02 15:04:05"))

	b.WriteString("\nINFORMACION DEL COMPRADOR:\n")
	fmt.Fprintf(&b, "Nombre: %s\n", comprador.NombreCompleto())
	fmt.Fprintf(&b, "Email: %s\n", comprador.Email)
	if comprador.NombreComprador != nil && *comprador.NombreComprador != "" {
		fmt.Fprintf(&b, "Nombre de comprador: %s\n", *comprador.NombreComprador)
	}

	b.WriteString("\nINFORMACION DE LA PROPUESTA:\n")
	if p.CategoriaNombre != nil {
		fmt.Fprintf(&b, "Categoria: %s\n", *p.CategoriaNombre)
	}
	if len(p.Almacenes) > 0 {
		nombres := make([]string, len(p.Almacenes))
		for i, a := range p.Almacenes {
			nombres[i] = a.Nombre
		}
		fmt.Fprintf(&b, "Almacenes: %s\n", strings.Join(nombres, ", "))
	}

	b.WriteString("\nINFORMACION DE LOS ITEMS:\n")
	fmt.Fprintf(&b, "Proveedor: %d\n", grupo.proveedorID)
	fmt.Fprintf(&b, "Cantidad de items: %d\n", len(grupo.items))
	for i, it := range grupo.items {
		fmt.Fprintf(&b, "\nItem %d:\n", i+1)
		fmt.Fprintf(&b, "Codigo: %s\n", it.Codigo)
		fmt.Fprintf(&b, "Producto: %s\n", it.Producto)
		fmt.Fprintf(&b, "Cantidad: %s\n", it.CantidadPropuesta.String())
		fmt.Fprintf(&b, "Precio unitario: %s\n", it.Costo.String())
	}

	fmt.Fprintf(&b, "\nFecha y hora de envio a Odoo: %s", now.Format("2006-01-02 15:04:05"))
	return b.String()
}

func resultadoDesdeRegistro(r *model.RegistroOdoo) model.ResultadoOdoo {
	out := model.ResultadoOdoo{
		ProveedorID: r.ProveedorID,
		Estado:      model.RegistroExitoso,
	}
	if r.OdooOrderID != nil {
		out.OrderID = *r.OdooOrderID
	}
	if r.OdooOrderName != nil {
		out.OrderName = *r.OdooOrderName
	}
	if r.PartnerRef != nil {
		out.PartnerRef = *r.PartnerRef
	}
	return out
}

func comentarioRegistro(resultados model.ResultadosOdoo) string {
	detalles := make([]string, 0, len(resultados))
	for _, r := range resultados {
		if r.OrderName != "" {
			detalles = append(detalles, fmt.Sprintf("Proveedor %d - PO: %s", r.ProveedorID, r.OrderName))
		}
	}
	base := "Orden de compra registrada en Odoo."
	if len(detalles) == 0 {
		return base
	}
	return base + " " + strings.Join(detalles, "; ") + "."
}
