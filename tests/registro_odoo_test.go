package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backoffice/internal/dto"
	"backoffice/internal/handler"
	"backoffice/internal/infra"
	"backoffice/internal/middleware"
	"backoffice/internal/model"
	"backoffice/internal/repository"
	"backoffice/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

type stubRegistroRepo struct {
	registros map[string]*model.RegistroOdoo
}

var _ repository.RegistroRepository = (*stubRegistroRepo)(nil)

func newStubRegistroRepo() *stubRegistroRepo {
	return &stubRegistroRepo{registros: make(map[string]*model.RegistroOdoo)}
}

func registroKey(propuestaID uuid.UUID, proveedorID int) string {
	return propuestaID.String() + "#" + fmt.Sprint(proveedorID)
}

func (r *stubRegistroRepo) GetOrCreate(_ context.Context, _ *gorm.DB, propuestaID uuid.UUID, proveedorID int) (*model.RegistroOdoo, error) {
	key := registroKey(propuestaID, proveedorID)
	if reg, ok := r.registros[key]; ok {
		return reg, nil
	}
	reg := &model.RegistroOdoo{
		ID:          uuid.New(),
		PropuestaID: propuestaID,
		ProveedorID: proveedorID,
		Estado:      model.RegistroPendiente,
	}
	r.registros[key] = reg
	return reg, nil
}

func (r *stubRegistroRepo) Save(_ context.Context, _ *gorm.DB, reg *model.RegistroOdoo) error {
	r.registros[registroKey(reg.PropuestaID, reg.ProveedorID)] = reg
	return nil
}

func (r *stubRegistroRepo) ListByPropuesta(_ context.Context, propuestaID uuid.UUID) ([]model.RegistroOdoo, error) {
	var out []model.RegistroOdoo
	for _, reg := range r.registros {
		if reg.PropuestaID == propuestaID {
			out = append(out, *reg)
		}
	}
	return out, nil
}

// fakeOdooGateway captures every payload and can fail selected suppliers.
type fakeOdooGateway struct {
	payloads      []infra.OdooPayload
	fallaPartner  map[int]bool
	siguienteID   int64
}

func newFakeOdooGateway() *fakeOdooGateway {
	return &fakeOdooGateway{fallaPartner: make(map[int]bool), siguienteID: 5000}
}

func (g *fakeOdooGateway) CreatePurchaseOrder(_ context.Context, _ infra.OdooCredentials, payload infra.OdooPayload) (*infra.OdooOrderResult, error) {
	g.payloads = append(g.payloads, payload)
	partnerID := payload.Values["partner_id"].(int)
	if g.fallaPartner[partnerID] {
		return nil, &infra.OdooAPIError{Msg: "timeout del ERP"}
	}
	g.siguienteID++
	return &infra.OdooOrderResult{
		ID:         g.siguienteID,
		Name:       fmt.Sprintf("P%05d", g.siguienteID),
		PartnerRef: payload.Values["partner_ref"].(string),
		PartnerID:  partnerID,
	}, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

type registroFixture struct {
	propuestas *stubPropuestaRepo
	usuarios   *stubUsuarioRepo
	registros  *stubRegistroRepo
	creds      *stubCredencialRepo
	odoo       *fakeOdooGateway
	svc        service.RegistroService
}

func newRegistroFixture() *registroFixture {
	propuestas := newStubPropuestaRepo()
	usuarios := newStubUsuarioRepo()
	registros := newStubRegistroRepo()
	creds := newStubCredencialRepo()
	odoo := newFakeOdooGateway()
	return &registroFixture{
		propuestas: propuestas,
		usuarios:   usuarios,
		registros:  registros,
		creds:      creds,
		odoo:       odoo,
		svc:        service.NewRegistroService(registros, propuestas, usuarios, creds, odoo),
	}
}

// seedComprador registers a buyer with Odoo credentials and an ERP user id.
func (f *registroFixture) seedComprador(t *testing.T) *model.Usuario {
	t.Helper()
	odooUserID := 88
	nombreComprador := "Karla"
	u := &model.Usuario{
		ID: uuid.New(), Username: "karla", Nombre: "Karla", Email: "karla@munozmobiliario.mx",
		Rol: "comprador", NombreComprador: &nombreComprador, OdooUserID: &odooUserID, Activo: true,
	}
	f.usuarios.users[u.ID] = u
	assert.NoError(t, f.creds.Upsert(context.Background(), &model.OdooCredencial{
		UsuarioID: u.ID, Login: u.Email, Password: "odoo", APIKey: "key-123456", Activo: true,
	}))
	return u
}

// seedAprobada plants a proposal in estado aprobada with one line per supplier.
func (f *registroFixture) seedAprobada(comprador *model.Usuario, proveedores ...int) *model.PropuestaCompra {
	p := &model.PropuestaCompra{
		ID:          uuid.New(),
		Numero:      "PC-00042",
		CompradorID: comprador.ID,
		Estado:      model.EstadoAprobada,
	}
	for i, prov := range proveedores {
		prov := prov
		productID := 700 + i
		p.Items = append(p.Items, model.ItemPropuestaCompra{
			ID:                uuid.New(),
			PropuestaID:       p.ID,
			Categoria:         "HERRAJE",
			Codigo:            fmt.Sprintf("HRJ-%03d", i+1),
			Producto:          fmt.Sprintf("Bisagra %d", i+1),
			Costo:             decimal.NewFromFloat(12.5),
			CantidadPropuesta: decimal.NewFromInt(int64(10 + i)),
			Registrar:         true,
			ProveedorID:       &prov,
			ProductID:         &productID,
		})
	}
	f.propuestas.propuestas[p.ID] = p
	return p
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestCrearOrdenCompra_ExitoTotal(t *testing.T) {
	f := newRegistroFixture()
	comprador := f.seedComprador(t)
	p := f.seedAprobada(comprador, 1033, 1040)

	resp, err := f.svc.CrearOrdenCompra(context.Background(), p.ID, comprador, dto.RegistrarOdooRequest{})
	assert.NoError(t, err)
	assert.True(t, resp.Exito)
	assert.Equal(t, model.EstadoRegistradaOdoo, resp.Estado)
	assert.Len(t, resp.Resultados, 2)
	assert.Equal(t, "5001,5002", *resp.OdooPurchaseOrderID)

	guardada := f.propuestas.propuestas[p.ID]
	assert.Equal(t, model.EstadoRegistradaOdoo, guardada.Estado)
	assert.NotNil(t, guardada.FechaRegistroOdoo)

	// one order per supplier, lowest supplier id first
	assert.Len(t, f.odoo.payloads, 2)
	assert.Equal(t, 1033, f.odoo.payloads[0].Values["partner_id"])
	assert.Equal(t, 1040, f.odoo.payloads[1].Values["partner_id"])
}

func TestCrearOrdenCompra_PayloadPorDefecto(t *testing.T) {
	f := newRegistroFixture()
	comprador := f.seedComprador(t)
	p := f.seedAprobada(comprador, 1033)

	_, err := f.svc.CrearOrdenCompra(context.Background(), p.ID, comprador, dto.RegistrarOdooRequest{})
	assert.NoError(t, err)

	values := f.odoo.payloads[0].Values
	assert.Equal(t, "KPC-00042-1033", values["partner_ref"])
	assert.Equal(t, 7, values["picking_type_id"])
	assert.Equal(t, 34, values["currency_id"])
	assert.Equal(t, 88, values["user_id"])

	lines := values["order_line"].([]any)
	assert.Len(t, lines, 1)
	line := lines[0].([]any)[2].(map[string]any)
	assert.Equal(t, "[HRJ-001] Bisagra 1", line["name"])
	assert.Equal(t, 700, line["product_id"])
	assert.Equal(t, 3, line["product_uom"])
	assert.Equal(t, 10.0, line["product_qty"])
	assert.Equal(t, 12.5, line["price_unit"])
	assert.Equal(t, []any{[]any{6, 0, []int{12}}}, line["taxes_id"])

	nota := values["note"].(string)
	assert.Contains(t, nota, "META DATOS DE LA PROPUESTA DE COMPRA")
	assert.Contains(t, nota, "Propuesta: PC-00042")
}

func TestCrearOrdenCompra_FallaParcialMantieneEstado(t *testing.T) {
	f := newRegistroFixture()
	comprador := f.seedComprador(t)
	p := f.seedAprobada(comprador, 1033, 1040)
	f.odoo.fallaPartner[1040] = true

	resp, err := f.svc.CrearOrdenCompra(context.Background(), p.ID, comprador, dto.RegistrarOdooRequest{})
	assert.NoError(t, err)
	assert.False(t, resp.Exito)
	assert.Equal(t, model.EstadoAprobada, resp.Estado)

	guardada := f.propuestas.propuestas[p.ID]
	assert.Equal(t, model.EstadoAprobada, guardada.Estado)
	// The partial outcome is persisted for inspection
	assert.Len(t, guardada.OdooResponse, 2)

	var evento bool
	for _, e := range guardada.HistorialEventos {
		if e.Accion == "registro_odoo_parcial" {
			evento = true
		}
	}
	assert.True(t, evento)

	reg := f.registros.registros[registroKey(p.ID, 1040)]
	assert.Equal(t, model.RegistroFallido, reg.Estado)
	assert.NotNil(t, reg.Error)
}

func TestCrearOrdenCompra_ReintentoOmiteProveedoresExitosos(t *testing.T) {
	f := newRegistroFixture()
	comprador := f.seedComprador(t)
	p := f.seedAprobada(comprador, 1033, 1040)
	f.odoo.fallaPartner[1040] = true

	_, err := f.svc.CrearOrdenCompra(context.Background(), p.ID, comprador, dto.RegistrarOdooRequest{})
	assert.NoError(t, err)
	assert.Len(t, f.odoo.payloads, 2)

	// Second attempt: only the failed supplier goes back to the ERP.
	f.odoo.fallaPartner[1040] = false
	resp, err := f.svc.CrearOrdenCompra(context.Background(), p.ID, comprador, dto.RegistrarOdooRequest{})
	assert.NoError(t, err)
	assert.True(t, resp.Exito)
	assert.Equal(t, model.EstadoRegistradaOdoo, resp.Estado)
	assert.Len(t, f.odoo.payloads, 3)
	assert.Equal(t, 1040, f.odoo.payloads[2].Values["partner_id"])
	assert.Equal(t, "5001,5002", *resp.OdooPurchaseOrderID)
}

func TestCrearOrdenCompra_SinCredenciales(t *testing.T) {
	f := newRegistroFixture()
	comprador := f.seedComprador(t)
	p := f.seedAprobada(comprador, 1033)

	otro := usuarioConRol("gerente")
	f.usuarios.users[otro.ID] = otro
	_, err := f.svc.CrearOrdenCompra(context.Background(), p.ID, otro, dto.RegistrarOdooRequest{})
	assert.ErrorIs(t, err, service.ErrSinCredencialesOdoo)
	assert.Empty(t, f.odoo.payloads)
}

func TestCrearOrdenCompra_CredencialInactiva(t *testing.T) {
	f := newRegistroFixture()
	comprador := f.seedComprador(t)
	p := f.seedAprobada(comprador, 1033)
	f.creds.creds[comprador.ID].Activo = false

	_, err := f.svc.CrearOrdenCompra(context.Background(), p.ID, comprador, dto.RegistrarOdooRequest{})
	assert.ErrorIs(t, err, service.ErrSinCredencialesOdoo)
}

func TestCrearOrdenCompra_CompradorSinOdooID(t *testing.T) {
	f := newRegistroFixture()
	comprador := f.seedComprador(t)
	comprador.OdooUserID = nil
	p := f.seedAprobada(comprador, 1033)

	_, err := f.svc.CrearOrdenCompra(context.Background(), p.ID, comprador, dto.RegistrarOdooRequest{})
	assert.ErrorIs(t, err, service.ErrCompradorSinOdooID)
}

func TestCrearOrdenCompra_RequiereEstadoAprobada(t *testing.T) {
	f := newRegistroFixture()
	comprador := f.seedComprador(t)
	p := f.seedAprobada(comprador, 1033)

	for _, estado := range []string{model.EstadoBorrador, model.EstadoPendienteAprobacion, model.EstadoRechazada, model.EstadoEnviada} {
		p.Estado = estado
		_, err := f.svc.CrearOrdenCompra(context.Background(), p.ID, comprador, dto.RegistrarOdooRequest{})
		assert.ErrorIs(t, err, service.ErrPropuestaNoAprobada, "estado %s", estado)
	}
	assert.Empty(t, f.odoo.payloads)
}

func TestCrearOrdenCompra_DesdeModificadaAprobada(t *testing.T) {
	f := newRegistroFixture()
	comprador := f.seedComprador(t)
	p := f.seedAprobada(comprador, 1033)
	p.Estado = model.EstadoModificadaAprobada

	resp, err := f.svc.CrearOrdenCompra(context.Background(), p.ID, comprador, dto.RegistrarOdooRequest{})
	assert.NoError(t, err)
	assert.True(t, resp.Exito)
	assert.Equal(t, model.EstadoRegistradaOdoo, resp.Estado)

	guardada := f.propuestas.propuestas[p.ID]
	var evento bool
	for _, e := range guardada.HistorialEventos {
		if e.Accion == "modificada_aprobada -> registrada_odoo" {
			evento = true
		}
	}
	assert.True(t, evento)
}

func TestCrearOrdenCompra_CompradorAjenoNoAutorizado(t *testing.T) {
	f := newRegistroFixture()
	comprador := f.seedComprador(t)
	p := f.seedAprobada(comprador, 1033)

	otro := usuarioConRol("comprador")
	f.usuarios.users[otro.ID] = otro
	assert.NoError(t, f.creds.Upsert(context.Background(), &model.OdooCredencial{
		UsuarioID: otro.ID, Login: otro.Email, Password: "odoo", APIKey: "key-ajena", Activo: true,
	}))

	_, err := f.svc.CrearOrdenCompra(context.Background(), p.ID, otro, dto.RegistrarOdooRequest{})
	assert.ErrorIs(t, err, service.ErrNoAutorizado)
	assert.Empty(t, f.odoo.payloads)
}

func TestCrearOrdenCompra_ItemSinProveedorUsaPartnerID(t *testing.T) {
	f := newRegistroFixture()
	comprador := f.seedComprador(t)
	p := f.seedAprobada(comprador, 1033)
	p.Items[0].ProveedorID = nil

	fallback := 2001
	resp, err := f.svc.CrearOrdenCompra(context.Background(), p.ID, comprador, dto.RegistrarOdooRequest{PartnerID: &fallback})
	assert.NoError(t, err)
	assert.True(t, resp.Exito)
	assert.Equal(t, 2001, f.odoo.payloads[0].Values["partner_id"])
}

func TestCrearOrdenCompra_ItemSinProveedorNiPartnerID(t *testing.T) {
	f := newRegistroFixture()
	comprador := f.seedComprador(t)
	p := f.seedAprobada(comprador, 1033)
	p.Items[0].ProveedorID = nil

	_, err := f.svc.CrearOrdenCompra(context.Background(), p.ID, comprador, dto.RegistrarOdooRequest{})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, service.ErrPropuestaNoAprobada))
}

func TestCrearOrdenCompra_IgnoraItemsSinRegistrar(t *testing.T) {
	f := newRegistroFixture()
	comprador := f.seedComprador(t)
	p := f.seedAprobada(comprador, 1033, 1040)
	p.Items[1].Registrar = false

	resp, err := f.svc.CrearOrdenCompra(context.Background(), p.ID, comprador, dto.RegistrarOdooRequest{})
	assert.NoError(t, err)
	assert.True(t, resp.Exito)
	assert.Len(t, f.odoo.payloads, 1)
	assert.Equal(t, 1033, f.odoo.payloads[0].Values["partner_id"])
}

func TestCrearOrdenCompraHandler_FallaParcialDevuelve400(t *testing.T) {
	f := newRegistroFixture()
	comprador := f.seedComprador(t)
	p := f.seedAprobada(comprador, 1033, 1040)
	f.odoo.fallaPartner[1040] = true

	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handler.NewPropuestasHandler(nil, f.svc, f.usuarios)
	r.POST("/v1/propuestas/:id/crear-orden-compra", middleware.JWTAuth(testSecret), h.CrearOrdenCompra)

	registrar := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost,
			"/v1/propuestas/"+p.ID.String()+"/crear-orden-compra", bytes.NewReader([]byte("{}")))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+signToken(t, comprador.ID.String(), comprador.Rol, time.Hour))
		r.ServeHTTP(w, req)
		return w
	}

	w := registrar()
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body dto.RegistrarOdooResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Exito)
	assert.Len(t, body.Resultados, 2)

	// Once the supplier recovers the retry reports 200.
	f.odoo.fallaPartner[1040] = false
	w = registrar()
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListarRegistros(t *testing.T) {
	f := newRegistroFixture()
	comprador := f.seedComprador(t)
	p := f.seedAprobada(comprador, 1033)

	_, err := f.svc.CrearOrdenCompra(context.Background(), p.ID, comprador, dto.RegistrarOdooRequest{})
	assert.NoError(t, err)

	regs, err := f.svc.ListarRegistros(context.Background(), p.ID)
	assert.NoError(t, err)
	assert.Len(t, regs, 1)
	assert.Equal(t, model.RegistroExitoso, regs[0].Estado)
	assert.Equal(t, 1033, regs[0].ProveedorID)
	assert.Equal(t, "KPC-00042-1033", *regs[0].PartnerRef)
}
