//go:build integration

package e2e

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v
//
// Covered flows:
//   - Full proposal cycle: crear → solicitar aprobación → aprobar → enviar
//   - Gerente rejection and return to borrador
//   - Role enforcement on the approval endpoints
//   - Item management inside a borrador, including the Excel export
//   - Odoo registration refused without stored credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"backoffice/internal/config"
	"backoffice/internal/infra"
	"backoffice/internal/model"
	"backoffice/internal/router"
	"backoffice/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server     *httptest.Server
	adminToken string
	engine     *gin.Engine
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("backoffice_test"),
		tcPostgres.WithUsername("backoffice"),
		tcPostgres.WithPassword("backoffice"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        pgURL,
		ERPReplicaURL:      pgURL, // the replica is never queried in these flows
		RedisURL:           rdURL,
		OdooEndpoint:       "http://localhost:9999/api/create_purchase",
		SupabaseURL:        "http://localhost:9998",
		SupabaseKey:        "test",
		ERPCommonAPIURL:    "http://localhost:9997",
		WorkerPoolSize:     1,
		PDFStoragePath:     t.TempDir(),
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))

	erpDB, err := infra.NewERPReplica(cfg.ERPReplicaURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	// Seed the admin the rest of the suite authenticates with
	hash, err := bcrypt.GenerateFromPassword([]byte("backoffice2026"), 12)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.Usuario{
		Username: "admine2e", Nombre: "Admin", Email: "admin@e2e.test",
		PasswordHash: string(hash), Rol: "administrador", Activo: true,
	}).Error)

	r := router.New(cfg, router.Deps{
		DB:         db,
		ERPReplica: erpDB,
		RDB:        rdb,
		SyncCB:     infra.NewCircuitBreaker(infra.CircuitBreakerConfig{}),
		Dispatcher: worker.NewDispatcher(rdb),
		Tracker:    worker.NewSyncTracker(rdb),
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{
		server:     srv,
		adminToken: login(t, srv, "admin@e2e.test", "backoffice2026"),
		engine:     r,
	}
}

func login(t *testing.T, srv *httptest.Server, email, password string) string {
	t.Helper()
	resp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"email": email, "password": password}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, resp, &body)
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

// crearUsuario registers a user through the API and returns their token.
func crearUsuario(t *testing.T, env *testEnv, username, rol string) string {
	t.Helper()
	email := username + "@e2e.test"
	resp := do(t, env.server, "POST", "/v1/usuarios", jsonBody(t, map[string]any{
		"username": username, "nombre": "Usuario " + username, "email": email,
		"password": "clave12345", "rol": rol,
	}), env.adminToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	return login(t, env.server, email, "clave12345")
}

func crearPropuesta(t *testing.T, env *testEnv, token string) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/propuestas", jsonBody(t, map[string]any{
		"proveedor": "Maderas del Bajio",
		"items": []map[string]any{
			{"categoria": "MADERA", "codigo": "TAB-001", "producto": "Tablero MDF 18mm",
				"costo": "450.00", "cantidad_propuesta": "12", "proveedor_id": 1033, "product_id": 700},
		},
	}), token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p struct {
		ID     string `json:"id"`
		Estado string `json:"estado"`
	}
	decodeJSON(t, resp, &p)
	require.Equal(t, "borrador", p.Estado)
	return p.ID
}

func accion(t *testing.T, env *testEnv, token, propuestaID, accion string, esperado int) *http.Response {
	t.Helper()
	resp := do(t, env.server, "POST",
		fmt.Sprintf("/v1/propuestas/%s/%s", propuestaID, accion),
		jsonBody(t, map[string]string{"comentario": "e2e"}), token)
	require.Equal(t, esperado, resp.StatusCode)
	return resp
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_FlujoCompletoDePropuesta(t *testing.T) {
	env := setupTestEnv(t)
	compradorTok := crearUsuario(t, env, "comprador1", "comprador")
	gerenteTok := crearUsuario(t, env, "gerente1", "gerente")

	id := crearPropuesta(t, env, compradorTok)

	accion(t, env, compradorTok, id, "solicitar-aprobacion", http.StatusOK).Body.Close()
	accion(t, env, gerenteTok, id, "aprobar", http.StatusOK).Body.Close()

	resp := accion(t, env, compradorTok, id, "enviar-proveedor", http.StatusOK)
	var enviada struct {
		Estado           string `json:"estado"`
		HistorialEventos []struct {
			Accion string `json:"accion"`
		} `json:"historial_eventos"`
	}
	decodeJSON(t, resp, &enviada)
	assert.Equal(t, "enviada", enviada.Estado)
	assert.GreaterOrEqual(t, len(enviada.HistorialEventos), 4)

	// listing filters by estado
	listResp := do(t, env.server, "GET", "/v1/propuestas?estado=enviada", nil, compradorTok)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var lista struct {
		Total int64 `json:"total"`
	}
	decodeJSON(t, listResp, &lista)
	assert.Equal(t, int64(1), lista.Total)
}

func TestE2E_RechazoYRegresoABorrador(t *testing.T) {
	env := setupTestEnv(t)
	compradorTok := crearUsuario(t, env, "comprador2", "comprador")
	gerenteTok := crearUsuario(t, env, "gerente2", "gerente")

	id := crearPropuesta(t, env, compradorTok)
	accion(t, env, compradorTok, id, "solicitar-aprobacion", http.StatusOK).Body.Close()

	rechazoResp := do(t, env.server, "POST", "/v1/propuestas/"+id+"/rechazar",
		jsonBody(t, map[string]string{"comentario": "costos fuera de presupuesto"}), gerenteTok)
	require.Equal(t, http.StatusOK, rechazoResp.StatusCode)
	var rechazada struct {
		Estado string `json:"estado"`
	}
	decodeJSON(t, rechazoResp, &rechazada)
	assert.Equal(t, "rechazada", rechazada.Estado)

	resp := accion(t, env, compradorTok, id, "regresar-borrador", http.StatusOK)
	var borrador struct {
		Estado             string  `json:"estado"`
		UsuarioAprobadorID *string `json:"usuario_aprobador_id"`
	}
	decodeJSON(t, resp, &borrador)
	assert.Equal(t, "borrador", borrador.Estado)
	assert.Nil(t, borrador.UsuarioAprobadorID)
}

func TestE2E_RolesEnAprobacion(t *testing.T) {
	env := setupTestEnv(t)
	compradorTok := crearUsuario(t, env, "comprador3", "comprador")

	id := crearPropuesta(t, env, compradorTok)
	accion(t, env, compradorTok, id, "solicitar-aprobacion", http.StatusOK).Body.Close()

	// The role middleware rejects a comprador before the handler runs
	accion(t, env, compradorTok, id, "aprobar", http.StatusForbidden).Body.Close()

	// An invalid transition from borrador is a conflict for a gerente
	gerenteTok := crearUsuario(t, env, "gerente3", "gerente")
	otra := crearPropuesta(t, env, compradorTok)
	accion(t, env, gerenteTok, otra, "aprobar", http.StatusConflict).Body.Close()
}

func TestE2E_ItemsYExportacion(t *testing.T) {
	env := setupTestEnv(t)
	compradorTok := crearUsuario(t, env, "comprador4", "comprador")
	id := crearPropuesta(t, env, compradorTok)

	// add a second line
	itemResp := do(t, env.server, "POST", "/v1/propuestas/"+id+"/items", jsonBody(t, map[string]any{
		"categoria": "HERRAJE", "codigo": "HRJ-001", "producto": "Bisagra recta",
		"costo": "12.50", "cantidad_propuesta": "40",
	}), compradorTok)
	require.Equal(t, http.StatusCreated, itemResp.StatusCode)
	var item struct {
		ID string `json:"id"`
	}
	decodeJSON(t, itemResp, &item)

	// duplicated code is a conflict
	dupResp := do(t, env.server, "POST", "/v1/propuestas/"+id+"/items", jsonBody(t, map[string]any{
		"categoria": "HERRAJE", "codigo": "HRJ-001", "producto": "Bisagra duplicada",
		"costo": "10.00",
	}), compradorTok)
	assert.Equal(t, http.StatusConflict, dupResp.StatusCode)
	dupResp.Body.Close()

	// bulk quantity update
	bulkResp := do(t, env.server, "POST", "/v1/items/bulk-update", jsonBody(t, map[string]any{
		"propuesta_id": id,
		"items":        []map[string]any{{"item_id": item.ID, "cantidad_propuesta": "25"}},
	}), compradorTok)
	require.Equal(t, http.StatusOK, bulkResp.StatusCode)
	bulkResp.Body.Close()

	// export as spreadsheet
	exportResp := do(t, env.server, "GET", "/v1/propuestas/"+id+"/items/export", nil, compradorTok)
	require.Equal(t, http.StatusOK, exportResp.StatusCode)
	assert.Contains(t, exportResp.Header.Get("Content-Disposition"), ".xlsx")
	exportResp.Body.Close()
}

func TestE2E_RegistroOdooSinCredenciales(t *testing.T) {
	env := setupTestEnv(t)
	compradorTok := crearUsuario(t, env, "comprador5", "comprador")
	gerenteTok := crearUsuario(t, env, "gerente5", "gerente")

	id := crearPropuesta(t, env, compradorTok)
	accion(t, env, compradorTok, id, "solicitar-aprobacion", http.StatusOK).Body.Close()
	accion(t, env, gerenteTok, id, "aprobar", http.StatusOK).Body.Close()

	// Odoo credentials were never stored for this buyer
	regResp := do(t, env.server, "POST", "/v1/propuestas/"+id+"/crear-orden-compra",
		jsonBody(t, map[string]any{}), compradorTok)
	assert.Equal(t, http.StatusBadRequest, regResp.StatusCode)
	regResp.Body.Close()

	// The idempotency log stays empty
	listResp := do(t, env.server, "GET", "/v1/propuestas/"+id+"/registros-odoo", nil, compradorTok)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var registros []any
	decodeJSON(t, listResp, &registros)
	assert.Empty(t, registros)
}

func TestE2E_CategoriasCRUD(t *testing.T) {
	env := setupTestEnv(t)
	compradorTok := crearUsuario(t, env, "comprador6", "comprador")

	crearResp := do(t, env.server, "POST", "/v1/categorias", jsonBody(t, map[string]any{
		"categoria_id": 5, "nombre": "Tapicería",
	}), env.adminToken)
	require.Equal(t, http.StatusCreated, crearResp.StatusCode)
	crearResp.Body.Close()

	// a comprador can read but not write
	listResp := do(t, env.server, "GET", "/v1/categorias", nil, compradorTok)
	assert.Equal(t, http.StatusOK, listResp.StatusCode)
	listResp.Body.Close()

	writeResp := do(t, env.server, "POST", "/v1/categorias", jsonBody(t, map[string]any{
		"categoria_id": 6, "nombre": "Carpintería",
	}), compradorTok)
	assert.Equal(t, http.StatusForbidden, writeResp.StatusCode)
	writeResp.Body.Close()
}
