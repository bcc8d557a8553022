package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"backoffice/internal/config"
	"backoffice/internal/dto"
	"backoffice/internal/handler"
	"backoffice/internal/middleware"
	"backoffice/internal/model"
	"backoffice/internal/repository"
	"backoffice/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── In-memory Repository Stubs ────────────────────────────────────────────────

type stubUsuarioRepo struct {
	users map[uuid.UUID]*model.Usuario
}

var _ repository.UsuarioRepository = (*stubUsuarioRepo)(nil)

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{users: make(map[uuid.UUID]*model.Usuario)}
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *stubUsuarioRepo) FindByLogin(_ context.Context, login string) (*model.Usuario, error) {
	for _, u := range r.users {
		if (u.Username == login || strings.EqualFold(u.Email, login)) && u.Activo {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUsuarioRepo) List(_ context.Context) ([]model.Usuario, error) {
	users := make([]model.Usuario, 0, len(r.users))
	for _, u := range r.users {
		if u.Activo {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (r *stubUsuarioRepo) ListAll(_ context.Context) ([]model.Usuario, error) {
	users := make([]model.Usuario, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, *u)
	}
	return users, nil
}

func (r *stubUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	r.users[u.ID] = u
	return nil
}

func (r *stubUsuarioRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Activo = false
	return nil
}

func (r *stubUsuarioRepo) Reactivar(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Activo = true
	return nil
}

type stubCredencialRepo struct {
	creds map[uuid.UUID]*model.OdooCredencial
}

var _ repository.CredencialRepository = (*stubCredencialRepo)(nil)

func newStubCredencialRepo() *stubCredencialRepo {
	return &stubCredencialRepo{creds: make(map[uuid.UUID]*model.OdooCredencial)}
}

func (r *stubCredencialRepo) FindByUsuarioID(_ context.Context, usuarioID uuid.UUID) (*model.OdooCredencial, error) {
	c, ok := r.creds[usuarioID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubCredencialRepo) Upsert(_ context.Context, c *model.OdooCredencial) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.creds[c.UsuarioID] = c
	return nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

const testSecret = "test_jwt_secret_32_chars_minimum!"

func newTestCfg() *config.Config {
	return &config.Config{
		JWTSecret:          testSecret,
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
	}
}

func newAuthService(repo *stubUsuarioRepo) service.AuthService {
	return service.NewAuthService(repo, newStubCredencialRepo(), newTestCfg())
}

func seedUser(t *testing.T, repo *stubUsuarioRepo, username, email, password, rol string) *model.Usuario {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	assert.NoError(t, err)
	u := &model.Usuario{
		ID: uuid.New(), Username: username, Nombre: "Test User", Email: email,
		PasswordHash: string(hash), Rol: rol, Activo: true,
	}
	repo.users[u.ID] = u
	return u
}

func signToken(t *testing.T, userID, rol string, dur time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID, "username": "testuser", "email": "test@test.mx", "rol": rol,
		"exp": time.Now().Add(dur).Unix(), "iat": time.Now().Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(testSecret))
	assert.NoError(t, err)
	return s
}

func doLoginRequest(t *testing.T, svc service.AuthService, req dto.LoginRequest) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	authH := handler.NewAuthHandler(svc)
	r.POST("/login", authH.Login)

	body, _ := json.Marshal(req)
	w := httptest.NewRecorder()
	httpReq, _ := http.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, httpReq)
	return w
}

func ginTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.JWTAuth(testSecret))
	r.GET("/protected", func(c *gin.Context) {
		claims := middleware.GetClaims(c)
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID, "rol": claims.Rol})
	})
	r.GET("/gestion", middleware.RequireRole("gerente", "administrador"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/admin", middleware.RequireRole("administrador"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

// ── Tests: Login ──────────────────────────────────────────────────────────────

func TestLogin_Success(t *testing.T) {
	repo := newStubUsuarioRepo()
	seedUser(t, repo, "admin", "admin@munozmobiliario.mx", "password123", "administrador")
	svc := newAuthService(repo)

	w := doLoginRequest(t, svc, dto.LoginRequest{Email: "admin@munozmobiliario.mx", Password: "password123"})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.LoginResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, "administrador", resp.User.Rol)
}

func TestLogin_EmailCaseInsensitive(t *testing.T) {
	repo := newStubUsuarioRepo()
	seedUser(t, repo, "comprador1", "compras@munozmobiliario.mx", "password123", "comprador")
	svc := newAuthService(repo)

	w := doLoginRequest(t, svc, dto.LoginRequest{Email: "COMPRAS@munozmobiliario.MX", Password: "password123"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	repo := newStubUsuarioRepo()
	seedUser(t, repo, "comprador1", "compras@munozmobiliario.mx", "correctpass", "comprador")
	svc := newAuthService(repo)

	w := doLoginRequest(t, svc, dto.LoginRequest{Email: "compras@munozmobiliario.mx", Password: "wrongpass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_UserNotFound(t *testing.T) {
	repo := newStubUsuarioRepo()
	svc := newAuthService(repo)

	w := doLoginRequest(t, svc, dto.LoginRequest{Email: "nadie@munozmobiliario.mx", Password: "anypass123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_InactiveUser_Rejected(t *testing.T) {
	repo := newStubUsuarioRepo()
	u := seedUser(t, repo, "baja1", "baja@munozmobiliario.mx", "password123", "comprador")
	u.Activo = false
	svc := newAuthService(repo)

	w := doLoginRequest(t, svc, dto.LoginRequest{Email: "baja@munozmobiliario.mx", Password: "password123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_ShortPassword_Rejected(t *testing.T) {
	repo := newStubUsuarioRepo()
	svc := newAuthService(repo)

	w := doLoginRequest(t, svc, dto.LoginRequest{Email: "a@b.mx", Password: "12"})
	// 422 Unprocessable Entity from bindAndValidate
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

// ── Tests: Refresh ────────────────────────────────────────────────────────────

func TestRefresh_Success(t *testing.T) {
	repo := newStubUsuarioRepo()
	u := seedUser(t, repo, "gerente1", "gerencia@munozmobiliario.mx", "pass1234", "gerente")
	svc := newAuthService(repo)

	loginW := doLoginRequest(t, svc, dto.LoginRequest{Email: "gerencia@munozmobiliario.mx", Password: "pass1234"})
	assert.Equal(t, http.StatusOK, loginW.Code)
	var loginResp dto.LoginResponse
	json.Unmarshal(loginW.Body.Bytes(), &loginResp) //nolint

	resp, err := svc.Refresh(context.Background(), loginResp.RefreshToken)
	assert.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, u.Username, resp.User.Username)
}

func TestRefresh_InvalidToken(t *testing.T) {
	repo := newStubUsuarioRepo()
	svc := newAuthService(repo)

	_, err := svc.Refresh(context.Background(), "this.is.garbage")
	assert.Error(t, err)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	repo := newStubUsuarioRepo()
	u := seedUser(t, repo, "comprador2", "c2@munozmobiliario.mx", "pass12345", "comprador")
	svc := newAuthService(repo)

	expired := signToken(t, u.ID.String(), "comprador", -1*time.Second)
	_, err := svc.Refresh(context.Background(), expired)
	assert.Error(t, err)
}

func TestRefresh_InactiveUser_Rejected(t *testing.T) {
	repo := newStubUsuarioRepo()
	u := seedUser(t, repo, "baja2", "baja2@munozmobiliario.mx", "pass12345", "comprador")
	svc := newAuthService(repo)

	tok := signToken(t, u.ID.String(), "comprador", time.Hour)
	u.Activo = false
	_, err := svc.Refresh(context.Background(), tok)
	assert.Error(t, err)
}

// ── Tests: Usuarios ───────────────────────────────────────────────────────────

func TestCrearUsuario_HashesPassword(t *testing.T) {
	repo := newStubUsuarioRepo()
	svc := newAuthService(repo)

	resp, err := svc.CrearUsuario(context.Background(), dto.CrearUsuarioRequest{
		Username: "nuevo", Nombre: "Nuevo", Email: "nuevo@munozmobiliario.mx",
		Password: "secreto123", Rol: "comprador",
	})
	assert.NoError(t, err)
	assert.True(t, resp.Activo)

	id, _ := uuid.Parse(resp.ID)
	stored := repo.users[id]
	assert.NotEqual(t, "secreto123", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secreto123")))
}

func TestListarUsuarios_FiltraInactivos(t *testing.T) {
	repo := newStubUsuarioRepo()
	seedUser(t, repo, "activo1", "a1@munozmobiliario.mx", "pass12345", "comprador")
	inactivo := seedUser(t, repo, "baja3", "b3@munozmobiliario.mx", "pass12345", "comprador")
	inactivo.Activo = false
	svc := newAuthService(repo)

	activos, err := svc.ListarUsuarios(context.Background(), false)
	assert.NoError(t, err)
	assert.Len(t, activos, 1)

	todos, err := svc.ListarUsuarios(context.Background(), true)
	assert.NoError(t, err)
	assert.Len(t, todos, 2)
}

func TestDesactivarYReactivarUsuario(t *testing.T) {
	repo := newStubUsuarioRepo()
	u := seedUser(t, repo, "temporal", "t@munozmobiliario.mx", "pass12345", "comprador")
	svc := newAuthService(repo)

	assert.NoError(t, svc.DesactivarUsuario(context.Background(), u.ID))
	assert.False(t, repo.users[u.ID].Activo)

	assert.NoError(t, svc.ReactivarUsuario(context.Background(), u.ID))
	assert.True(t, repo.users[u.ID].Activo)
}

// ── Tests: Credenciales Odoo ──────────────────────────────────────────────────

func TestGuardarCredencialOdoo_NoEchoSecretos(t *testing.T) {
	repo := newStubUsuarioRepo()
	credRepo := newStubCredencialRepo()
	u := seedUser(t, repo, "comprador3", "c3@munozmobiliario.mx", "pass12345", "comprador")
	svc := service.NewAuthService(repo, credRepo, newTestCfg())

	resp, err := svc.GuardarCredencialOdoo(context.Background(), u.ID, dto.GuardarCredencialOdooRequest{
		Login: "c3@munozmobiliario.mx", Password: "odoo_pass", APIKey: "api-key-123456",
	})
	assert.NoError(t, err)
	assert.Equal(t, u.ID.String(), resp.UsuarioID)
	assert.Equal(t, "c3@munozmobiliario.mx", resp.Login)
	assert.True(t, resp.Activo)

	// The response type has no password/api_key fields; the secrets only
	// live in the repository.
	raw, _ := json.Marshal(resp)
	assert.NotContains(t, string(raw), "odoo_pass")
	assert.NotContains(t, string(raw), "api-key-123456")
	assert.Equal(t, "api-key-123456", credRepo.creds[u.ID].APIKey)
}

func TestGuardarCredencialOdoo_UsuarioInexistente(t *testing.T) {
	svc := newAuthService(newStubUsuarioRepo())

	_, err := svc.GuardarCredencialOdoo(context.Background(), uuid.New(), dto.GuardarCredencialOdooRequest{
		Login: "x@munozmobiliario.mx", Password: "odoo_pass", APIKey: "api-key-123456",
	})
	assert.Error(t, err)
}

func TestObtenerCredencialOdoo_NoConfigurada(t *testing.T) {
	repo := newStubUsuarioRepo()
	u := seedUser(t, repo, "comprador4", "c4@munozmobiliario.mx", "pass12345", "comprador")
	svc := newAuthService(repo)

	_, err := svc.ObtenerCredencialOdoo(context.Background(), u.ID)
	assert.Error(t, err)
}

// ── Tests: JWT Middleware ─────────────────────────────────────────────────────

func TestProtectedEndpoint_NoToken(t *testing.T) {
	r := ginTestRouter()
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedEndpoint_ValidToken(t *testing.T) {
	r := ginTestRouter()
	tok := signToken(t, uuid.New().String(), "comprador", time.Hour)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedEndpoint_ExpiredToken(t *testing.T) {
	r := ginTestRouter()
	tok := signToken(t, uuid.New().String(), "comprador", -time.Second)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole_CompradorBloqueadoEnGestion(t *testing.T) {
	r := ginTestRouter()
	tok := signToken(t, uuid.New().String(), "comprador", time.Hour)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/gestion", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRole_GerentePasaGestionNoAdmin(t *testing.T) {
	r := ginTestRouter()
	tok := signToken(t, uuid.New().String(), "gerente", time.Hour)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/gestion", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
