package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"backoffice/internal/config"
	"backoffice/internal/dto"
	"backoffice/internal/model"
	"backoffice/internal/repository"
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	CrearUsuario(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error)
	ListarUsuarios(ctx context.Context, incluirInactivos bool) ([]dto.UsuarioResponse, error)
	ActualizarUsuario(ctx context.Context, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error)
	DesactivarUsuario(ctx context.Context, id uuid.UUID) error
	ReactivarUsuario(ctx context.Context, id uuid.UUID) error
	GuardarCredencialOdoo(ctx context.Context, usuarioID uuid.UUID, req dto.GuardarCredencialOdooRequest) (*dto.CredencialOdooResponse, error)
	ObtenerCredencialOdoo(ctx context.Context, usuarioID uuid.UUID) (*dto.CredencialOdooResponse, error)
}

type authService struct {
	repo            repository.UsuarioRepository
	credencialRepo  repository.CredencialRepository
	cfg             *config.Config
}

func NewAuthService(repo repository.UsuarioRepository, credencialRepo repository.CredencialRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, credencialRepo: credencialRepo, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByLogin(ctx, req.Email)
	if err != nil {
		return nil, errors.New("credenciales invalidas")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.New("credenciales invalidas")
	}

	accessToken, err := s.generateToken(user, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(user, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         usuarioResponse(user),
	}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("refresh token invalido o expirado")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("claims invalidos")
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("token mal formado")
	}
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, errors.New("token mal formado")
	}

	user, err := s.repo.FindByID(ctx, uid)
	if err != nil || !user.Activo {
		return nil, errors.New("usuario no encontrado o inactivo")
	}

	accessToken, err := s.generateToken(user, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	newRefresh, err := s.generateToken(user, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         usuarioResponse(user),
	}, nil
}

func (s *authService) CrearUsuario(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, err
	}
	user := &model.Usuario{
		Username:        req.Username,
		Nombre:          req.Nombre,
		Apellido:        req.Apellido,
		Email:           req.Email,
		PasswordHash:    string(hash),
		Rol:             req.Rol,
		NombreComprador: req.NombreComprador,
		OdooUserID:      req.OdooUserID,
		Activo:          true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	resp := usuarioResponse(user)
	return &resp, nil
}

func (s *authService) ListarUsuarios(ctx context.Context, incluirInactivos bool) ([]dto.UsuarioResponse, error) {
	var users []model.Usuario
	var err error
	if incluirInactivos {
		users, err = s.repo.ListAll(ctx)
	} else {
		users, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	resp := make([]dto.UsuarioResponse, len(users))
	for i := range users {
		resp[i] = usuarioResponse(&users[i])
	}
	return resp, nil
}

func (s *authService) ActualizarUsuario(ctx context.Context, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("usuario no encontrado")
	}
	if req.Nombre != "" {
		user.Nombre = req.Nombre
	}
	if req.Apellido != nil {
		user.Apellido = req.Apellido
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Rol != "" {
		user.Rol = req.Rol
	}
	if req.NombreComprador != nil {
		user.NombreComprador = req.NombreComprador
	}
	if req.OdooUserID != nil {
		user.OdooUserID = req.OdooUserID
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	resp := usuarioResponse(user)
	return &resp, nil
}

func (s *authService) DesactivarUsuario(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *authService) ReactivarUsuario(ctx context.Context, id uuid.UUID) error {
	return s.repo.Reactivar(ctx, id)
}

func (s *authService) GuardarCredencialOdoo(ctx context.Context, usuarioID uuid.UUID, req dto.GuardarCredencialOdooRequest) (*dto.CredencialOdooResponse, error) {
	if _, err := s.repo.FindByID(ctx, usuarioID); err != nil {
		return nil, errors.New("usuario no encontrado")
	}
	activo := true
	if req.Activo != nil {
		activo = *req.Activo
	}
	cred := &model.OdooCredencial{
		UsuarioID: usuarioID,
		Login:     req.Login,
		Password:  req.Password,
		APIKey:    req.APIKey,
		Activo:    activo,
	}
	if err := s.credencialRepo.Upsert(ctx, cred); err != nil {
		return nil, err
	}
	return &dto.CredencialOdooResponse{
		UsuarioID: usuarioID.String(),
		Login:     cred.Login,
		Activo:    cred.Activo,
	}, nil
}

func (s *authService) ObtenerCredencialOdoo(ctx context.Context, usuarioID uuid.UUID) (*dto.CredencialOdooResponse, error) {
	cred, err := s.credencialRepo.FindByUsuarioID(ctx, usuarioID)
	if err != nil {
		return nil, errors.New("credenciales no configuradas")
	}
	return &dto.CredencialOdooResponse{
		UsuarioID: usuarioID.String(),
		Login:     cred.Login,
		Activo:    cred.Activo,
	}, nil
}

func usuarioResponse(u *model.Usuario) dto.UsuarioResponse {
	return dto.UsuarioResponse{
		ID:              u.ID.String(),
		Username:        u.Username,
		Nombre:          u.Nombre,
		Apellido:        u.Apellido,
		Email:           u.Email,
		Rol:             u.Rol,
		NombreComprador: u.NombreComprador,
		OdooUserID:      u.OdooUserID,
		Activo:          u.Activo,
	}
}

func (s *authService) generateToken(user *model.Usuario, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID.String(),
		"username": user.Username,
		"email":    user.Email,
		"rol":      user.Rol,
		"exp":      time.Now().Add(duration).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
