package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type CrearUsuarioRequest struct {
	Username        string  `json:"username"         validate:"required,min=1,max=150"`
	Nombre          string  `json:"nombre"           validate:"required,min=2,max=100"`
	Apellido        *string `json:"apellido"         validate:"omitempty,max=100"`
	Email           string  `json:"email"            validate:"required,email"`
	Password        string  `json:"password"         validate:"required,min=8"`
	Rol             string  `json:"rol"              validate:"required,oneof=comprador gerente administrador"`
	NombreComprador *string `json:"nombre_comprador" validate:"omitempty,min=2,max=100"`
	OdooUserID      *int    `json:"odoo_user_id"`
}

type ActualizarUsuarioRequest struct {
	Nombre          string  `json:"nombre"           validate:"omitempty,min=2,max=100"`
	Apellido        *string `json:"apellido"         validate:"omitempty,max=100"`
	Email           string  `json:"email"            validate:"omitempty,email"`
	Rol             string  `json:"rol"              validate:"omitempty,oneof=comprador gerente administrador"`
	NombreComprador *string `json:"nombre_comprador" validate:"omitempty,min=2,max=100"`
	OdooUserID      *int    `json:"odoo_user_id"`
	Password        string  `json:"password"         validate:"omitempty,min=8"`
}

// GuardarCredencialOdooRequest upserts the ERP credentials of a user.
type GuardarCredencialOdooRequest struct {
	Login    string `json:"login"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
	APIKey   string `json:"api_key"  validate:"required,min=8"`
	Activo   *bool  `json:"activo"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UsuarioResponse struct {
	ID              string  `json:"id"`
	Username        string  `json:"username"`
	Nombre          string  `json:"nombre"`
	Apellido        *string `json:"apellido"`
	Email           string  `json:"email"`
	Rol             string  `json:"rol"`
	NombreComprador *string `json:"nombre_comprador"`
	OdooUserID      *int    `json:"odoo_user_id"`
	Activo          bool    `json:"activo"`
}

type LoginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int             `json:"expires_in"` // seconds
	User         UsuarioResponse `json:"user"`
}

// CredencialOdooResponse never echoes the password or the API key.
type CredencialOdooResponse struct {
	UsuarioID string `json:"usuario_id"`
	Login     string `json:"login"`
	Activo    bool   `json:"activo"`
}
