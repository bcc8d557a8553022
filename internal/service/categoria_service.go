package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"backoffice/internal/dto"
	"backoffice/internal/model"
	"backoffice/internal/repository"
)

var ErrCategoriaNoEncontrada = errors.New("categoria no encontrada")

type CategoriaService interface {
	Crear(ctx context.Context, req dto.CrearCategoriaRequest) (*dto.CategoriaResponse, error)
	Listar(ctx context.Context, filter dto.CategoriaFilter) ([]dto.CategoriaResponse, error)
	Obtener(ctx context.Context, id int) (*dto.CategoriaResponse, error)
	Actualizar(ctx context.Context, id int, req dto.ActualizarCategoriaRequest) (*dto.CategoriaResponse, error)
	Desactivar(ctx context.Context, id int) error
}

type categoriaService struct {
	repo repository.CategoriaRepository
}

func NewCategoriaService(repo repository.CategoriaRepository) CategoriaService {
	return &categoriaService{repo: repo}
}

func (s *categoriaService) Crear(ctx context.Context, req dto.CrearCategoriaRequest) (*dto.CategoriaResponse, error) {
	c := &model.Categoria{
		CategoriaID: req.CategoriaID,
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		Activo:      true,
	}
	if err := s.repo.Crear(ctx, c); err != nil {
		return nil, err
	}
	return categoriaResponse(c), nil
}

func (s *categoriaService) Listar(ctx context.Context, filter dto.CategoriaFilter) ([]dto.CategoriaResponse, error) {
	list, err := s.repo.Listar(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.CategoriaResponse, len(list))
	for i := range list {
		resp[i] = *categoriaResponse(&list[i])
	}
	return resp, nil
}

func (s *categoriaService) Obtener(ctx context.Context, id int) (*dto.CategoriaResponse, error) {
	c, err := s.repo.ObtenerPorID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoriaNoEncontrada
		}
		return nil, err
	}
	return categoriaResponse(c), nil
}

func (s *categoriaService) Actualizar(ctx context.Context, id int, req dto.ActualizarCategoriaRequest) (*dto.CategoriaResponse, error) {
	c, err := s.repo.ObtenerPorID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoriaNoEncontrada
		}
		return nil, err
	}
	if req.Nombre != nil {
		c.Nombre = *req.Nombre
	}
	if req.Descripcion != nil {
		c.Descripcion = req.Descripcion
	}
	if req.Activo != nil {
		c.Activo = *req.Activo
	}
	if err := s.repo.Actualizar(ctx, c); err != nil {
		return nil, err
	}
	return categoriaResponse(c), nil
}

func (s *categoriaService) Desactivar(ctx context.Context, id int) error {
	if _, err := s.repo.ObtenerPorID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoriaNoEncontrada
		}
		return err
	}
	return s.repo.Desactivar(ctx, id)
}

func categoriaResponse(c *model.Categoria) *dto.CategoriaResponse {
	return &dto.CategoriaResponse{
		CategoriaID: c.CategoriaID,
		Nombre:      c.Nombre,
		Descripcion: c.Descripcion,
		Activo:      c.Activo,
	}
}
