package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"backoffice/internal/dto"
	"backoffice/internal/model"
	"backoffice/internal/repository"
)

var (
	ErrItemNoEncontrado = errors.New("item no encontrado")
	ErrItemAjeno        = errors.New("el item no pertenece a la propuesta indicada")
	ErrCodigoDuplicado  = errors.New("la propuesta ya tiene un item con ese codigo")
)

type ItemService interface {
	Crear(ctx context.Context, propuestaID uuid.UUID, usuario *model.Usuario, req dto.CrearItemRequest) (*dto.ItemResponse, error)
	Listar(ctx context.Context, filter dto.ItemFilter) ([]dto.ItemResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, usuario *model.Usuario, req dto.ActualizarItemRequest) (*dto.ItemResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID, usuario *model.Usuario) error
	BulkUpdate(ctx context.Context, usuario *model.Usuario, req dto.BulkUpdateItemsRequest) ([]dto.ItemResponse, error)
	UpdateProveedores(ctx context.Context, usuario *model.Usuario, req dto.UpdateProveedoresRequest) ([]dto.ItemResponse, error)
	ExportarExcel(ctx context.Context, propuestaID uuid.UUID) ([]byte, string, error)
}

type itemService struct {
	repo          repository.ItemRepository
	propuestaRepo repository.PropuestaRepository
}

func NewItemService(repo repository.ItemRepository, propuestaRepo repository.PropuestaRepository) ItemService {
	return &itemService{repo: repo, propuestaRepo: propuestaRepo}
}

// propuestaEditable loads the proposal and enforces the borrador-only rule
// for line edits. Buyers only touch their own proposals.
func (s *itemService) propuestaEditable(ctx context.Context, propuestaID uuid.UUID, usuario *model.Usuario) (*model.PropuestaCompra, error) {
	p, err := s.propuestaRepo.FindByID(ctx, propuestaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPropuestaNoEncontrada
		}
		return nil, err
	}
	if !esDuenoOAdmin(p, usuario) {
		return nil, ErrNoAutorizado
	}
	if p.Estado != model.EstadoBorrador {
		return nil, ErrSoloBorrador
	}
	return p, nil
}

func (s *itemService) Crear(ctx context.Context, propuestaID uuid.UUID, usuario *model.Usuario, req dto.CrearItemRequest) (*dto.ItemResponse, error) {
	p, err := s.propuestaEditable(ctx, propuestaID, usuario)
	if err != nil {
		return nil, err
	}
	for _, existente := range p.Items {
		if existente.Codigo == req.Codigo {
			return nil, ErrCodigoDuplicado
		}
	}

	item := itemFromRequest(req)
	item.PropuestaID = propuestaID
	if err := s.repo.Create(ctx, nil, &item); err != nil {
		return nil, err
	}
	resp := itemResponse(&item)
	return &resp, nil
}

func (s *itemService) Listar(ctx context.Context, filter dto.ItemFilter) ([]dto.ItemResponse, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ItemResponse, len(items))
	for i := range items {
		resp[i] = itemResponse(&items[i])
	}
	return resp, nil
}

func (s *itemService) Actualizar(ctx context.Context, id uuid.UUID, usuario *model.Usuario, req dto.ActualizarItemRequest) (*dto.ItemResponse, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNoEncontrado
		}
		return nil, err
	}
	if _, err := s.propuestaEditable(ctx, item.PropuestaID, usuario); err != nil {
		return nil, err
	}

	aplicarCambiosItem(item, req)
	if err := s.repo.Save(ctx, nil, item); err != nil {
		return nil, err
	}
	resp := itemResponse(item)
	return &resp, nil
}

func (s *itemService) Eliminar(ctx context.Context, id uuid.UUID, usuario *model.Usuario) error {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrItemNoEncontrado
		}
		return err
	}
	if _, err := s.propuestaEditable(ctx, item.PropuestaID, usuario); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *itemService) BulkUpdate(ctx context.Context, usuario *model.Usuario, req dto.BulkUpdateItemsRequest) ([]dto.ItemResponse, error) {
	propuestaID, err := uuid.Parse(req.PropuestaID)
	if err != nil {
		return nil, ErrPropuestaNoEncontrada
	}
	if _, err := s.propuestaEditable(ctx, propuestaID, usuario); err != nil {
		return nil, err
	}

	var actualizados []dto.ItemResponse
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for _, cambio := range req.Items {
			itemID, err := uuid.Parse(cambio.ItemID)
			if err != nil {
				return fmt.Errorf("item_id invalido: %s", cambio.ItemID)
			}
			item, err := s.repo.FindByID(ctx, itemID)
			if err != nil {
				return ErrItemNoEncontrado
			}
			if item.PropuestaID != propuestaID {
				return ErrItemAjeno
			}
			aplicarCambiosItem(item, dto.ActualizarItemRequest{
				CantidadPropuesta: cambio.CantidadPropuesta,
				Meses:             cambio.Meses,
				Registrar:         cambio.Registrar,
				Comentarios:       cambio.Comentarios,
			})
			if err := s.repo.Save(ctx, tx, item); err != nil {
				return err
			}
			actualizados = append(actualizados, itemResponse(item))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return actualizados, nil
}

// UpdateProveedores reassigns supplier and currency per line. It skips the
// borrador-only rule: the assignment happens after approval, right before the
// purchase orders are registered.
func (s *itemService) UpdateProveedores(ctx context.Context, usuario *model.Usuario, req dto.UpdateProveedoresRequest) ([]dto.ItemResponse, error) {
	propuestas := make(map[uuid.UUID]*model.PropuestaCompra)

	var actualizados []dto.ItemResponse
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for _, cambio := range req.Items {
			itemID, err := uuid.Parse(cambio.ItemID)
			if err != nil {
				return fmt.Errorf("item_id invalido: %s", cambio.ItemID)
			}
			item, err := s.repo.FindByID(ctx, itemID)
			if err != nil {
				return ErrItemNoEncontrado
			}
			p, ok := propuestas[item.PropuestaID]
			if !ok {
				p, err = s.propuestaRepo.FindByID(ctx, item.PropuestaID)
				if err != nil {
					return ErrPropuestaNoEncontrada
				}
				propuestas[item.PropuestaID] = p
			}
			if !esDuenoOAdmin(p, usuario) && !esGestor(usuario) {
				return ErrNoAutorizado
			}

			proveedorID := cambio.ProveedorID
			item.ProveedorID = &proveedorID
			if cambio.CurrencyID != nil {
				item.CurrencyID = cambio.CurrencyID
			}
			if err := s.repo.Save(ctx, tx, item); err != nil {
				return err
			}
			actualizados = append(actualizados, itemResponse(item))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return actualizados, nil
}

// ExportarExcel renders the proposal lines as a spreadsheet. Returns the file
// bytes and the suggested filename.
func (s *itemService) ExportarExcel(ctx context.Context, propuestaID uuid.UUID) ([]byte, string, error) {
	p, err := s.propuestaRepo.FindByID(ctx, propuestaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrPropuestaNoEncontrada
		}
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const hoja = "Items"
	f.SetSheetName("Sheet1", hoja)

	encabezados := []string{
		"Categoría", "Código", "Producto", "Medida", "Costo", "Existencia",
		"Comprometido", "Libre", "Consumo mensual", "Inv. mensuales",
		"Cantidad OC", "Producción", "Cantidad propuesta", "Meses",
		"Proveedor", "Subtotal", "Comentarios",
	}
	for i, h := range encabezados {
		celda, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(hoja, celda, h)
	}

	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	fin, _ := excelize.CoordinatesToCellName(len(encabezados), 1)
	f.SetCellStyle(hoja, "A1", fin, bold)

	for fila, it := range p.Items {
		valores := []any{
			it.Categoria, it.Codigo, it.Producto, strPtr(it.Medida),
			it.Costo.InexactFloat64(), it.Existencia.InexactFloat64(),
			it.Comprometido.InexactFloat64(), it.Libre.InexactFloat64(),
			it.ConsumoMensual.InexactFloat64(), it.InvMensuales.InexactFloat64(),
			it.CantidadOC.InexactFloat64(), it.Produccion.InexactFloat64(),
			it.CantidadPropuesta.InexactFloat64(), it.Meses.InexactFloat64(),
			intPtr(it.ProveedorID), it.Subtotal().InexactFloat64(), strPtr(it.Comentarios),
		}
		for col, v := range valores {
			celda, _ := excelize.CoordinatesToCellName(col+1, fila+2)
			f.SetCellValue(hoja, celda, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("excel: %w", err)
	}
	return buf.Bytes(), fmt.Sprintf("propuesta_%s_items.xlsx", p.Numero), nil
}

func aplicarCambiosItem(item *model.ItemPropuestaCompra, req dto.ActualizarItemRequest) {
	if req.Costo != nil {
		item.Costo = *req.Costo
	}
	if req.CantidadPropuesta != nil {
		item.CantidadPropuesta = *req.CantidadPropuesta
	}
	if req.Meses != nil {
		item.Meses = *req.Meses
	}
	if req.Registrar != nil {
		item.Registrar = *req.Registrar
	}
	if req.Comentarios != nil {
		item.Comentarios = req.Comentarios
	}
	if req.ProveedorID != nil {
		item.ProveedorID = req.ProveedorID
	}
	if req.CurrencyID != nil {
		item.CurrencyID = req.CurrencyID
	}
}

func strPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intPtr(n *int) any {
	if n == nil {
		return ""
	}
	return *n
}
