package infra

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"backoffice/internal/model"
)

const (
	tablaProductos = "products_cache"
	tablaImagenes  = "cotizador_imagenproducto"
)

// ProductCacheStore exposes the typed operations this service performs on the
// Supabase product cache.
type ProductCacheStore struct {
	sb *SupabaseClient
}

func NewProductCacheStore(sb *SupabaseClient) *ProductCacheStore {
	return &ProductCacheStore{sb: sb}
}

// ImagenesExistentes maps reference_mask to its current image_url so a sync
// run never wipes images uploaded by hand.
func (s *ProductCacheStore) ImagenesExistentes(ctx context.Context) (map[string]string, error) {
	var rows []struct {
		ReferenceMask *string `json:"reference_mask"`
		ImageURL      *string `json:"image_url"`
	}
	query := url.Values{"select": {"reference_mask,image_url"}}
	if _, err := s.sb.Select(ctx, tablaProductos, query, false, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		if r.ReferenceMask != nil && r.ImageURL != nil && *r.ImageURL != "" {
			out[*r.ReferenceMask] = *r.ImageURL
		}
	}
	return out, nil
}

// BuscarImagenFallback looks the image up in the quoter's image table by
// parent key. Returns nil when there is none.
func (s *ProductCacheStore) BuscarImagenFallback(ctx context.Context, clavePadre string) (*string, error) {
	var rows []struct {
		URL string `json:"url"`
	}
	query := url.Values{
		"select":      {"url"},
		"clave_padre": {"eq." + clavePadre},
		"limit":       {"1"},
	}
	if _, err := s.sb.Select(ctx, tablaImagenes, query, false, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0].URL, nil
}

// UpsertProductos writes one batch, merging on reference_mask.
func (s *ProductCacheStore) UpsertProductos(ctx context.Context, rows []model.ProductoCache) error {
	if len(rows) == 0 {
		return nil
	}
	return s.sb.Upsert(ctx, tablaProductos, "reference_mask", rows)
}

// ListarProductos pages through the cache applying the read API filters.
func (s *ProductCacheStore) ListarProductos(ctx context.Context, busqueda string, familyID, lineID, groupID *int, page, limit int) ([]model.ProductoCache, int, error) {
	query := url.Values{
		"select": {"*"},
		"order":  {"reference_mask.asc"},
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa((page - 1) * limit)},
	}
	if busqueda != "" {
		pat := "*" + busqueda + "*"
		query.Set("or", fmt.Sprintf("(name.ilike.%s,reference_mask.ilike.%s)", pat, pat))
	}
	if familyID != nil {
		query.Set("family_id", "eq."+strconv.Itoa(*familyID))
	}
	if lineID != nil {
		query.Set("line_id", "eq."+strconv.Itoa(*lineID))
	}
	if groupID != nil {
		query.Set("group_id", "eq."+strconv.Itoa(*groupID))
	}

	var rows []model.ProductoCache
	total, err := s.sb.Select(ctx, tablaProductos, query, true, &rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ObtenerProducto fetches one cached product by reference mask.
func (s *ProductCacheStore) ObtenerProducto(ctx context.Context, referenceMask string) (*model.ProductoCache, error) {
	var rows []model.ProductoCache
	query := url.Values{
		"select":         {"*"},
		"reference_mask": {"eq." + referenceMask},
		"limit":          {"1"},
	}
	if _, err := s.sb.Select(ctx, tablaProductos, query, false, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ActualizarImagen sets the image of one cached product.
func (s *ProductCacheStore) ActualizarImagen(ctx context.Context, referenceMask, imageURL string) error {
	query := url.Values{"reference_mask": {"eq." + referenceMask}}
	return s.sb.Update(ctx, tablaProductos, query, map[string]string{"image_url": imageURL})
}
