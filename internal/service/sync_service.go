package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"backoffice/internal/config"
	"backoffice/internal/infra"
	"backoffice/internal/model"
	"backoffice/internal/repository"
)

// CacheStore is the slice of the Supabase client the sync needs.
type CacheStore interface {
	ImagenesExistentes(ctx context.Context) (map[string]string, error)
	BuscarImagenFallback(ctx context.Context, clavePadre string) (*string, error)
	UpsertProductos(ctx context.Context, rows []model.ProductoCache) error
}

// SyncService runs the ERP-to-Supabase product cache synchronization.
type SyncService interface {
	Run(ctx context.Context) (*model.SyncStats, error)
}

type syncService struct {
	erpRepo   repository.ErpProductoRepository
	store     CacheStore
	cb        *infra.CircuitBreaker
	batchSize int
	pausa     time.Duration
}

func NewSyncService(erpRepo repository.ErpProductoRepository, store CacheStore, cb *infra.CircuitBreaker, cfg *config.Config) SyncService {
	batch := cfg.SyncBatchSize
	if batch <= 0 {
		batch = 100
	}
	return &syncService{
		erpRepo:   erpRepo,
		store:     store,
		cb:        cb,
		batchSize: batch,
		pausa:     500 * time.Millisecond,
	}
}

// Run pulls the eligible catalog from the ERP replica and upserts it into the
// cache in batches. A failed batch is counted and skipped; the run keeps
// going so one bad payload does not starve the rest of the catalog.
func (s *syncService) Run(ctx context.Context) (*model.SyncStats, error) {
	inicio := time.Now()

	productos, err := s.erpRepo.ListForSync(ctx, exclusionesSync)
	if err != nil {
		return nil, err
	}

	// Images are managed by hand in the cache; a sync must never erase them.
	imagenes, err := s.store.ImagenesExistentes(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("sync: no se pudieron leer las imágenes existentes, se continúa sin preservar")
		imagenes = map[string]string{}
	}

	stats := &model.SyncStats{Total: len(productos)}
	lastSync := inicio.UTC().Format(time.RFC3339)

	filas := make([]model.ProductoCache, 0, len(productos))
	for i := range productos {
		p := &productos[i]
		clave := p.Clave()
		if clave == "" {
			log.Debug().Int64("erp_id", p.ID).Msg("sync: producto sin clave, omitido")
			stats.Fallidos++
			continue
		}

		fila := model.ProductoCache{
			ID:            p.ID,
			Name:          p.NameSpanish,
			ReferenceMask: clave,
			TypeID:        p.TypeID,
			FamilyID:      p.FamilyID,
			LineID:        p.LineID,
			GroupID:       p.GroupID,
			TypeName:      p.TypeName,
			FamilyName:    p.FamilyName,
			LineName:      p.LineName,
			GroupName:     p.GroupName,
			IsLine:        p.IsLine,
			Active:        p.Active,
			LastSync:      lastSync,
		}

		if url, ok := imagenes[clave]; ok {
			fila.ImageURL = &url
			stats.ImagenesPreservas++
			stats.ConImagen++
		} else if url, err := s.store.BuscarImagenFallback(ctx, clave); err != nil {
			log.Debug().Err(err).Str("clave", clave).Msg("sync: búsqueda de imagen falló")
		} else if url != nil {
			fila.ImageURL = url
			stats.ConImagen++
		}

		filas = append(filas, fila)
	}

	for desde := 0; desde < len(filas); desde += s.batchSize {
		hasta := min(desde+s.batchSize, len(filas))
		lote := dedupePorClave(filas[desde:hasta])

		err := s.cb.Execute(func() error {
			return s.store.UpsertProductos(ctx, lote)
		})
		if err != nil {
			log.Error().Err(err).Int("desde", desde).Int("hasta", hasta).Msg("sync: lote fallido")
			stats.Fallidos += hasta - desde
			// An open breaker means the cache is down; the rest of the run
			// would only burn the pause budget.
			if errors.Is(err, infra.ErrCircuitOpen) {
				stats.Fallidos += len(filas) - hasta
				log.Warn().Int("restantes", len(filas)-hasta).Msg("sync: circuito abierto, corrida abortada")
				break
			}
		} else {
			stats.Exitosos += hasta - desde
		}

		if hasta < len(filas) {
			select {
			case <-ctx.Done():
				stats.Duracion = time.Since(inicio)
				stats.DuracionSegundos = stats.Duracion.Seconds()
				return stats, ctx.Err()
			case <-time.After(s.pausa):
			}
		}
	}

	stats.Duracion = time.Since(inicio)
	stats.DuracionSegundos = stats.Duracion.Seconds()

	log.Info().
		Int("total", stats.Total).
		Int("exitosos", stats.Exitosos).
		Int("fallidos", stats.Fallidos).
		Int("con_imagen", stats.ConImagen).
		Int("imagenes_preservadas", stats.ImagenesPreservas).
		Float64("segundos", stats.DuracionSegundos).
		Msg("sync: corrida terminada")

	return stats, nil
}

// dedupePorClave keeps the last occurrence of each reference mask within a
// batch; PostgREST rejects an upsert that touches the same key twice.
func dedupePorClave(lote []model.ProductoCache) []model.ProductoCache {
	porClave := make(map[string]int, len(lote))
	out := make([]model.ProductoCache, 0, len(lote))
	for _, fila := range lote {
		if idx, ok := porClave[fila.ReferenceMask]; ok {
			out[idx] = fila
			continue
		}
		porClave[fila.ReferenceMask] = len(out)
		out = append(out, fila)
	}
	return out
}
