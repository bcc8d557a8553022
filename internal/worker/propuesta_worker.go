package worker

// propuesta_worker.go
// Processes jobs from QueuePropuestas: renders the proposal as PDF and mails
// it to the buyer so they can forward it to the supplier.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backoffice/internal/infra"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// PropuestaEmailPayload is the job envelope sent to QueuePropuestas.
type PropuestaEmailPayload struct {
	PropuestaID string `json:"propuesta_id"`
	UsuarioID   string `json:"usuario_id"`
}

const maxEmailAttempts = 3

// PropuestaEmailWorker renders and mails purchase proposals.
type PropuestaEmailWorker struct {
	propuestaRepo  repository.PropuestaRepository
	mailer         *infra.Mailer
	rdb            *redis.Client
	pdfStoragePath string
}

func NewPropuestaEmailWorker(propuestaRepo repository.PropuestaRepository, mailer *infra.Mailer, rdb *redis.Client, pdfStoragePath string) *PropuestaEmailWorker {
	return &PropuestaEmailWorker{
		propuestaRepo:  propuestaRepo,
		mailer:         mailer,
		rdb:            rdb,
		pdfStoragePath: pdfStoragePath,
	}
}

// Process loads the proposal, generates its PDF and sends the email with the
// PDF attached. SMTP failures are retried with backoff; after the last
// attempt the job goes to the DLQ.
func (w *PropuestaEmailWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload PropuestaEmailPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("propuesta_worker: invalid payload")
		return
	}

	id, err := uuid.Parse(payload.PropuestaID)
	if err != nil {
		log.Error().Str("propuesta_id", payload.PropuestaID).Msg("propuesta_worker: invalid propuesta_id")
		return
	}

	propuesta, err := w.propuestaRepo.FindByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("propuesta_id", payload.PropuestaID).Msg("propuesta_worker: propuesta not found")
		return
	}
	if propuesta.Comprador == nil || propuesta.Comprador.Email == "" {
		log.Warn().Str("propuesta_id", payload.PropuestaID).Msg("propuesta_worker: comprador sin email, se omite el envío")
		return
	}

	pdfPath, err := infra.GeneratePropuestaPDF(propuesta, w.pdfStoragePath)
	if err != nil {
		log.Error().Err(err).Str("propuesta_id", payload.PropuestaID).Msg("propuesta_worker: PDF generation failed")
		return
	}

	proveedor := "proveedor"
	if propuesta.Proveedor != nil && *propuesta.Proveedor != "" {
		proveedor = *propuesta.Proveedor
	}
	subject := fmt.Sprintf("Propuesta de compra %s — %s", propuesta.Numero, proveedor)
	body := fmt.Sprintf("Adjunto encontrarás la propuesta de compra %s lista para enviar al proveedor.", propuesta.Numero)

	sendErr := withRetry(ctx, maxEmailAttempts, func(attempt int) error {
		if err := w.mailer.SendPropuesta(propuesta.Comprador.Email, subject, body, pdfPath); err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("propuesta_id", payload.PropuestaID).
				Msg("propuesta_worker: SMTP attempt failed, retrying")
			return err
		}
		return nil
	})
	if sendErr != nil {
		SendToDLQ(ctx, w.rdb, QueuePropuestas, JobPropuestaEmail, raw,
			fmt.Sprintf("max retries (%d) exceeded: %s", maxEmailAttempts, sendErr),
			maxEmailAttempts)
		return
	}

	log.Info().
		Str("to", propuesta.Comprador.Email).
		Str("propuesta_id", payload.PropuestaID).
		Msg("propuesta_worker: propuesta sent successfully")
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
